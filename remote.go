package xdpready

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DefaultSSHPort is used when no port is configured.
const DefaultSSHPort = 22

// privilegedCommand validates the sudo credentials with the password read
// from stdin, then runs line with sudo -n in the same shell so the cached
// timestamp applies. The group's stdin is /dev/null: the password is only
// ever readable by the first sudo, even when it does not ask for it.
// The escalation applies to the first command of a pipeline.
func privilegedCommand(line string) string {
	return "sudo -S -p '' -v && { sudo -n " + line + "; } </dev/null"
}

// Remote runs commands over an authenticated SSH connection.
//
// Commands are serialized: each one gets its own SSH session and the next
// one is issued only after the previous one has finished.
type Remote struct {
	secrets  *SecretCache
	logger   *slog.Logger
	policy   ExecPolicy
	hostKeys ssh.HostKeyCallback

	addr   string
	conn   net.Conn
	client *ssh.Client
	mu     sync.Mutex
}

// NewRemote returns an unconnected Remote whose default policy is
// [Sequential]. Privileged commands use the secret held by secrets.
func NewRemote(secrets *SecretCache, logger *slog.Logger, opts ...BackendOption) *Remote {
	cfg := newBackendConfig(Sequential, opts)
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.hostKeys == nil {
		cfg.hostKeys = ssh.InsecureIgnoreHostKey()
	}
	return &Remote{
		secrets:  secrets,
		logger:   logger,
		policy:   cfg.policy,
		hostKeys: cfg.hostKeys,
	}
}

// Connect opens the TCP connection to host:port.
func (r *Remote) Connect(ctx context.Context, host string, port int) error {
	if port == 0 {
		port = DefaultSSHPort
	}
	r.addr = net.JoinHostPort(host, strconv.Itoa(port))

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", r.addr)
	if err != nil {
		return &ConnectError{Addr: r.addr, Err: err}
	}
	r.conn = conn
	r.logger.Debug("connected", "addr", r.addr)
	return nil
}

// Authenticate performs the SSH handshake and password authentication
// on the connection opened by [Remote.Connect].
func (r *Remote) Authenticate(user, secret string) error {
	if r.conn == nil {
		return &ConnectError{Addr: r.addr, Err: errors.New("not connected")}
	}

	config := &ssh.ClientConfig{
		User: user,
		Auth: []ssh.AuthMethod{
			ssh.Password(secret),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = secret
				}
				return answers, nil
			}),
		},
		HostKeyCallback: r.hostKeys,
	}

	c, chans, reqs, err := ssh.NewClientConn(r.conn, r.addr, config)
	if err != nil {
		r.conn.Close()
		r.conn = nil
		if isAuthFailure(err) {
			return &AuthError{User: user, Addr: r.addr, Err: err}
		}
		return &ConnectError{Addr: r.addr, Err: fmt.Errorf("ssh handshake: %w", err)}
	}
	r.client = ssh.NewClient(c, chans, reqs)
	r.logger.Debug("authenticated", "addr", r.addr, "user", user, "server", string(r.client.ServerVersion()))
	return nil
}

// isAuthFailure tells credential rejection apart from other handshake errors.
func isAuthFailure(err error) bool {
	return err != nil && strings.Contains(err.Error(), "unable to authenticate")
}

// Run implements [Backend].
func (r *Remote) Run(_ context.Context, line string) (string, error) {
	return r.run(line, nil)
}

// RunPrivileged runs line behind sudo. The cached secret is written to the
// session's standard input for sudo to validate; the elevated command never
// sees it, and it is never part of the command line.
func (r *Remote) RunPrivileged(_ context.Context, line string) (string, error) {
	cmd := privilegedCommand(line)
	secret, err := r.secrets.Secret()
	if err != nil {
		return "", &ExecError{Command: cmd, ExitStatus: -1, Err: err}
	}
	return r.run(cmd, strings.NewReader(secret+"\n"))
}

func (r *Remote) run(line string, stdin io.Reader) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client == nil {
		return "", &ExecError{Command: line, ExitStatus: -1, Err: errors.New("not connected")}
	}

	r.logger.Debug("running remote command", "addr", r.addr, "command", line)

	session, err := r.client.NewSession()
	if err != nil {
		return "", &ExecError{Command: line, ExitStatus: -1, Err: fmt.Errorf("new session: %w", err)}
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	session.Stdin = stdin

	err = session.Run(line)
	if err == nil {
		return stdout.String(), nil
	}

	ee := &ExecError{
		Command:    line,
		ExitStatus: -1,
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		Err:        err,
	}
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		ee.ExitStatus = exitErr.ExitStatus()
	}
	return stdout.String(), ee
}

// Policy implements [Backend].
func (r *Remote) Policy() ExecPolicy {
	return r.policy
}

func (r *Remote) String() string {
	return "ssh://" + r.addr
}

// Close closes the SSH connection.
func (r *Remote) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// HostKeyCallback builds a host key verifier from an OpenSSH known_hosts
// file. An empty path selects ~/.ssh/known_hosts; if that file does not
// exist, host keys are not verified and a warning is logged.
func HostKeyCallback(path string, logger *slog.Logger) (ssh.HostKeyCallback, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if path != "" {
		cb, err := knownhosts.New(path)
		if err != nil {
			return nil, fmt.Errorf("known hosts %s: %w", path, err)
		}
		return cb, nil
	}

	home, err := os.UserHomeDir()
	if err == nil {
		def := filepath.Join(home, ".ssh", "known_hosts")
		if _, statErr := os.Stat(def); statErr == nil {
			cb, err := knownhosts.New(def)
			if err != nil {
				return nil, fmt.Errorf("known hosts %s: %w", def, err)
			}
			return cb, nil
		}
	}

	logger.Warn("no known_hosts file found, host keys will not be verified")
	return ssh.InsecureIgnoreHostKey(), nil
}
