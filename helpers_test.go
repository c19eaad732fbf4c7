package xdpready

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"
)

// fakeBackend answers commands from a table.
// Unknown commands fail like a missing binary (exit status 127).
type fakeBackend struct {
	policy  ExecPolicy
	outputs map[string]string
	errs    map[string]error
	delay   time.Duration

	mu          sync.Mutex
	calls       []string
	privileged  []string
	inflight    int
	maxInflight int
	closed      bool
}

func newFakeBackend(policy ExecPolicy) *fakeBackend {
	return &fakeBackend{
		policy:  policy,
		outputs: map[string]string{},
		errs:    map[string]error{},
	}
}

func (f *fakeBackend) Run(ctx context.Context, line string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, line)
	f.mu.Unlock()
	return f.answer(ctx, line)
}

func (f *fakeBackend) RunPrivileged(ctx context.Context, line string) (string, error) {
	f.mu.Lock()
	f.privileged = append(f.privileged, line)
	f.mu.Unlock()
	return f.answer(ctx, line)
}

func (f *fakeBackend) answer(_ context.Context, line string) (string, error) {
	f.mu.Lock()
	f.inflight++
	if f.inflight > f.maxInflight {
		f.maxInflight = f.inflight
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inflight--

	if err, ok := f.errs[line]; ok {
		return f.outputs[line], err
	}
	if out, ok := f.outputs[line]; ok {
		return out, nil
	}
	return "", &ExecError{Command: line, ExitStatus: 127, Stderr: "command not found"}
}

func (f *fakeBackend) Policy() ExecPolicy { return f.policy }
func (f *fakeBackend) String() string     { return "fake" }

func (f *fakeBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeBackend) ran(line string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == line {
			return true
		}
	}
	for _, c := range f.privileged {
		if c == line {
			return true
		}
	}
	return false
}

const testRelease = "6.5.0-14-generic"

// readyUbuntu returns a backend describing an Ubuntu host that passes
// every stage.
func readyUbuntu(policy ExecPolicy) *fakeBackend {
	f := newFakeBackend(policy)
	f.outputs[kernelReleaseCommand] = testRelease + "\n"
	f.outputs[hostIdentityCommand] = "ubuntu\n"
	f.outputs["apt -qq list linux-tools-common"] = "linux-tools-common/jammy-updates,now 6.5.0-14.14 all [installed]\n"
	f.outputs["apt -qq list linux-tools-"+testRelease] = "linux-tools-" + testRelease + "/jammy-updates,now 6.5.0-14.14 amd64 [installed,automatic]\n"
	f.outputs["apt -qq list ripgrep"] = "ripgrep/jammy,now 13.0.0-2 amd64 [installed]\n"
	f.outputs["apt -qq list clang"] = "clang/jammy,now 1:14.0-55 amd64 [installed]\n"
	f.outputs["apt -qq list libbpf-dev"] = "libbpf-dev/jammy,now 1:0.5.0-1 amd64 [installed]\n"
	f.outputs[kernelFlagsCommand()] = "CONFIG_BPF is set to y\nCONFIG_BPF_SYSCALL is set to y\nCONFIG_BPF_JIT is set to y\nCONFIG_BPF_EVENTS is set to y\n"
	f.outputs[linkListCommand] = "lo\neth0\nwlp2s0\n"
	return f
}

// markMissing makes apt report pkg as not installed.
func (f *fakeBackend) markMissing(pkg string) {
	f.outputs["apt -qq list "+pkg] = pkg + "/jammy 1.0 amd64\n"
}

// fakePrompter returns pre-decided answers and counts prompts.
type fakePrompter struct {
	// confirms are returned in order; once exhausted Confirm returns true.
	confirms  []bool
	username  string
	secret    string
	secretErr error

	mu          sync.Mutex
	questions   []string
	lineCalls   int
	secretCalls int
}

func (p *fakePrompter) Confirm(question string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.questions = append(p.questions, question)
	if len(p.confirms) == 0 {
		return true, nil
	}
	answer := p.confirms[0]
	p.confirms = p.confirms[1:]
	return answer, nil
}

func (p *fakePrompter) Line(string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lineCalls++
	if p.username == "" {
		return "", errors.New("no username")
	}
	return p.username, nil
}

func (p *fakePrompter) Secret(string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.secretCalls++
	if p.secretErr != nil {
		return "", p.secretErr
	}
	return p.secret, nil
}

func newTestConsole() (*Console, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewConsole(&buf), &buf
}
