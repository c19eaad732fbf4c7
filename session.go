package xdpready

import (
	"slices"
	"strings"
	"sync"
)

// Session is the state shared by every stage of one diagnostic run:
// the ledger of packages found missing and the cached login secret.
type Session struct {
	Ledger  *Ledger
	Secrets *SecretCache
}

// NewSession returns an empty session whose secret is obtained from p
// the first time it is needed.
func NewSession(p Prompter) *Session {
	return &Session{
		Ledger:  &Ledger{},
		Secrets: NewSecretCache(p),
	}
}

// Ledger records package names found missing during a run.
// It is append-only and safe for concurrent use.
type Ledger struct {
	mu    sync.Mutex
	names []string
}

// Add records names, ignoring ones already present.
func (l *Ledger) Add(names ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, n := range names {
		if !slices.Contains(l.names, n) {
			l.names = append(l.names, n)
		}
	}
}

// Contains reports whether name was recorded.
func (l *Ledger) Contains(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Contains(l.names, name)
}

// Names returns a copy of the recorded names in insertion order.
func (l *Ledger) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.names)
}

// SecretCache resolves the login secret at most once per run.
//
// The secret is used both for SSH password authentication and for
// privileged remote commands. It is never logged.
type SecretCache struct {
	mu       sync.Mutex
	prompter Prompter
	value    string
	resolved bool
}

// NewSecretCache returns a cache that asks p for the secret on first use.
func NewSecretCache(p Prompter) *SecretCache {
	return &SecretCache{prompter: p}
}

// Secret returns the cached secret, prompting for it the first time.
// A failed prompt is not cached, so the next call prompts again.
func (c *SecretCache) Secret() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.resolved {
		return c.value, nil
	}
	v, err := c.prompter.Secret("Password")
	if err != nil {
		return "", err
	}
	c.value = strings.TrimRight(v, "\r\n")
	c.resolved = true
	return c.value, nil
}
