package xdpready

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseConfirmation(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"", true},
		{"y", true},
		{"Y", true},
		{"yes", true},
		{" YES \n", true},
		{"n", false},
		{"no", false},
		{"nope", false},
		{"yep", false},
		{"ja", false},
	}
	for _, tt := range tests {
		if got := ParseConfirmation(tt.answer); got != tt.want {
			t.Errorf("ParseConfirmation(%q) = %v, want %v", tt.answer, got, tt.want)
		}
	}
}

func TestTerminalPrompter(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("\nn\n  alice  \nhunter2\r\n"), &out)

	ok, err := p.Confirm("Proceed")
	if err != nil || !ok {
		t.Fatalf("Confirm() = %v, %v; want true", ok, err)
	}
	ok, err = p.Confirm("Install")
	if err != nil || ok {
		t.Fatalf("Confirm() = %v, %v; want false", ok, err)
	}
	user, err := p.Line("Username")
	if err != nil || user != "alice" {
		t.Fatalf("Line() = %q, %v", user, err)
	}
	secret, err := p.Secret("Password")
	if err != nil || secret != "hunter2" {
		t.Fatalf("Secret() = %q, %v", secret, err)
	}

	want := "Proceed? [Y/n] Install? [Y/n] Username: Password: "
	if out.String() != want {
		t.Errorf("prompts = %q, want %q", out.String(), want)
	}
}

func TestTerminalPrompter_EOF(t *testing.T) {
	p := NewPrompter(strings.NewReader("yes"), &bytes.Buffer{})
	ok, err := p.Confirm("Proceed")
	if err != nil || !ok {
		t.Fatalf("Confirm() without trailing newline = %v, %v", ok, err)
	}
	if _, err := p.Confirm("Again"); err == nil {
		t.Error("Confirm() on exhausted input = nil error")
	}
}
