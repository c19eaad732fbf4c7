package xdpready

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Settings describe one diagnostic run. They are not modified once the
// run starts.
type Settings struct {
	// Host is the machine to diagnose. Empty or loopback means this machine.
	Host string `yaml:"hostname" json:"hostname,omitempty" validate:"omitempty,hostname_rfc1123|ip"`
	// Port is the SSH port. Zero means [DefaultSSHPort].
	Port int `yaml:"port" json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	// Username is the SSH user. It is prompted for when empty.
	Username string `yaml:"username" json:"username,omitempty"`
	// Interface is the network interface XDP programs will attach to.
	Interface string `yaml:"iface" json:"iface" validate:"required"`
	// SkipConfirmation disables every confirmation prompt.
	SkipConfirmation bool `yaml:"noconfirm" json:"noconfirm,omitempty"`

	// Family forces a package family instead of detecting it.
	Family FamilyKind `yaml:"family" json:"family,omitempty"`
	// KnownHosts is an OpenSSH known_hosts file used to verify the remote host.
	KnownHosts string `yaml:"known_hosts" json:"known_hosts,omitempty" validate:"omitempty,file"`
	// ProbeXDP adds a stage asking the local kernel whether it loads XDP programs.
	ProbeXDP bool `yaml:"probe_xdp" json:"probe_xdp,omitempty"`
}

// IsRemote reports whether the run targets another machine over SSH.
func (s Settings) IsRemote() bool {
	return !isLoopback(s.Host)
}

// SSHPort returns the configured port or [DefaultSSHPort].
func (s Settings) SSHPort() int {
	if s.Port == 0 {
		return DefaultSSHPort
	}
	return s.Port
}

func isLoopback(host string) bool {
	host = strings.Trim(strings.TrimSpace(host), "[]")
	if host == "" || strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s Settings) String() string {
	var b strings.Builder
	host := s.Host
	if host == "" {
		host = "localhost"
	}
	fmt.Fprintf(&b, "Hostname:  %s\n", host)
	if s.IsRemote() {
		fmt.Fprintf(&b, "Port:      %d\n", s.SSHPort())
		user := s.Username
		if user == "" {
			user = "(prompt)"
		}
		fmt.Fprintf(&b, "Username:  %s\n", user)
	}
	fmt.Fprintf(&b, "Interface: %s\n", s.Interface)
	fmt.Fprintf(&b, "Family:    %s\n", s.Family)
	return b.String()
}

var validate = validator.New()

// ValidationError is one invalid settings field.
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors collects every invalid settings field.
type ValidationErrors struct {
	Errors []ValidationError
}

func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return "invalid settings"
	}
	messages := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		messages[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return "invalid settings: " + strings.Join(messages, "; ")
}

// Validate checks the settings and returns *[ValidationErrors] if any
// field is invalid.
func (s Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &ValidationErrors{}
	for _, e := range fieldErrs {
		out.Errors = append(out.Errors, ValidationError{
			Field:   strings.ToLower(e.Field()),
			Message: validationMessage(e),
		})
	}
	return out
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "file":
		return fmt.Sprintf("file %q does not exist", e.Value())
	case "hostname_rfc1123|ip":
		return fmt.Sprintf("%q is neither a hostname nor an IP address", e.Value())
	default:
		return "failed on " + e.Tag()
	}
}

// settingsFile accepts both a flat document and one nesting the settings
// under an "init" key, as written by the program generator.
type settingsFile struct {
	Settings `yaml:",inline"`
	Init     *Settings `yaml:"init"`
}

// LoadSettings reads settings from a YAML or JSON file.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	var f settingsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Settings{}, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if f.Init != nil {
		return *f.Init, nil
	}
	return f.Settings, nil
}
