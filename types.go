package xdpready

import (
	"fmt"
	"strings"
)

// Status is the verdict of a single diagnostic stage.
type Status int

const (
	// StatusPass means the stage found the host ready.
	StatusPass Status = iota
	// StatusFail means the stage found a problem (see CheckOutcome.Err).
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusFail:
		return "fail"
	default:
		return fmt.Sprintf("Status(%d)", s)
	}
}

// CheckOutcome is the immutable result of one stage.
type CheckOutcome struct {
	// Stage is the human-readable stage name (e.g. "Kernel Version").
	Stage string
	// Status is StatusPass or StatusFail.
	Status Status
	// Err describes the failure. It is nil when Status is StatusPass.
	Err error
}

// Passed reports whether the stage succeeded.
func (o CheckOutcome) Passed() bool {
	return o.Status == StatusPass
}

func pass(stage string) CheckOutcome {
	return CheckOutcome{Stage: stage, Status: StatusPass}
}

func fail(stage string, err error) CheckOutcome {
	return CheckOutcome{Stage: stage, Status: StatusFail, Err: err}
}

// outcomeOf converts a stage error into an outcome.
func outcomeOf(stage string, err error) CheckOutcome {
	if err != nil {
		return fail(stage, err)
	}
	return pass(stage)
}

// ConfigValue represents a kernel configuration option's state as
// reported by bpftool.
type ConfigValue int

const (
	// ConfigNotSet means the option is not set or not found.
	ConfigNotSet ConfigValue = iota
	// ConfigModule means the option is set to =m (module).
	ConfigModule
	// ConfigBuiltin means the option is set to =y (built-in).
	ConfigBuiltin
)

// IsEnabled returns true if the config option is set (either =m or =y).
func (v ConfigValue) IsEnabled() bool {
	return v == ConfigModule || v == ConfigBuiltin
}

// IsBuiltin returns true if the config option is built-in (=y).
func (v ConfigValue) IsBuiltin() bool {
	return v == ConfigBuiltin
}

func (v ConfigValue) String() string {
	switch v {
	case ConfigNotSet:
		return "not set"
	case ConfigModule:
		return "m"
	case ConfigBuiltin:
		return "y"
	default:
		return fmt.Sprintf("ConfigValue(%d)", v)
	}
}

// FamilyKind selects a package-management family.
type FamilyKind int

const (
	// FamilyAuto detects the family from the host identity.
	FamilyAuto FamilyKind = iota
	// FamilyApt is the apt/dpkg ecosystem (Ubuntu, Debian).
	FamilyApt
	// FamilyPacman is the pacman ecosystem (Arch Linux).
	FamilyPacman
)

var familyKindNames = map[FamilyKind]string{
	FamilyAuto:   "auto",
	FamilyApt:    "apt",
	FamilyPacman: "pacman",
}

func (k FamilyKind) String() string {
	if name, ok := familyKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("FamilyKind(%d)", k)
}

// FamilyKindValues returns every FamilyKind in declaration order.
func FamilyKindValues() []FamilyKind {
	return []FamilyKind{FamilyAuto, FamilyApt, FamilyPacman}
}

// FamilyKindNames returns the names of every FamilyKind in declaration order.
func FamilyKindNames() []string {
	values := FamilyKindValues()
	names := make([]string, 0, len(values))
	for _, v := range values {
		names = append(names, v.String())
	}
	return names
}

// MarshalText implements encoding.TextMarshaler.
func (k FamilyKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *FamilyKind) UnmarshalText(text []byte) error {
	parsed, err := ParseFamilyKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseFamilyKind parses a family name. The empty string means FamilyAuto.
func ParseFamilyKind(name string) (FamilyKind, error) {
	if name == "" {
		return FamilyAuto, nil
	}
	for k, n := range familyKindNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return k, nil
		}
	}
	return FamilyAuto, fmt.Errorf("unknown package family %q", name)
}
