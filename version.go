package xdpready

import (
	"fmt"
	"strconv"
	"strings"
)

// MinKernelVersion is the oldest kernel release able to run the
// generated XDP programs.
const MinKernelVersion = "5.17.0"

// Version is a major.minor.patch kernel version.
type Version [3]int

// ParseVersion parses a kernel release such as "6.5.0-14-generic".
// Everything after the first hyphen is ignored and missing components
// count as zero ("6.5" is 6.5.0).
func ParseVersion(s string) (Version, error) {
	var v Version

	numeric, _, _ := strings.Cut(strings.TrimSpace(s), "-")
	if numeric == "" {
		return v, fmt.Errorf("parse version %q: empty", s)
	}

	parts := strings.Split(numeric, ".")
	for i := 0; i < len(v) && i < len(parts); i++ {
		// Some distributions append letters ("6.1.0+"); keep the leading digits.
		digits := leadingDigits(parts[i])
		if digits == "" {
			return v, fmt.Errorf("parse version %q: component %d is not numeric", s, i+1)
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			return v, fmt.Errorf("parse version %q: %w", s, err)
		}
		v[i] = n
	}
	return v, nil
}

func leadingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}

// Compare returns -1, 0 or +1 depending on whether v is lower than,
// equal to, or greater than w.
func (v Version) Compare(w Version) int {
	for i := range v {
		switch {
		case v[i] > w[i]:
			return 1
		case v[i] < w[i]:
			return -1
		}
	}
	return 0
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v[0], v[1], v[2])
}

// CheckKernelVersion returns an *[IncompatibleKernelVersionError] if
// release is older than minimum. Equal versions are compatible.
func CheckKernelVersion(release, minimum string) error {
	floor, err := ParseVersion(minimum)
	if err != nil {
		return fmt.Errorf("minimum kernel version: %w", err)
	}
	actual, err := ParseVersion(release)
	if err != nil {
		return fmt.Errorf("kernel version: %w", err)
	}
	if actual.Compare(floor) < 0 {
		return &IncompatibleKernelVersionError{
			Actual:  strings.TrimSpace(release),
			Minimum: minimum,
		}
	}
	return nil
}
