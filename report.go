package xdpready

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Report is the ordered list of stage outcomes of one run.
type Report struct {
	// Backend names where the commands ran ("local", "ssh://host:22").
	Backend  string
	Outcomes []CheckOutcome
}

func (r *Report) add(o CheckOutcome) {
	r.Outcomes = append(r.Outcomes, o)
}

// Failures returns the number of failed stages.
func (r *Report) Failures() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.Passed() {
			n++
		}
	}
	return n
}

// Errors returns the failure of every failed stage, in execution order.
func (r *Report) Errors() []error {
	var errs []error
	for _, o := range r.Outcomes {
		if !o.Passed() {
			errs = append(errs, o.Err)
		}
	}
	return errs
}

// Outcome returns the outcome of the named stage.
func (r *Report) Outcome(stage string) (CheckOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.Stage == stage {
			return o, true
		}
	}
	return CheckOutcome{}, false
}

// Print writes the aggregated error block and the failure count.
func (r *Report) Print(c *Console) {
	errs := r.Errors()
	if len(errs) > 0 {
		c.Alert("Error List")
	}
	for _, err := range errs {
		c.Error(err)
	}
	fmt.Fprintln(c.Writer())
	c.Infof("Operating system analysis complete.")
	c.Infof("Total errors: %s", c.Count(len(errs)))
}

// String returns a plain-text summary of all outcomes.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Backend: %s\n\n", r.Backend)
	for _, o := range r.Outcomes {
		writeOutcome(&b, o)
	}
	fmt.Fprintf(&b, "\nTotal errors: %d\n", r.Failures())
	return b.String()
}

func writeOutcome(b *strings.Builder, o CheckOutcome) {
	status := "ok"
	if !o.Passed() {
		status = "not ok"
	}
	if o.Err != nil {
		fmt.Fprintf(b, "%s: %s (%s)\n", o.Stage, status, strings.ReplaceAll(o.Err.Error(), "\n", " "))
	} else {
		fmt.Fprintf(b, "%s: %s\n", o.Stage, status)
	}
}

type jsonOutcome struct {
	Stage  string `json:"stage"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// MarshalJSON renders the report for machine consumption.
func (r *Report) MarshalJSON() ([]byte, error) {
	out := struct {
		Backend  string        `json:"backend"`
		OK       bool          `json:"ok"`
		Failures int           `json:"failures"`
		Outcomes []jsonOutcome `json:"outcomes"`
	}{
		Backend:  r.Backend,
		OK:       r.Failures() == 0,
		Failures: r.Failures(),
		Outcomes: make([]jsonOutcome, 0, len(r.Outcomes)),
	}
	for _, o := range r.Outcomes {
		jo := jsonOutcome{Stage: o.Stage, Status: o.Status.String()}
		if o.Err != nil {
			jo.Error = o.Err.Error()
		}
		out.Outcomes = append(out.Outcomes, jo)
	}
	return json.Marshal(out)
}
