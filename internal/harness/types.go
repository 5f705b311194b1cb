package harness

import "github.com/roach88/dumpsplit/internal/engine"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion and invariant holds.
	Pass bool `json:"pass"`

	// Errors contains failed assertions and violated invariants.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Artifacts lists what the pass wrote, in close order.
	Artifacts []engine.Artifact `json:"artifacts"`

	// Files maps artifact path to content.
	Files map[string]string `json:"files"`

	// Diagnostics lists what the pass reported, in order.
	Diagnostics []engine.Diagnostic `json:"diagnostics"`

	Stats  engine.Stats `json:"stats"`
	Header []string     `json:"header"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:        true,
		Errors:      []string{},
		Artifacts:   []engine.Artifact{},
		Files:       map[string]string{},
		Diagnostics: []engine.Diagnostic{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
