package harness

import (
	"github.com/roach88/protoboard/internal/ir"
	"github.com/roach88/protoboard/internal/rules"
)

// StepTrace records what one step did.
type StepTrace struct {
	Index   int                `json:"index"`
	Kind    rules.MutationKind `json:"kind"`
	Version int64              `json:"version"`
	// Changed is false when the step was a policy or no-op rejection.
	Changed bool   `json:"changed"`
	Error   string `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every step behaved as expected and every assertion
	// held.
	Pass bool `json:"pass"`

	Steps []StepTrace `json:"steps"`

	// Errors holds step and assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Outline is ir.Outline of the final workspace.
	Outline string `json:"outline"`

	Workspace *ir.Workspace `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepTrace{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
