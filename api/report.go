package api

import (
	"errors"
	"fmt"
)

// StepStatus classifies the outcome of a single step of a multi-step action.
type StepStatus string

const (
	// StepOK means the step ran and succeeded.
	StepOK StepStatus = "ok"

	// StepSkipped means there was nothing to do, usually because the resource was already absent.
	StepSkipped StepStatus = "skipped"

	// StepFailed means the step ran and failed.
	StepFailed StepStatus = "failed"
)

// StepResult is the outcome of one step.
type StepResult struct {
	Step    string     `json:"step"    yaml:"step"`
	Status  StepStatus `json:"status"  yaml:"status"`
	Message string     `json:"message" yaml:"message,omitempty"`
	Err     error      `json:"-"       yaml:"-"`
}

// OK returns a successful StepResult.
func OK(step string, message string) StepResult {
	return StepResult{Step: step, Status: StepOK, Message: message}
}

// Skipped returns a StepResult for a step that had nothing to do.
func Skipped(step string, message string) StepResult {
	return StepResult{Step: step, Status: StepSkipped, Message: message}
}

// Failed returns a StepResult for a failed step.
func Failed(step string, err error) StepResult {
	return StepResult{Step: step, Status: StepFailed, Message: err.Error(), Err: err}
}

// Report aggregates the results of a best-effort action such as a removal.
type Report struct {
	Component string       `json:"component" yaml:"component"`
	Action    string       `json:"action"    yaml:"action"`
	Steps     []StepResult `json:"steps"     yaml:"steps"`
}

// NewReport returns an empty report for the given component and action.
func NewReport(component string, action string) *Report {
	return &Report{
		Component: component,
		Action:    action,
		Steps:     []StepResult{},
	}
}

// Add appends results to the report.
func (r *Report) Add(results ...StepResult) {
	r.Steps = append(r.Steps, results...)
}

// Count returns the number of steps with the given status.
func (r *Report) Count(status StepStatus) int {
	n := 0

	for _, s := range r.Steps {
		if s.Status == status {
			n++
		}
	}

	return n
}

// Failed reports whether any step failed.
func (r *Report) Failed() bool {
	return r.Count(StepFailed) > 0
}

// Err returns all step failures joined together, or nil.
func (r *Report) Err() error {
	errs := []error{}

	for _, s := range r.Steps {
		if s.Status != StepFailed {
			continue
		}

		errs = append(errs, fmt.Errorf("%s: %w", s.Step, s.Err))
	}

	return errors.Join(errs...)
}

// Summary returns a one line description of the report.
func (r *Report) Summary() string {
	return fmt.Sprintf("%s %s: %d ok, %d skipped, %d failed", r.Action, r.Component, r.Count(StepOK), r.Count(StepSkipped), r.Count(StepFailed))
}
