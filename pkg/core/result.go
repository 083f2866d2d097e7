package core

import "time"

// CaseResult captures the outcome of one scenario case.
type CaseResult struct {
	Name     string        `json:"name"`            // Report key: test_01_check_logo
	Title    string        `json:"title,omitempty"` // Human-readable title
	Status   TestStatus    `json:"status"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// RunResult captures the outcome of one scenario run.
type RunResult struct {
	Scenario string        `json:"scenario"`
	Status   TestStatus    `json:"status"` // Worst status of setup and cases
	Duration time.Duration `json:"duration"`
	SetupErr error         `json:"-"` // Set when the scenario setup failed
	Cases    []CaseResult  `json:"cases"`
}

// OK reports whether nothing failed.
func (r *RunResult) OK() bool {
	return !r.Status.IsFailure()
}

// Counts returns the number of cases per status.
func (r *RunResult) Counts() map[TestStatus]int {
	counts := map[TestStatus]int{}
	for _, c := range r.Cases {
		counts[c.Status]++
	}
	return counts
}
