package merge

import "fmt"

// RowError describes one failed import row. Row failures never abort the batch.
type RowError struct {
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Kind, e.Name, e.Reason)
}

// Result accumulates the outcome of one import batch.
type Result struct {
	Inserted map[string]int `json:"inserted"`
	Updated  map[string]int `json:"updated"`
	Errors   []RowError     `json:"errors"`
}

// NewResult creates an empty result.
func NewResult() *Result {
	return &Result{
		Inserted: make(map[string]int),
		Updated:  make(map[string]int),
		Errors:   []RowError{},
	}
}

func (r *Result) addInserted(kind string) {
	r.Inserted[kind]++
}

func (r *Result) addUpdated(kind string) {
	r.Updated[kind]++
}

func (r *Result) addError(kind, name, reason string) {
	r.Errors = append(r.Errors, RowError{Kind: kind, Name: name, Reason: reason})
}

// TotalInserted sums inserts across kinds.
func (r *Result) TotalInserted() int {
	n := 0
	for _, v := range r.Inserted {
		n += v
	}
	return n
}

// TotalUpdated sums updates across kinds.
func (r *Result) TotalUpdated() int {
	n := 0
	for _, v := range r.Updated {
		n += v
	}
	return n
}
