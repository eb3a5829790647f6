package validation

import "strings"

// Result is the outcome of one validation call. It is always returned;
// callers branch on Valid.
type Result struct {
	Valid  bool
	Errors []string
	Input  any
}

func newResult(input any, errs []string) Result {
	if errs == nil {
		errs = []string{}
	}
	return Result{Valid: len(errs) == 0, Errors: errs, Input: input}
}

// Err returns nil for a valid result and a *Error carrying every message
// otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &Error{Messages: append([]string(nil), r.Errors...)}
}

// Error is the error form of a failed Result.
type Error struct {
	Messages []string
}

func (e *Error) Error() string {
	if e == nil || len(e.Messages) == 0 {
		return "validation failed"
	}
	return FormatErrors(e.Messages)
}

// FormatErrors joins messages for single-line display.
func FormatErrors(errs []string) string {
	return strings.Join(errs, "; ")
}
