// Package validator provides rule-based input validation. Rules are plain
// values combined with Apply, which evaluates all of them and returns a
// ValidationErrors collection so callers can reject malformed input with
// every field failure reported at once, before any store call happens.
package validator
