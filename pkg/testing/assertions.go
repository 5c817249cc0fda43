// Copyright 2026 © The Cabildo Authors
// SPDX-License-Identifier: Apache-2.0

package testing

import (
	"strings"
	"testing"
)

// Assertions provides assertion helpers for testing.
type Assertions struct {
	t      *testing.T
	failed bool
}

// NewAssertions creates a new assertions helper.
func NewAssertions(t *testing.T) *Assertions {
	return &Assertions{t: t}
}

// Failed returns true if any assertion has failed.
func (a *Assertions) Failed() bool {
	return a.failed
}

// AssertEqual asserts that two values are equal.
func (a *Assertions) AssertEqual(expected, actual any, msg string) {
	a.t.Helper()
	if expected != actual {
		a.t.Errorf("%s: expected %v, got %v", msg, expected, actual)
		a.failed = true
	}
}

// AssertNotEqual asserts that two values are not equal.
func (a *Assertions) AssertNotEqual(expected, actual any, msg string) {
	a.t.Helper()
	if expected == actual {
		a.t.Errorf("%s: expected not %v, got %v", msg, expected, actual)
		a.failed = true
	}
}

// AssertTrue asserts that the value is true.
func (a *Assertions) AssertTrue(value bool, msg string) {
	a.t.Helper()
	if !value {
		a.t.Errorf("%s: expected true", msg)
		a.failed = true
	}
}

// AssertFalse asserts that the value is false.
func (a *Assertions) AssertFalse(value bool, msg string) {
	a.t.Helper()
	if value {
		a.t.Errorf("%s: expected false", msg)
		a.failed = true
	}
}

// AssertContains asserts that the string contains the substring.
func (a *Assertions) AssertContains(s, substr, msg string) {
	a.t.Helper()
	if !strings.Contains(s, substr) {
		a.t.Errorf("%s: %q does not contain %q", msg, s, substr)
		a.failed = true
	}
}

// AssertError asserts that the error is not nil.
func (a *Assertions) AssertError(err error, msg string) {
	a.t.Helper()
	if err == nil {
		a.t.Errorf("%s: expected error, got nil", msg)
		a.failed = true
	}
}

// AssertNoError asserts that the error is nil.
func (a *Assertions) AssertNoError(err error, msg string) {
	a.t.Helper()
	if err != nil {
		a.t.Errorf("%s: unexpected error: %v", msg, err)
		a.failed = true
	}
}

// AssertErrorContains asserts that the error message contains the substring.
func (a *Assertions) AssertErrorContains(err error, substr, msg string) {
	a.t.Helper()
	if err == nil {
		a.t.Errorf("%s: expected error containing %q, got nil", msg, substr)
		a.failed = true
		return
	}
	if !strings.Contains(err.Error(), substr) {
		a.t.Errorf("%s: error %q does not contain %q", msg, err.Error(), substr)
		a.failed = true
	}
}

// AssertLen asserts the length of a string, slice, or map.
func (a *Assertions) AssertLen(value any, expected int, msg string) {
	a.t.Helper()
	var length int
	switch v := value.(type) {
	case string:
		length = len(v)
	case []any:
		length = len(v)
	case []string:
		length = len(v)
	case map[string]any:
		length = len(v)
	case map[string]int:
		length = len(v)
	default:
		a.t.Errorf("%s: cannot get length of %T", msg, value)
		a.failed = true
		return
	}
	if length != expected {
		a.t.Errorf("%s: expected length %d, got %d", msg, expected, length)
		a.failed = true
	}
}
