// SPDX-License-Identifier: Apache-2.0
package errors

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("disk full")
	ce := New(CodeStoreFailure, "insert session failed", cause)

	if ce.Code != CodeStoreFailure {
		t.Errorf("expected CodeStoreFailure, got %v", ce.Code)
	}
	if ce.Message != "insert session failed" {
		t.Errorf("expected message 'insert session failed', got %q", ce.Message)
	}
	if ce.Err != cause {
		t.Errorf("expected cause to be preserved")
	}
	if !errors.Is(ce, cause) {
		t.Errorf("expected errors.Is to work with wrapped error")
	}
}

func TestWithContext(t *testing.T) {
	ce := New(CodeNotFound, "session not found", nil)
	ce.WithContext("session_id", "sess-42").
		WithContext("operation", "get")

	if ce.Context["session_id"] != "sess-42" {
		t.Errorf("expected context session_id to be 'sess-42'")
	}
	if ce.Context["operation"] != "get" {
		t.Errorf("expected context operation to be set")
	}
}

func TestWithAttribute(t *testing.T) {
	ce := New(CodeInvalidInput, "unknown decision category", nil)
	ce.WithAttribute("category", "URGENT").
		WithAttribute("topic", "rollout")

	if ce.Attributes["category"] != "URGENT" {
		t.Errorf("expected attribute category")
	}
	if ce.Attributes["topic"] != "rollout" {
		t.Errorf("expected attribute topic")
	}
}

func TestWithRecoverable(t *testing.T) {
	ce := New(CodeStoreFailure, "transient store error", nil)
	if ce.Recoverable {
		t.Errorf("expected recoverable to be false by default")
	}
	ce.WithRecoverable(true)
	if !ce.Recoverable {
		t.Errorf("expected recoverable to be true after WithRecoverable")
	}
	if ce.RecoverableString() != "true" {
		t.Errorf("expected RecoverableString 'true'")
	}
}

func TestStatusCodes(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{CodeNotFound, 404},
		{CodeInvalidInput, 400},
		{CodeTimeout, 408},
		{CodeStoreFailure, 502},
		{CodeInternal, 500},
	}
	for _, tc := range cases {
		if got := New(tc.code, "x", nil).StatusCode; got != tc.want {
			t.Errorf("status for %s: expected %d, got %d", tc.code, tc.want, got)
		}
	}
}

func TestAsCabildoError(t *testing.T) {
	ce := New(CodeNotFound, "missing", nil)
	if AsCabildoError(ce) != ce {
		t.Errorf("expected identity conversion for CabildoError")
	}
	wrapped := AsCabildoError(errors.New("plain"))
	if wrapped.Code != CodeInternal {
		t.Errorf("expected plain error wrapped as internal, got %v", wrapped.Code)
	}
	if AsCabildoError(nil) != nil {
		t.Errorf("expected nil for nil error")
	}
}

func TestMarshalJSON(t *testing.T) {
	ce := New(CodeInvalidInput, "bad category", errors.New("boom"))
	data, err := json.Marshal(ce)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["code"] != string(CodeInvalidInput) {
		t.Errorf("expected code in JSON, got %v", out["code"])
	}
}
