// SPDX-License-Identifier: Apache-2.0
package telemetry

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	cerrors "github.com/jllopis/cabildo/pkg/errors"
)

func TestConfigureSlogJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, "debug", "json")

	logger.Debug("consensus round started", "session_id", "sess-1")

	out := buf.String()
	if !strings.Contains(out, `"msg":"consensus round started"`) {
		t.Errorf("expected JSON log output, got %q", out)
	}
	if !strings.Contains(out, `"session_id":"sess-1"`) {
		t.Errorf("expected session_id attribute, got %q", out)
	}
}

func TestConfigureSlogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, "warn", "text")

	logger.Info("should be filtered")
	logger.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should be filtered") {
		t.Errorf("info log should have been filtered at warn level")
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("warn log missing from output")
	}
}

func TestConfigureSlogSessionContext(t *testing.T) {
	var buf bytes.Buffer
	logger := ConfigureSlog(&buf, "info", "json")

	ctx := ContextWithSession(context.Background(), "sess-9")
	logger.InfoContext(ctx, "broadcast sent")
	logger.Info("no session here")

	lines := strings.SplitN(strings.TrimSpace(buf.String()), "\n", 2)
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %q", buf.String())
	}
	if !strings.Contains(lines[0], `"session_id":"sess-9"`) {
		t.Errorf("expected session_id on tagged context, got %q", lines[0])
	}
	if strings.Contains(lines[1], "session_id") {
		t.Errorf("expected no session_id without tagged context, got %q", lines[1])
	}
}

func TestSessionFromContext(t *testing.T) {
	if got := SessionFromContext(context.Background()); got != "" {
		t.Errorf("expected empty session for untagged context, got %q", got)
	}
	ctx := ContextWithSession(context.Background(), "sess-1")
	if got := SessionFromContext(ctx); got != "sess-1" {
		t.Errorf("expected sess-1, got %q", got)
	}
	// Empty ids are not stored.
	if got := SessionFromContext(ContextWithSession(context.Background(), "")); got != "" {
		t.Errorf("expected empty session for empty tag, got %q", got)
	}
}

func TestSamplerFor(t *testing.T) {
	for _, ratio := range []float64{0, 1, -0.5, 2} {
		if desc := samplerFor(ratio).Description(); !strings.Contains(desc, "AlwaysOn") {
			t.Errorf("ratio %v: expected always-on sampler, got %s", ratio, desc)
		}
	}
	desc := samplerFor(0.25).Description()
	if !strings.Contains(desc, "ParentBased") || !strings.Contains(desc, "TraceIDRatioBased") {
		t.Errorf("expected parent-based ratio sampler, got %s", desc)
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   "DEBUG",
		"warn":    "WARN",
		"warning": "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"bogus":   "INFO",
	}
	for in, want := range cases {
		if got := parseLogLevel(in).String(); got != want {
			t.Errorf("parseLogLevel(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestCoordinationMetrics(t *testing.T) {
	cm, err := NewCoordinationMetrics()
	if err != nil {
		t.Fatalf("NewCoordinationMetrics: %v", err)
	}

	ctx := context.Background()
	// Recording against the global (no-op by default) meter must not panic.
	cm.RecordSessionCreated(ctx, "development")
	cm.RecordContribution(ctx, "Security")
	cm.RecordConsensusRound(ctx, "MAJOR", "unanimous_support", true, 12)
	cm.RecordMessage(ctx, "ALERT", "CRITICAL", true)
	cm.RecordError(ctx, cerrors.New(cerrors.CodeStoreFailure, "boom", nil), "consensus")
	cm.RecordError(ctx, errors.New("plain"), "consensus")

	var nilMetrics *CoordinationMetrics
	nilMetrics.RecordSessionCreated(ctx, "development") // nil receiver is a no-op
}

func TestInitStdout(t *testing.T) {
	shutdown, err := Init("cabildo-test", "0.0.1")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitWithEnvironment(t *testing.T) {
	shutdown, err := InitWithConfig("cabildo-test", "0.0.1", Config{
		Environment: "staging",
		SampleRatio: 0.5,
	})
	if err != nil {
		t.Fatalf("InitWithConfig: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitWithConfigUnknownExporter(t *testing.T) {
	_, err := InitWithConfig("cabildo-test", "0.0.1", Config{Exporter: "carrier-pigeon"})
	if err == nil {
		t.Fatalf("expected error for unknown exporter")
	}
}

func TestInitOTLPRequiresEndpoint(t *testing.T) {
	_, err := InitWithConfig("cabildo-test", "0.0.1", Config{Exporter: "otlp"})
	if err == nil {
		t.Fatalf("expected error when otlp endpoint missing")
	}
}
