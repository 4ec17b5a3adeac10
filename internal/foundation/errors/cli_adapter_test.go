package errors

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad").Build(), 2},
		{"not found", NotFoundError("missing").Build(), 3},
		{"config", ConfigError("bad config").Build(), 7},
		{"theme", ThemeError("unknown theme").Build(), 7},
		{"network", NetworkError("nats").Build(), 8},
		{"internal", InternalError("boom").Build(), 10},
		{"render", RenderError("render failed").Build(), 11},
		{"runtime", RuntimeError("listen").Build(), 12},
		{"unclassified", &customError{msg: "unknown error"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, slog.Default())
	verbose := NewCLIErrorAdapter(true, slog.Default())

	if got := quiet.FormatError(nil); got != "" {
		t.Errorf("FormatError(nil) = %q, want empty", got)
	}
	if got := quiet.FormatError(InternalError("internal issue").Build()); got != "Internal error occurred (use -v for details)" {
		t.Errorf("unexpected internal message: %q", got)
	}
	if got := quiet.FormatError(ConfigError("base_path must start with /").Build()); got != "Error: base_path must start with /" {
		t.Errorf("unexpected config message: %q", got)
	}
	if got := verbose.FormatError(InternalError("internal issue").Build()); !strings.Contains(got, "[internal:fatal]") {
		t.Errorf("verbose output should carry classification, got %q", got)
	}
	if got := quiet.FormatError(&customError{msg: "unknown error"}); got != "Error: unknown error" {
		t.Errorf("unexpected unclassified message: %q", got)
	}
}

func TestCLIErrorAdapter_Report(t *testing.T) {
	var logs, out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out

	code := adapter.Report(BuildError("export failed").WithContext("stage", "render").Build())
	if code != 11 {
		t.Fatalf("expected exit code 11, got %d", code)
	}
	if !strings.Contains(out.String(), "export failed") {
		t.Errorf("expected user message, got %q", out.String())
	}
	if !strings.Contains(logs.String(), "stage=render") {
		t.Errorf("expected context in log output, got %q", logs.String())
	}
}

type customError struct {
	msg string
}

func (e *customError) Error() string {
	return e.msg
}
