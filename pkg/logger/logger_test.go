package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerWriterText(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf, false); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Get().Info(context.Background(), "model trained",
		String("model_id", "abc"),
		Float64("r2", 0.5),
		Duration("took", time.Second),
		Bool("degenerate", false),
	)

	out := buf.String()
	for _, want := range []string{"model trained", "model_id=abc", "r2=0.5", "degenerate=false", "source="} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q does not contain %q", out, want)
		}
	}
}

func TestLoggerWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf, true); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Named("trainer").Warn(context.Background(), "degenerate corpus", Int("samples", 10))

	out := buf.String()
	if !strings.HasPrefix(out, "{") {
		t.Fatalf("expected JSON record, got %q", out)
	}
	if !strings.Contains(out, `"component":"trainer"`) {
		t.Errorf("expected component attribute, got %q", out)
	}
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf, false); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	if err := SetLevelString("warn"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = SetLevelString("info") }()

	Get().Info(context.Background(), "hidden")
	Get().Warn(context.Background(), "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn record missing: %q", out)
	}

	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLoggerWriterNil(t *testing.T) {
	if err := InitWithWriter(nil, false); err == nil {
		t.Fatal("expected error for nil writer")
	}
}
