package logger

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
)

func TestLevelsWriteToOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		InfoLogger.SetOutput(os.Stdout)
		WarnLogger.SetOutput(os.Stdout)
		ErrorLogger.SetOutput(os.Stderr)
	})

	Info("stock of %d at %d", 7, 3)
	Warn("low stock")
	Error("save invoice %d", errors.New("disk full"), 12)
	Error("no cause", nil)

	out := buf.String()
	for _, want := range []string{
		"INFO: ", "stock of 7 at 3",
		"WARN: ", "low stock",
		"ERROR: ", "save invoice 12: disk full",
		"no cause",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSetOutputDiscard(t *testing.T) {
	SetOutput(io.Discard)
	defer SetOutput(os.Stdout)
	Info("ignored")
}
