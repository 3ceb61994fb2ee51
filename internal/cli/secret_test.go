package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSecretReader_NonTerminalInput(t *testing.T) {
	if secretReader(strings.NewReader("secret\n")) != nil {
		t.Error("expected no secret reader for piped input")
	}
	if secretReader(nil) != nil {
		t.Error("expected no secret reader without stdin")
	}

	f, err := os.Create(filepath.Join(t.TempDir(), "stdin"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if secretReader(f) != nil {
		t.Error("expected no secret reader for a regular file")
	}
}
