package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveLogFilePathDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWD) })
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	got, err := resolveLogFilePath(Options{})
	if err != nil {
		t.Fatalf("resolve default path failed: %v", err)
	}
	realTmp, err := filepath.EvalSymlinks(tmpDir)
	if err != nil {
		t.Fatalf("eval tmp dir failed: %v", err)
	}
	realDir, err := filepath.EvalSymlinks(filepath.Dir(got))
	if err != nil {
		t.Fatalf("eval log dir failed: %v", err)
	}
	if realDir != filepath.Join(realTmp, defaultDir) {
		t.Fatalf("unexpected log dir: %s", realDir)
	}
	if filepath.Base(got) != defaultFilename {
		t.Fatalf("unexpected log filename: %s", filepath.Base(got))
	}
}

func TestNewReleaseWritesJSONFile(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Dir: tmpDir, Filename: "api.log"})
	log.Sugar().Infow("order_placed", "order_code", "ORD-20260101-ABC123")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "api.log"))
	if err != nil {
		t.Fatalf("read log failed: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, `"event":"order_placed"`) || !strings.Contains(text, "ORD-20260101-ABC123") {
		t.Fatalf("unexpected log content: %s", text)
	}
}

func TestNewDebugDoesNotWriteFile(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("debug", Options{Dir: tmpDir, Filename: "debug.log"})
	log.Info("debug_only")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(tmpDir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create a log file")
	}
}

func TestNewWriterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "warn")
	log.Info("ignored_event")
	log.Warn("kept_event")
	_ = log.Sync()

	if strings.Contains(buf.String(), "ignored_event") {
		t.Fatalf("info entry should be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "kept_event") {
		t.Fatalf("warn entry missing: %s", buf.String())
	}
}
