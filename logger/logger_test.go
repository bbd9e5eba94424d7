package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromZap_WithCarriesFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core)).Named("player").With(zap.String("device", "default"))

	l.Info("output opened", zap.Int("rate", 44100))
	l.Debug("tick")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("logged %d entries, want 2", len(entries))
	}
	first := entries[0]
	if first.LoggerName != "player" {
		t.Errorf("LoggerName = %q, want %q", first.LoggerName, "player")
	}
	fields := first.ContextMap()
	if fields["device"] != "default" {
		t.Errorf("device field = %v, want default", fields["device"])
	}
	if fields["rate"] != int64(44100) {
		t.Errorf("rate field = %v, want 44100", fields["rate"])
	}
}

func TestNewFile_WritesToPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "vplayer.log")
	l, err := NewFile(path, false)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	l.Warn("device lost", zap.String("device", "usb"))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "device lost") {
		t.Errorf("log file = %q, want it to contain the message", data)
	}
}

func TestNop(t *testing.T) {
	t.Parallel()

	l := Nop()
	l.Error("ignored")
	if l.Zap() == nil {
		t.Fatal("Nop().Zap() = nil")
	}
}
