package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewFallsBackToInfo(t *testing.T) {
	logger := New(Options{Level: "chatty"})
	if logger.GetLevel() != logrus.InfoLevel {
		t.Fatalf("level %s", logger.GetLevel())
	}
}

func TestNewWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.log")
	logger := New(Options{Level: "debug", File: path})
	logger.WithField("bill_id", "b-1").Debug("Reminder sent")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"bill_id":"b-1"`) {
		t.Fatalf("log line missing: %s", data)
	}
}
