package config

import (
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"testing"
)

func resetCrashOutput(t *testing.T) {
	t.Cleanup(func() {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
	})
}

func TestLoggingConfig_Prepare_File(t *testing.T) {
	resetCrashOutput(t)
	dest := filepath.Join(t.TempDir(), "svgdx.log")
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "normal", Destination: dest, Mode: "overwrite"},
	}

	log, err := conf.Prepare(nil)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	log.Debug("hidden message")
	log.Info("visible message")
	_ = log.Sync()

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "visible message") {
		t.Errorf("log = %q, want it to contain the info message", data)
	}
	if strings.Contains(string(data), "hidden message") {
		t.Errorf("log = %q, want debug message filtered", data)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dest), "svgdx-panic.log")); err != nil {
		t.Errorf("panic log was not created: %v", err)
	}
}

func TestLoggingConfig_Prepare_Append(t *testing.T) {
	resetCrashOutput(t)
	dest := filepath.Join(t.TempDir(), "svgdx.log")
	if err := os.WriteFile(dest, []byte("previous run\n"), 0644); err != nil {
		t.Fatal(err)
	}
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "debug", Destination: dest, Mode: "append"},
	}

	log, err := conf.Prepare(nil)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	log.Debug("next run")
	_ = log.Sync()

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.HasPrefix(string(data), "previous run\n") || !strings.Contains(string(data), "next run") {
		t.Errorf("log = %q, want appended output", data)
	}
}

func TestLoggingConfig_Prepare_ReportForcesDebug(t *testing.T) {
	resetCrashOutput(t)
	tmpDir := t.TempDir()
	dest := filepath.Join(tmpDir, "svgdx.log")
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "none", Destination: dest},
	}
	rpt := &Report{entries: make(map[string]entry)}

	log, err := conf.Prepare(rpt)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	log.Debug("debug message")
	_ = log.Sync()

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "debug message") {
		t.Errorf("log = %q, want debug output when report is requested", data)
	}
	if e, ok := rpt.entries["final.log"]; !ok || e.origin != dest {
		t.Errorf("report final.log = %q, want %q", e.origin, dest)
	}
	if _, ok := rpt.entries["panic.log"]; !ok {
		t.Error("report misses panic.log")
	}
}

func TestLoggingConfig_Prepare_NoFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "svgdx.log")
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "normal"},
		FileLogger:    LoggerConfig{Level: "none", Destination: dest},
	}

	log, err := conf.Prepare(nil)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if log.Name() != "svgdx" {
		t.Errorf("Name() = %q, want %q", log.Name(), "svgdx")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Errorf("file log created with level none: %v", err)
	}
}
