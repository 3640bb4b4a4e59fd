package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type testConfig struct {
	Name  string `toml:"name"`
	Value int    `toml:"value"`
}

func loadTestConfig(path string) (testConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return testConfig{}, err
	}
	var cfg testConfig
	err = toml.Unmarshal(data, &cfg)
	return cfg, err
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func startWatcher(t *testing.T, content string, opts ...WatcherOption[testConfig]) (string, *Watcher[testConfig]) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bayled.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	opts = append([]WatcherOption[testConfig]{WithDebounce[testConfig](50 * time.Millisecond)}, opts...)
	w := NewConfigWatcher(path, loadTestConfig, newTestLogger(), opts...)
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := w.Stop(); err != nil {
			t.Errorf("Stop() error: %v", err)
		}
	})
	return path, w
}

func TestConfigWatcher_BasicReload(t *testing.T) {
	received := make(chan testConfig, 1)
	path, w := startWatcher(t, "name = \"initial\"\nvalue = 1\n")
	w.OnReload(func(cfg testConfig) {
		select {
		case received <- cfg:
		default:
		}
	})

	if err := os.WriteFile(path, []byte("name = \"updated\"\nvalue = 42\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-received:
		if cfg.Name != "updated" || cfg.Value != 42 {
			t.Errorf("got %+v, want name=updated, value=42", cfg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for config reload")
	}
}

func TestConfigWatcher_RenameOver(t *testing.T) {
	received := make(chan testConfig, 1)
	path, w := startWatcher(t, "name = \"initial\"\n")
	w.OnReload(func(cfg testConfig) {
		select {
		case received <- cfg:
		default:
		}
	})

	tmp := path + ".swp"
	if err := os.WriteFile(tmp, []byte("name = \"renamed\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-received:
		if cfg.Name != "renamed" {
			t.Errorf("Name = %q, want renamed", cfg.Name)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reload after rename")
	}
}

func TestConfigWatcher_IgnoresOtherFiles(t *testing.T) {
	var calls atomic.Int32
	path, w := startWatcher(t, "name = \"initial\"\n")
	w.OnReload(func(testConfig) { calls.Add(1) })

	other := filepath.Join(filepath.Dir(path), "other.toml")
	if err := os.WriteFile(other, []byte("name = \"x\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(200 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("handler called %d times for an unrelated file", n)
	}
}

func TestConfigWatcher_Debounce(t *testing.T) {
	var calls atomic.Int32
	last := make(chan testConfig, 10)
	path, w := startWatcher(t, "value = 0\n", WithDebounce[testConfig](150*time.Millisecond))
	w.OnReload(func(cfg testConfig) {
		calls.Add(1)
		last <- cfg
	})

	for i := 1; i <= 5; i++ {
		content := []byte("value = " + string(rune('0'+i)) + "\n")
		if err := os.WriteFile(path, content, 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case cfg := <-last:
		if cfg.Value != 5 {
			t.Errorf("Value = %d, want 5", cfg.Value)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for debounced reload")
	}

	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("handler called %d times, want 1", n)
	}
}

func TestConfigWatcher_Unsubscribe(t *testing.T) {
	var kept, removed atomic.Int32
	done := make(chan struct{}, 1)
	path, w := startWatcher(t, "value = 1\n")

	unsubscribe := w.OnReload(func(testConfig) { removed.Add(1) })
	w.OnReload(func(testConfig) {
		kept.Add(1)
		select {
		case done <- struct{}{}:
		default:
		}
	})
	unsubscribe()

	if err := os.WriteFile(path, []byte("value = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reload")
	}
	if removed.Load() != 0 {
		t.Error("unsubscribed handler was called")
	}
	if kept.Load() == 0 {
		t.Error("kept handler was not called")
	}
}

func TestConfigWatcher_ErrorHandler(t *testing.T) {
	errs := make(chan error, 1)
	var calls atomic.Int32
	path, w := startWatcher(t, "value = 1\n", WithErrorHandler[testConfig](func(err error) {
		select {
		case errs <- err:
		default:
		}
	}))
	w.OnReload(func(testConfig) { calls.Add(1) })

	if err := os.WriteFile(path, []byte("value = [\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-errs:
		if err == nil {
			t.Error("error handler got nil")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for error handler")
	}
	if calls.Load() != 0 {
		t.Error("reload handler should not run when loading fails")
	}
}

func TestConfigWatcher_StopTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bayled.toml")
	if err := os.WriteFile(path, []byte("value = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := NewConfigWatcher(path, loadTestConfig, newTestLogger())
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error: %v", err)
	}
}

func TestConfigWatcher_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "bayled.toml")
	w := NewConfigWatcher(path, loadTestConfig, newTestLogger())
	if err := w.Start(); err == nil {
		_ = w.Stop()
		t.Fatal("Start() should fail when the directory is missing")
	}
}

func TestConfigWatcher_WithOptionsLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bayled.toml")
	if err := os.WriteFile(path, []byte("[logging]\nlevel = \"info\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	levels := make(chan string, 1)
	w := NewConfigWatcher(path, Load, newTestLogger(), WithDebounce[Options](50*time.Millisecond))
	w.OnReload(func(o Options) {
		select {
		case levels <- o.LoggingLevel:
		default:
		}
	})
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("[logging]\nlevel = \"debug\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case level := <-levels:
		if level != "debug" {
			t.Errorf("level = %q, want debug", level)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reload")
	}
}

