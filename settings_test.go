package shaderbox

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSettingsCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if s != DefaultSettings() {
		t.Errorf("first load = %+v, want defaults", s)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("settings file not created: %v", err)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")

	want := Settings{
		Resolution:   Resolution{Width: 640, Height: 480},
		SwapChain:    SwapChainSettings{BufferCount: 3, MaxFrameLatency: 2},
		MaxFrameRate: 120,
		Video:        VideoSettings{FrameRate: 30, BitRate: 4_000_000, EndFrame: 300},
	}
	if err := want.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if got != want {
		t.Errorf("LoadSettings = %+v, want %+v", got, want)
	}
}

func TestLoadSettingsRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, []byte("not = [toml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSettings(path); err == nil {
		t.Error("garbage settings accepted")
	}
}
