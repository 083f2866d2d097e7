package config

import (
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
)

func TestGetHome_EnvVar(t *testing.T) {
	ResetHome()
	t.Setenv("MOBILE_QA_HOME", "/custom/path")

	got := GetHome()
	if got != "/custom/path" {
		t.Errorf("GetHome() = %q, want %q", got, "/custom/path")
	}
}

func TestGetHome_EnvVarTilde(t *testing.T) {
	ResetHome()
	t.Setenv("MOBILE_QA_HOME", "~/suite")

	want, err := homedir.Expand("~/suite")
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	if got := GetHome(); got != want {
		t.Errorf("GetHome() = %q, want %q", got, want)
	}
}

func TestGetHome_FallbackToCwd(t *testing.T) {
	ResetHome()
	t.Setenv("MOBILE_QA_HOME", "")

	if got := GetHome(); got == "" {
		t.Error("GetHome() returned empty string")
	}
}

func TestGetHome_Cached(t *testing.T) {
	ResetHome()
	t.Setenv("MOBILE_QA_HOME", "/first")

	first := GetHome()

	// Changing env must not affect the cached value
	t.Setenv("MOBILE_QA_HOME", "/second")
	second := GetHome()

	if first != second {
		t.Errorf("GetHome() not cached: first=%q, second=%q", first, second)
	}
}

func TestGetConfigAndAppDir(t *testing.T) {
	ResetHome()
	t.Setenv("MOBILE_QA_HOME", "/suite")

	if got := GetConfigDir(); got != filepath.Join("/suite", "configuration") {
		t.Errorf("GetConfigDir() = %q", got)
	}
	if got := GetAppDir(); got != filepath.Join("/suite", "test_apps") {
		t.Errorf("GetAppDir() = %q", got)
	}
}

func TestExpandPath(t *testing.T) {
	ResetHome()
	t.Setenv("MOBILE_QA_HOME", "/suite")

	tests := []struct {
		in, fallback, want string
	}{
		{"", "/default", "/default"},
		{"/abs/dir", "", "/abs/dir"},
		{"rel/dir", "", filepath.Join("/suite", "rel/dir")},
	}
	for _, tt := range tests {
		got, err := ExpandPath(tt.in, tt.fallback)
		if err != nil {
			t.Fatalf("ExpandPath(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
