package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"mediaforge/internal/config"
	"mediaforge/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckTenor_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/featured" || r.URL.Query().Get("key") != "good-key" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	result := CheckTenor(context.Background(), srv.URL+"/v2/", "good-key")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckTenor_BadKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	result := CheckTenor(context.Background(), srv.URL, "bad-key")
	if result.Passed {
		t.Fatal("expected failure for bad key")
	}
	if result.Detail != "rejected: API key not valid" {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckTenor_MissingKey(t *testing.T) {
	if CheckTenor(context.Background(), "http://localhost", "").Passed {
		t.Fatal("expected failure for missing key")
	}
}

func TestCheckDiscord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bot good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":"1","username":"mediaforge"}`))
	}))
	defer srv.Close()

	result := CheckDiscord(context.Background(), srv.URL, "good-token")
	if !result.Passed || result.Detail != "authenticated as mediaforge" {
		t.Fatalf("expected pass, got: %+v", result)
	}
	if CheckDiscord(context.Background(), srv.URL, "bad").Passed {
		t.Fatal("expected failure for bad token")
	}
	if CheckDiscord(context.Background(), srv.URL, " ").Passed {
		t.Fatal("expected failure for missing token")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.TempDir = t.TempDir()
	cfg.Tenor.APIKey = ""
	cfg.Discord.Token = ""

	results := RunAll(context.Background(), &cfg)
	if len(results) != 1 {
		t.Fatalf("expected only the temp dir check, got %d", len(results))
	}
	if !results[0].Passed {
		t.Errorf("check %q failed: %s", results[0].Name, results[0].Detail)
	}
}

func TestRunAll_IncludesTenorWhenKeyed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithTenor(srv.URL, "test"))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	found := false
	for _, r := range RunAll(context.Background(), cfg) {
		if r.Name == "Tenor" {
			found = true
			if !r.Passed {
				t.Errorf("Tenor check failed: %s", r.Detail)
			}
		}
	}
	if !found {
		t.Fatal("expected Tenor check in results")
	}
}

func TestFromConfigWithoutCredentials(t *testing.T) {
	cfg := config.Default()
	cfg.Tenor.APIKey = ""
	cfg.Discord.Token = ""
	if r := CheckTenorFromConfig(context.Background(), &cfg); !r.Passed {
		t.Fatalf("expected scrape fallback to pass, got %+v", r)
	}
	if r := CheckDiscordFromConfig(context.Background(), &cfg); !r.Passed {
		t.Fatalf("expected disabled discord to pass, got %+v", r)
	}
}

func TestCheckSystemDepsFindsStubbedTools(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	cfg.Tools.FFmpeg = ""
	cfg.Tools.FFprobe = ""

	statuses := CheckSystemDeps(cfg)
	if len(statuses) != 2 {
		t.Fatalf("expected ffmpeg and ffprobe statuses, got %d", len(statuses))
	}
	binDir := filepath.Join(testsupport.BaseDir(cfg), "bin")
	for _, s := range statuses {
		if !s.Available {
			t.Fatalf("expected %s to be available: %s", s.Name, s.Detail)
		}
		if filepath.Dir(s.Path) != binDir {
			t.Fatalf("expected %s resolved from stub dir, got %q", s.Name, s.Path)
		}
	}
}
