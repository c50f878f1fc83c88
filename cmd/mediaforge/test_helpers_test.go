package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mediaforge/internal/config"
	"mediaforge/internal/testsupport"
)

const ffprobeStub = `#!/bin/sh
for arg in "$@"; do
  if [ "$arg" = "-count_packets" ]; then
    echo "12"
    exit 0
  fi
done
cat <<'JSON'
{"streams":[{"index":0,"codec_type":"video","codec_name":"h264","width":320,"height":240,"r_frame_rate":"30/1","duration":"2.0"},{"index":1,"codec_type":"audio","codec_name":"aac"}],"format":{"format_name":"mov,mp4,m4a,3gp,3g2,mj2","duration":"2.0","nb_streams":2}}
JSON
`

const ffmpegStub = `#!/bin/sh
for arg in "$@"; do
  if [ "$arg" = "-encoders" ]; then
    echo "Encoders:"
    echo " V..... = Video"
    echo " ------"
    for name in libx264 aac png gif apng ffv1; do
      echo " V....D $name   stub encoder"
    done
    exit 0
  fi
done
for last; do :; done
printf 'encoded' > "$last"
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	t.Setenv("TENOR_API_KEY", "")
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("MEDIAFORGE_TEMP_DIR", "")
	t.Setenv("NO_COLOR", "1")

	cfg := testsupport.NewConfig(t, testsupport.WithLogFile())
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	binDir := filepath.Join(base, "bin")
	cfg.Tools.FFprobe = writeScript(t, binDir, "ffprobe", ffprobeStub)
	cfg.Tools.FFmpeg = writeScript(t, binDir, "ffmpeg", ffmpegStub)

	configPath := filepath.Join(homeDir, ".config", "mediaforge", "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
