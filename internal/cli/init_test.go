package cli

import (
    "io"
    "os"
    "path/filepath"
    "regexp"
    "strings"
    "testing"
    "time"
)

func TestInit_WritesSampleConfig(t *testing.T) {
    t.Parallel()
    dir := t.TempDir()
    path := filepath.Join(dir, "config.yaml")

    root := NewRootCmd()
    root.SetOut(io.Discard)
    root.SetErr(io.Discard)
    root.SetArgs([]string{"init", "--out", path})

    if err := root.Execute(); err != nil {
        t.Fatalf("init execute: %v", err)
    }

    data, err := os.ReadFile(path)
    if err != nil {
        t.Fatalf("read config: %v", err)
    }
    s := string(data)
    if !strings.Contains(s, "swagger2gql configuration") {
        t.Fatalf("unexpected config contents: %s", s)
    }
}

func TestInit_ExistingWithoutForce(t *testing.T) {
    t.Parallel()
    dir := t.TempDir()
    path := filepath.Join(dir, "config.yaml")
    if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
        t.Fatalf("prewrite: %v", err)
    }

    root := NewRootCmd()
    root.SetOut(io.Discard)
    root.SetErr(io.Discard)
    root.SetArgs([]string{"init", "--out", path})

    err := root.Execute()
    if err == nil {
        t.Fatalf("expected error for existing file without --force")
    }
    if _, ok := err.(usageError); !ok {
        t.Fatalf("expected usage error, got %T: %v", err, err)
    }
}


func TestInit_SampleKeysAreAccepted(t *testing.T) {
    t.Parallel()
    keyLine := regexp.MustCompile(`^# ([A-Za-z]+): (.*)$`)

    var b strings.Builder
    for _, line := range strings.Split(sampleConfigYAML, "\n") {
        if m := keyLine.FindStringSubmatch(line); m != nil {
            b.WriteString(m[1] + ": " + m[2] + "\n")
        }
    }
    path := filepath.Join(t.TempDir(), "sample.yaml")
    if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
        t.Fatalf("write sample: %v", err)
    }

    cfg := defaultServeConfig()
    if err := applyServeConfigFromFile(&cfg, path); err != nil {
        t.Fatalf("sample config rejected: %v", err)
    }
    cfg.normalize()
    if err := cfg.validate("init"); err != nil {
        t.Fatalf("sample config invalid: %v", err)
    }
    if cfg.Timeout != 30*time.Second {
        t.Errorf("timeout: got %v", cfg.Timeout)
    }
}
