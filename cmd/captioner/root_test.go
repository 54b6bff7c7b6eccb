package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "captioner" {
			t.Errorf("expected use 'captioner', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has persistent flags", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
		for _, name := range []string{"json-log", "env-file"} {
			if cmd.PersistentFlags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		want := map[string]bool{
			"caption [image...]": false,
			"history [image]":    false,
			"init":               false,
			"version":            false,
		}
		for _, sub := range cmd.Commands() {
			if _, ok := want[sub.Use]; ok {
				want[sub.Use] = true
			}
		}
		for use, found := range want {
			if !found {
				t.Errorf("expected %q subcommand", use)
			}
		}
	})
}

func TestRootCmdEnvFile(t *testing.T) {
	t.Run("missing env file is an error", func(t *testing.T) {
		_, _, err := executeCommand(t, "--env-file", filepath.Join(t.TempDir(), "missing.env"), "version")
		if err == nil {
			t.Fatal("expected error for missing env file")
		}
	})

	t.Run("env file is loaded", func(t *testing.T) {
		dir := t.TempDir()
		envFile := filepath.Join(dir, "test.env")
		dbDir := filepath.Join(dir, "from-env")
		if err := os.WriteFile(envFile, []byte("CAPTIONER_DB_DIR="+dbDir+"\n"), 0600); err != nil {
			t.Fatal(err)
		}
		t.Setenv("CAPTIONER_DB_DIR", "")
		os.Unsetenv("CAPTIONER_DB_DIR") //nolint:errcheck // restored by t.Setenv

		img := writePNG(t, dir, "a.png", color.RGBA{R: 200, A: 255})
		_, _, err := executeCommand(t, "--env-file", envFile, "caption", "-c", writeConfig(t, dir, ""), img)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(dbDir); err != nil {
			t.Errorf("expected database directory from env file: %v", err)
		}
	})
}

// executeCommand runs the root command with args and returns its output.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writePNG writes a solid 32x32 image and returns its path.
func writePNG(t *testing.T, dir, name string, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

// writeConfig writes a config file with the given body and returns its path.
// An explicit file keeps the tests away from the user's own configuration.
func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()

	path := filepath.Join(dir, "captioner-test.yaml")
	if body == "" {
		body = "pipeline: {}\n"
	}
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}
