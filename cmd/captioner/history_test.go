package main

import (
	"encoding/json"
	"image/color"
	"path/filepath"
	"strings"
	"testing"
)

// TestNewHistoryCmd tests the history command creation.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "history [image]" {
			t.Errorf("expected use 'history [image]', got %q", cmd.Use)
		}
	})

	t.Run("has flags", func(t *testing.T) {
		t.Parallel()
		for name, shorthand := range map[string]string{
			"list-images":  "L",
			"similar":      "s",
			"json":         "j",
			"max-distance": "",
			"config":       "c",
			"db-dir":       "",
		} {
			flag := cmd.Flags().Lookup(name)
			if flag == nil {
				t.Errorf("expected %s flag", name)
				continue
			}
			if flag.Shorthand != shorthand {
				t.Errorf("%s: expected shorthand %q, got %q", name, shorthand, flag.Shorthand)
			}
		}
	})
}

// TestRunHistoryCmd tests the history command execution.
func TestRunHistoryCmd(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")

	t.Run("image is required", func(t *testing.T) {
		dir := t.TempDir()
		_, _, err := executeCommand(t, "history", "-c", writeConfig(t, dir, ""), "--db-dir", dir)
		if err == nil {
			t.Fatal("expected error without image")
		}
	})

	t.Run("empty database", func(t *testing.T) {
		dir := t.TempDir()
		cfg := writeConfig(t, dir, "")

		stdout, _, err := executeCommand(t, "history", "-c", cfg, "--db-dir", dir, "--list-images")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "No captioned images found") {
			t.Errorf("expected empty message, got:\n%s", stdout)
		}

		img := writePNG(t, dir, "red.png", color.RGBA{R: 255, A: 255})
		stdout, _, err = executeCommand(t, "history", "-c", cfg, "--db-dir", dir, img)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "No captions stored for "+img) {
			t.Errorf("expected no-history message, got:\n%s", stdout)
		}
	})

	t.Run("unreadable image", func(t *testing.T) {
		dir := t.TempDir()
		_, _, err := executeCommand(t, "history", "-c", writeConfig(t, dir, ""), "--db-dir", dir,
			filepath.Join(dir, "missing.png"))
		if err == nil {
			t.Fatal("expected error for missing image")
		}
	})

	t.Run("lists images and similar images", func(t *testing.T) {
		dir := t.TempDir()
		dbDir := filepath.Join(dir, "db")
		cfg := writeConfig(t, dir, "dbDir: "+dbDir+"\n")
		red := writePNG(t, dir, "red.png", color.RGBA{R: 255, A: 255})
		blue := writePNG(t, dir, "blue.png", color.RGBA{B: 255, A: 255})

		if _, _, err := executeCommand(t, "caption", "-c", cfg, red, blue); err != nil {
			t.Fatalf("caption: %v", err)
		}

		stdout, _, err := executeCommand(t, "history", "-c", cfg, "-L")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Captioned images (2)") {
			t.Errorf("expected two images, got:\n%s", stdout)
		}

		stdout, _, err = executeCommand(t, "history", "-c", cfg, "--similar", "--json", red)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var similar []imageView
		if err := json.Unmarshal([]byte(stdout), &similar); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, stdout)
		}
		// Solid images share the same difference hash.
		if len(similar) != 1 {
			t.Fatalf("expected 1 similar image, got %d", len(similar))
		}
		if similar[0].Source != blue {
			t.Errorf("expected %q, got %q", blue, similar[0].Source)
		}
		if similar[0].Distance == nil || *similar[0].Distance != 0 {
			t.Errorf("expected distance 0, got %v", similar[0].Distance)
		}

		stdout, _, err = executeCommand(t, "history", "-c", cfg, red)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Caption history for "+red+" (1 captions)") {
			t.Errorf("expected history header, got:\n%s", stdout)
		}
	})
}

func TestShortID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "abc", want: "abc"},
		{in: "0123456789abcdef", want: "0123456789ab"},
	}
	for _, tt := range tests {
		if got := shortID(tt.in); got != tt.want {
			t.Errorf("shortID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
