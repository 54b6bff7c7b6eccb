package main

import (
	"encoding/json"
	"image/color"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/nao1215/captioner/internal/pipeline"
	"github.com/nao1215/captioner/internal/report"
)

// TestNewCaptionCmd tests the caption command creation.
func TestNewCaptionCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCaptionCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "caption [image...]" {
			t.Errorf("expected use 'caption [image...]', got %q", cmd.Use)
		}
	})

	t.Run("has flags", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			name      string
			shorthand string
			defValue  string
		}{
			{name: "json", shorthand: "j", defValue: "false"},
			{name: "markdown", shorthand: "m", defValue: "false"},
			{name: "output", shorthand: "o", defValue: ""},
			{name: "batch", shorthand: "b", defValue: "4"},
			{name: "config", shorthand: "c", defValue: ""},
			{name: "quality-threshold", defValue: "0.5"},
			{name: "borderline-pass", defValue: "true"},
			{name: "no-db", defValue: "false"},
			{name: "skip-processed", defValue: "false"},
			{name: "allow-remote", defValue: "false"},
		}
		for _, tt := range tests {
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Errorf("expected %s flag", tt.name)
				continue
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("%s: expected shorthand %q, got %q", tt.name, tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("%s: expected default %q, got %q", tt.name, tt.defValue, flag.DefValue)
			}
		}
	})
}

// TestRunCaptionCmd tests the caption command execution.
func TestRunCaptionCmd(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")

	t.Run("prints caption of an image", func(t *testing.T) {
		dir := t.TempDir()
		img := writePNG(t, dir, "red.png", color.RGBA{R: 255, A: 255})

		stdout, _, err := executeCommand(t, "caption", "-c", writeConfig(t, dir, ""), "--no-db", img)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Source:     "+img) {
			t.Errorf("expected source line, got:\n%s", stdout)
		}
		if !strings.Contains(stdout, "Caption:    ") {
			t.Errorf("expected caption line, got:\n%s", stdout)
		}
		if strings.Contains(stdout, "SUMMARY") {
			t.Error("single image report should not have a summary")
		}
	})

	t.Run("json report keeps input order", func(t *testing.T) {
		dir := t.TempDir()
		first := writePNG(t, dir, "first.png", color.RGBA{R: 255, A: 255})
		second := writePNG(t, dir, "second.png", color.RGBA{B: 255, A: 255})
		missing := filepath.Join(dir, "missing.png")

		stdout, _, err := executeCommand(t, "caption", "-c", writeConfig(t, dir, ""), "--no-db", "-j",
			first, missing, second, first)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got report.JSONReport
		if err := json.Unmarshal([]byte(stdout), &got); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, stdout)
		}
		if got.Version != pipeline.Version {
			t.Errorf("expected version %q, got %q", pipeline.Version, got.Version)
		}
		if got.Summary.Total != 3 {
			t.Fatalf("expected 3 records (duplicates dropped), got %d", got.Summary.Total)
		}
		if got.Summary.Errors != 1 {
			t.Errorf("expected 1 error, got %d", got.Summary.Errors)
		}
		wantSources := []string{first, missing, second}
		for i, rec := range got.Records {
			if rec.Source != wantSources[i] {
				t.Errorf("record %d: expected source %q, got %q", i, wantSources[i], rec.Source)
			}
		}

		failed := got.Records[1]
		if failed.ImageID != "" {
			t.Errorf("unreadable image should have no id, got %q", failed.ImageID)
		}
		if failed.Result == nil || failed.Result.Success {
			t.Fatal("expected failure result for missing image")
		}
		if !failed.Result.RecommendCloudEscalation {
			t.Error("failure result should recommend escalation")
		}
		if got.Records[0].ImageID == got.Records[2].ImageID {
			t.Error("different images should have different ids")
		}
	})

	t.Run("markdown report written to file", func(t *testing.T) {
		dir := t.TempDir()
		img := writePNG(t, dir, "red.png", color.RGBA{R: 255, A: 255})
		out := filepath.Join(dir, "reports", "nested", "captions.md")

		stdout, _, err := executeCommand(t, "caption", "-c", writeConfig(t, dir, ""), "--no-db", "-m", "-o", out, img)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stdout != "" {
			t.Errorf("expected nothing on stdout, got %q", stdout)
		}

		content, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		if !strings.Contains(string(content), "# Caption Report") {
			t.Errorf("expected markdown heading, got:\n%s", content)
		}

		if runtime.GOOS != "windows" {
			info, err := os.Stat(out)
			if err != nil {
				t.Fatal(err)
			}
			if perm := info.Mode().Perm(); perm != 0600 {
				t.Errorf("expected permissions 0600, got %o", perm)
			}
		}
	})

	t.Run("invalid invocations", func(t *testing.T) {
		dir := t.TempDir()
		img := writePNG(t, dir, "red.png", color.RGBA{R: 255, A: 255})
		cfg := writeConfig(t, dir, "")

		tests := []struct {
			name string
			args []string
		}{
			{name: "no images", args: []string{"caption", "-c", cfg, "--no-db"}},
			{name: "json and markdown", args: []string{"caption", "-c", cfg, "--no-db", "-j", "-m", img}},
			{name: "skip without database", args: []string{"caption", "-c", cfg, "--no-db", "--skip-processed", img}},
			{name: "invalid threshold", args: []string{"caption", "-c", cfg, "--no-db", "--quality-threshold", "1.5", img}},
			{name: "missing config file", args: []string{"caption", "-c", filepath.Join(dir, "nope.yaml"), "--no-db", img}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, _, err := executeCommand(t, tt.args...); err == nil {
					t.Error("expected error")
				}
			})
		}
	})
}

// TestCaptionHistory tests that captions are stored and reused.
func TestCaptionHistory(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")

	dir := t.TempDir()
	dbDir := filepath.Join(dir, "db")
	cfg := writeConfig(t, dir, "dbDir: "+dbDir+"\n")
	img := writePNG(t, dir, "red.png", color.RGBA{R: 255, A: 255})

	if _, _, err := executeCommand(t, "caption", "-c", cfg, img); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, _, err := executeCommand(t, "caption", "-c", cfg, "--skip-processed", img); err != nil {
		t.Fatalf("skipped run: %v", err)
	}

	stdout, _, err := executeCommand(t, "history", "-c", cfg, "--json", img)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var view historyView
	if err := json.Unmarshal([]byte(stdout), &view); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if len(view.Entries) != 1 {
		t.Fatalf("skipped run should not store a caption, got %d entries", len(view.Entries))
	}

	if _, _, err := executeCommand(t, "caption", "-c", cfg, img); err != nil {
		t.Fatalf("second run: %v", err)
	}
	stdout, _, err = executeCommand(t, "history", "-c", cfg, "--json", img)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	view = historyView{}
	if err := json.Unmarshal([]byte(stdout), &view); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if len(view.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(view.Entries))
	}
	if view.Drift == nil {
		t.Fatal("expected drift between the latest two captions")
	}
	if view.Drift.Changed() {
		t.Errorf("captions of the same image should not drift: %q -> %q", view.Drift.Previous, view.Drift.Current)
	}
}

func TestDedupe(t *testing.T) {
	t.Parallel()

	got := dedupe([]string{"a", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("dedupe() = %v, want %v", got, want)
	}
}
