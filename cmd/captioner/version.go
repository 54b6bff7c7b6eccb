package main

import (
	"fmt"
	"runtime/debug"

	"github.com/nao1215/captioner/internal/pipeline"
	"github.com/nao1215/captioner/internal/provider/onnx"
	"github.com/nao1215/captioner/internal/provider/tesseract"
	"github.com/spf13/cobra"
)

// Version information set at build time via ldflags.
var (
	version = ""
	commit  = ""
	date    = ""
)

// getVersion returns version string.
// Priority: ldflags > debug.ReadBuildInfo > "(devel)"
func getVersion() string {
	if version != "" {
		return version
	}
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		if buildInfo.Main.Version != "" {
			return buildInfo.Main.Version
		}
	}
	return "(devel)"
}

// getCommit returns commit hash.
// Priority: ldflags > debug.ReadBuildInfo > "unknown"
func getCommit() string {
	if commit != "" {
		return commit
	}
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range buildInfo.Settings {
			if setting.Key == "vcs.revision" {
				if len(setting.Value) > 7 {
					return setting.Value[:7]
				}
				return setting.Value
			}
		}
	}
	return "unknown"
}

// getDate returns build date.
// Priority: ldflags > debug.ReadBuildInfo > "unknown"
func getDate() string {
	if date != "" {
		return date
	}
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range buildInfo.Settings {
			if setting.Key == "vcs.time" {
				return setting.Value
			}
		}
	}
	return "unknown"
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the version, commit hash and build date of captioner, the
version stamped on caption results, and the model providers compiled in.`,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "captioner version %s\n", getVersion())
			fmt.Fprintf(out, "  commit:    %s\n", getCommit())
			fmt.Fprintf(out, "  built:     %s\n", getDate())
			fmt.Fprintf(out, "  pipeline:  %s\n", pipeline.Version)
			fmt.Fprintf(out, "  onnx:      %s\n", builtText(onnx.Built))
			fmt.Fprintf(out, "  tesseract: %s\n", builtText(tesseract.Built))
		},
	}
}

func builtText(built bool) string {
	if built {
		return "built in"
	}
	return "not built (rebuild with the matching build tag)"
}
