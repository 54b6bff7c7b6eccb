package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/nao1215/captioner/internal/database"
	"github.com/nao1215/captioner/internal/report"
	"github.com/nao1215/captioner/internal/source"
	"github.com/spf13/cobra"
)

const timestampLayout = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
// This command shows captions stored in the database for an image.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [image]",
		Short: "Show stored captions of an image",
		Long: `History displays every caption stored for an image and how the latest
caption differs from the one before it.

Images are identified by content, so a renamed or moved file keeps its
history. Captions are stored by 'captioner caption'.

Examples:
  # Show the caption history of an image
  captioner history photo.jpg

  # Find stored images that look like this one
  captioner history --similar photo.jpg

  # Output history in JSON format
  captioner history --json photo.jpg

  # List all images in the database
  captioner history --list-images`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-images", "L", false,
		"List all images in the database")
	cmd.Flags().BoolP("similar", "s", false,
		"List stored images that look like the specified image")
	cmd.Flags().Int("max-distance", database.DefaultSimilarDistance,
		"Maximum perceptual hash distance for --similar")
	cmd.Flags().BoolP("json", "j", false,
		"Output history in JSON format")
	addConfigFlags(cmd)

	return cmd
}

// historyOptions are the flags of the history command.
type historyOptions struct {
	listImages  bool
	similar     bool
	maxDistance int
	jsonOutput  bool
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	var (
		opts historyOptions
		errs []error
		err  error
	)
	opts.listImages, err = cmd.Flags().GetBool("list-images")
	errs = append(errs, err)
	opts.similar, err = cmd.Flags().GetBool("similar")
	errs = append(errs, err)
	opts.maxDistance, err = cmd.Flags().GetInt("max-distance")
	errs = append(errs, err)
	opts.jsonOutput, err = cmd.Flags().GetBool("json")
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		return err
	}

	// Validate arguments before opening database
	if !opts.listImages && len(args) == 0 {
		return errors.New("image is required (use --list-images to see stored images)")
	}

	s, err := loadSettings(cmd, os.LookupEnv)
	if err != nil {
		return err
	}
	logger := setupLogger(cmd)

	db, err := database.Open(s.dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if opts.listImages {
		return listImages(ctx, out, db, opts.jsonOutput)
	}

	bitmap, err := source.NewResolver(source.WithLogger(logger)).Resolve(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	fp := database.NewFingerprint(bitmap.Data)

	if opts.similar {
		return listSimilar(ctx, out, db, args[0], fp, opts)
	}
	return showHistory(ctx, out, db, args[0], fp.ID, opts.jsonOutput)
}

// listImages lists every stored image.
func listImages(ctx context.Context, out io.Writer, db *database.CaptionDB, jsonOutput bool) error {
	images, err := db.ListImages(ctx)
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}

	if jsonOutput {
		return writeJSON(out, toImageViews(images))
	}

	if len(images) == 0 {
		fmt.Fprintln(out, "No captioned images found in the database.")
		fmt.Fprintln(out, "\nUse 'captioner caption <image>' to caption an image.")
		return nil
	}

	fmt.Fprintf(out, "Captioned images (%d):\n\n", len(images))
	fmt.Fprintf(out, "  %-12s  %-8s  %-20s  %s\n", "ID", "Captions", "Last seen", "Source")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 70))
	for _, img := range images {
		fmt.Fprintf(out, "  %-12s  %-8d  %-20s  %s\n",
			shortID(img.ID),
			img.Captions,
			img.LastSeen.Local().Format(timestampLayout),
			img.Source,
		)
	}
	fmt.Fprintln(out, "\nUse 'captioner history <image>' to see the captions of an image.")
	return nil
}

// historyView is the JSON form of an image history.
type historyView struct {
	Source  string               `json:"source"`
	ImageID string               `json:"image_id"`
	Entries []historyEntryView   `json:"entries"`
	Drift   *report.CaptionDrift `json:"drift,omitempty"`
}

type historyEntryView struct {
	ID         int64     `json:"id"`
	Caption    string    `json:"caption"`
	Confidence float64   `json:"confidence"`
	Passed     bool      `json:"passed"`
	Escalate   bool      `json:"escalate"`
	Template   string    `json:"template,omitempty"`
	Version    string    `json:"version,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// showHistory prints the stored captions of imageID and the drift between
// the latest two.
func showHistory(ctx context.Context, out io.Writer, db *database.CaptionDB, src, imageID string, jsonOutput bool) error {
	entries, err := db.History(ctx, imageID)
	if err != nil {
		return fmt.Errorf("failed to get caption history: %w", err)
	}

	view := historyView{
		Source:  src,
		ImageID: imageID,
		Entries: make([]historyEntryView, 0, len(entries)),
	}
	for _, e := range entries {
		view.Entries = append(view.Entries, historyEntryView{
			ID:         e.ID,
			Caption:    e.Caption,
			Confidence: e.Confidence,
			Passed:     e.Passed,
			Escalate:   e.Escalate,
			Template:   string(e.Template),
			Version:    e.Version,
			CreatedAt:  e.CreatedAt,
		})
	}
	if n := len(entries); n >= 2 {
		drift := report.Drift(entries[n-2].Caption, entries[n-1].Caption)
		view.Drift = &drift
	}

	if jsonOutput {
		return writeJSON(out, view)
	}

	if len(entries) == 0 {
		fmt.Fprintf(out, "No captions stored for %s\n", src)
		fmt.Fprintln(out, "\nUse 'captioner caption' to caption this image.")
		return nil
	}

	fmt.Fprintf(out, "Caption history for %s (%d captions):\n\n", src, len(entries))
	fmt.Fprintf(out, "  %-6s  %-20s  %-10s  %-6s  %s\n", "ID", "Date", "Confidence", "Passed", "Caption")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 70))
	for _, e := range view.Entries {
		fmt.Fprintf(out, "  %-6d  %-20s  %-10s  %-6s  %s\n",
			e.ID,
			e.CreatedAt.Local().Format(timestampLayout),
			fmt.Sprintf("%.0f%%", e.Confidence*100),
			yesNo(e.Passed),
			e.Caption,
		)
	}

	if view.Drift != nil {
		fmt.Fprintln(out)
		if !view.Drift.Changed() {
			fmt.Fprintln(out, "Latest caption is unchanged.")
			return nil
		}
		fmt.Fprintln(out, "Latest caption changed:")
		fmt.Fprintf(out, "  Previous:        %s\n", view.Drift.Previous)
		fmt.Fprintf(out, "  Current:         %s\n", view.Drift.Current)
		fmt.Fprintf(out, "  Edit distance:   %d\n", view.Drift.Distance)
		fmt.Fprintf(out, "  Word error rate: %.2f\n", view.Drift.WordErrorRate)
	}
	return nil
}

// imageView is the JSON form of a stored image.
type imageView struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Captions  int       `json:"captions"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	Distance  *int      `json:"distance,omitempty"`
}

func toImageViews(images []database.ImageEntry) []imageView {
	views := make([]imageView, 0, len(images))
	for _, img := range images {
		views = append(views, imageView{
			ID:        img.ID,
			Source:    img.Source,
			Captions:  img.Captions,
			FirstSeen: img.FirstSeen,
			LastSeen:  img.LastSeen,
		})
	}
	return views
}

// listSimilar prints stored images whose perceptual hash is close to fp.
// The image itself is left out.
func listSimilar(ctx context.Context, out io.Writer, db *database.CaptionDB, src string, fp database.Fingerprint, opts historyOptions) error {
	if fp.PHash == "" {
		return fmt.Errorf("%s could not be decoded, so it has no perceptual hash", src)
	}
	matches, err := db.FindSimilar(ctx, fp.PHash, opts.maxDistance)
	if err != nil {
		return fmt.Errorf("failed to find similar images: %w", err)
	}

	similar := make([]database.ImageEntry, 0, len(matches))
	for _, m := range matches {
		if m.ID != fp.ID {
			similar = append(similar, m)
		}
	}

	if opts.jsonOutput {
		views := toImageViews(similar)
		for i := range views {
			d := similar[i].Distance
			views[i].Distance = &d
		}
		return writeJSON(out, views)
	}

	if len(similar) == 0 {
		fmt.Fprintf(out, "No stored images look like %s (max distance %d)\n", src, opts.maxDistance)
		return nil
	}

	fmt.Fprintf(out, "Images similar to %s (%d):\n\n", src, len(similar))
	fmt.Fprintf(out, "  %-12s  %-8s  %s\n", "ID", "Distance", "Source")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 60))
	for _, m := range similar {
		fmt.Fprintf(out, "  %-12s  %-8d  %s\n", shortID(m.ID), m.Distance, m.Source)
	}
	return nil
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// shortID returns the first 12 characters of a content id.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
