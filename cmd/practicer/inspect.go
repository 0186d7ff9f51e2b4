package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/practicer/internal/chart"
	"github.com/verte-zerg/practicer/internal/model"
	"github.com/verte-zerg/practicer/internal/osz"
	"github.com/verte-zerg/practicer/internal/practice"
	"github.com/verte-zerg/practicer/internal/report"
)

const densityWidth = 60

var (
	inspectDiff      string
	inspectLimit     int
	inspectIncrement int
	inspectTiming    bool
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file.osu|file.osz>",
		Short: "Show parsed timing and running combo of a chart",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspectCmd,
	}
	cmd.Flags().StringVar(&inspectDiff, "diff", "", "difficulty entry inside an .osz")
	cmd.Flags().IntVar(&inspectLimit, "limit", 20, "hit objects to list (0 for all)")
	cmd.Flags().IntVar(&inspectIncrement, "increment", 0, "also list combo windows of this width")
	cmd.Flags().BoolVar(&inspectTiming, "timing", false, "list timing points")
	return cmd
}

func runInspectCmd(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, name, err := readChart(path, inspectDiff)
	if err != nil {
		return err
	}
	text, err := chart.Decode(data)
	if err != nil {
		return err
	}
	doc, err := chart.Parse(text)
	if err != nil {
		var formatErr *chart.FormatError
		if errors.As(err, &formatErr) {
			formatErr.Entry = name
		}
		return err
	}

	var lines []string
	lines = append(lines, report.ChartSummaryLines(doc)...)
	lines = append(lines, "density:  "+report.DensityLine(doc.Events(), densityWidth))
	if inspectTiming {
		lines = append(lines, "")
		lines = append(lines, report.TimingLines(doc.TimingPoints())...)
	}
	lines = append(lines, "")
	lines = append(lines, report.ComboLines(doc.Events(), inspectLimit)...)
	if inspectIncrement > 0 {
		windows := practice.Windows(doc.MaxCombo(), inspectIncrement, model.ExtentNext)
		lines = append(lines, "")
		lines = append(lines, report.WindowLines(doc.Events(), windows)...)
	}

	out := cmd.OutOrStdout()
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

// readChart returns chart bytes from a .osu file or an entry of an .osz archive.
func readChart(path, diff string) ([]byte, string, error) {
	if !strings.EqualFold(filepath.Ext(path), ".osz") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read chart: %w", err)
		}
		return data, filepath.Base(path), nil
	}
	archiveData, entry, err := readLocalArchive(path, diff)
	if err != nil {
		return nil, "", err
	}
	arc, err := osz.Open(archiveData)
	if err != nil {
		return nil, "", err
	}
	data, ok := arc.Entry(entry)
	if !ok {
		return nil, "", &model.ConfigError{Field: "diff", Message: fmt.Sprintf("%s has no entry %q", path, entry)}
	}
	return data, entry, nil
}
