package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/practicer/internal/config"
	"github.com/verte-zerg/practicer/internal/mirror"
	"github.com/verte-zerg/practicer/internal/model"
	"github.com/verte-zerg/practicer/internal/osz"
	"github.com/verte-zerg/practicer/internal/plan"
	"github.com/verte-zerg/practicer/internal/report"
	"github.com/verte-zerg/practicer/internal/store"
	"github.com/verte-zerg/practicer/internal/transcode"
	"github.com/verte-zerg/practicer/internal/tui"
)

const (
	defaultIncrement  = 200
	defaultVolume     = 50
	defaultStartCombo = 200
	defaultTimeout    = 60 * time.Second
)

var (
	genIncrement int
	genLeadIn    string
	genVolume    int
	genSets      []string
	genPlan      string
	genOsz       string
	genDiff      string
	genSetID     int
	genOut       string
	genTimeout   time.Duration
	genNoCache   bool
	genNoTUI     bool
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [beatmap-url]",
		Short: "Generate practice difficulties for a beatmap",
		Long: `Generate practice difficulties for one difficulty of a beatmap set.

The set is downloaded from the mirror using an osu! beatmap URL such as
https://osu.ppy.sh/beatmapsets/874#osu/6097, or read from a local archive
with --osz. Each --set adds a family of segments, for example
--set "ar=9.3,combo=200,extent=next".`,
		Args: cobra.MaximumNArgs(1),
		RunE: runGenerateCmd,
	}
	cmd.Flags().IntVar(&genIncrement, "increment", defaultIncrement, "combo width of each segment")
	cmd.Flags().StringVar(&genLeadIn, "lead-in", string(model.LeadInSpinners), "lead-in style: spinners or slider")
	cmd.Flags().IntVar(&genVolume, "volume", defaultVolume, "lead-in hit sound volume (0-100)")
	cmd.Flags().StringArrayVar(&genSets, "set", nil, `segment set "ar=<rate>,combo=<start>,extent=<next|end>" (repeatable)`)
	cmd.Flags().StringVar(&genPlan, "plan", "", "JSON plan file with params and sets")
	cmd.Flags().StringVar(&genOsz, "osz", "", "local beatmap set archive instead of the mirror")
	cmd.Flags().StringVar(&genDiff, "diff", "", "difficulty entry inside --osz")
	cmd.Flags().IntVar(&genSetID, "set-id", 0, "beatmap set id for the output name with --osz")
	cmd.Flags().StringVar(&genOut, "out", ".", "output directory")
	cmd.Flags().DurationVar(&genTimeout, "timeout", defaultTimeout, "mirror request timeout")
	cmd.Flags().BoolVar(&genNoCache, "no-cache", false, "always download the set")
	cmd.Flags().BoolVar(&genNoTUI, "no-tui", false, "plain progress output")
	return cmd
}

func runGenerateCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyConfig(cmd, "increment", &genIncrement, fileCfg.Generate.Increment)
	applyConfig(cmd, "lead-in", &genLeadIn, fileCfg.Generate.LeadIn)
	applyConfig(cmd, "volume", &genVolume, fileCfg.Generate.Volume)
	applyConfig(cmd, "out", &genOut, fileCfg.Generate.Out)
	applyConfig(cmd, "no-cache", &genNoCache, fileCfg.Mirror.NoCache)
	if err := applyDurationConfig(cmd, "timeout", &genTimeout, fileCfg.Mirror.Timeout); err != nil {
		return err
	}

	params, requests, err := resolveRequests(cmd, fileCfg)
	if err != nil {
		return err
	}

	if len(args) == 0 && genOsz == "" {
		return fmt.Errorf("a beatmap URL or --osz is required")
	}
	if len(args) > 0 && genOsz != "" {
		return fmt.Errorf("pass either a beatmap URL or --osz, not both")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	startedAt := time.Now()
	var (
		title string
		work  tui.Work
		entry string
		res   *transcode.Result
	)
	if genOsz != "" {
		data, entryName, err := readLocalArchive(genOsz, genDiff)
		if err != nil {
			return err
		}
		entry = entryName
		title = mirror.DisplayName(filepath.Base(entryName))
		work = func(ctx context.Context, progress transcode.ProgressCallback) error {
			var err error
			res, err = transcode.Run(ctx, data, transcode.Source{EntryName: entryName, SetID: genSetID}, params, requests,
				transcode.Options{Progress: progress})
			return err
		}
	} else {
		ref, err := mirror.ParseBeatmapURL(args[0])
		if err != nil {
			return &model.ConfigError{Field: "url", Message: err.Error()}
		}
		client := mirror.New(mirror.Options{
			BaseURL:    config.MirrorURL(fileCfg, mirror.DefaultBaseURL),
			CacheDir:   config.CacheDir(fileCfg),
			NoCache:    genNoCache,
			HTTPClient: &http.Client{Timeout: genTimeout},
		})
		bm, err := client.Lookup(ctx, ref.BeatmapID)
		if err != nil {
			return fmt.Errorf("failed to look up beatmap %d: %w", ref.BeatmapID, err)
		}
		entry = bm.OsuFile
		title = mirror.DisplayName(bm.OsuFile)
		work = func(ctx context.Context, progress transcode.ProgressCallback) error {
			var err error
			res, err = transcode.New(client, transcode.Options{Progress: progress}).Generate(ctx, bm, params, requests)
			return err
		}
	}

	if !genNoTUI && term.IsTerminal(int(os.Stderr.Fd())) {
		err = tui.Run(ctx, title, work)
	} else {
		logErrf("Generating %s\n", title)
		err = work(ctx, plainProgress)
	}
	if err != nil {
		return err
	}

	outPath := filepath.Join(genOut, res.Filename)
	if err := writeArchive(outPath, res.Archive); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	recordRun(startedAt, entry, params, outPath, res)

	for _, line := range report.SegmentLines(res.Segments) {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	for _, w := range res.Warnings {
		logErrf("warning: %s\n", w)
	}
	logErrf("Wrote %s (%d segments, %s)\n", outPath, len(res.Segments), humanize.Bytes(uint64(len(res.Archive))))
	return nil
}

// resolveRequests merges defaults, config, plan file and flags. Explicit flags win.
func resolveRequests(cmd *cobra.Command, fileCfg config.FileConfig) (model.GenerationParams, []model.SegmentRequest, error) {
	params := model.GenerationParams{
		ComboIncrement: genIncrement,
		LeadIn:         model.LeadIn(genLeadIn),
		Volume:         genVolume,
	}
	var requests []model.SegmentRequest
	if genPlan != "" {
		p, err := plan.Load(genPlan)
		if err != nil {
			return params, nil, fmt.Errorf("failed to load plan %s: %w", genPlan, err)
		}
		if p.Set.ComboIncrement && !cmd.Flags().Changed("increment") {
			params.ComboIncrement = p.Params.ComboIncrement
		}
		if p.Set.LeadIn && !cmd.Flags().Changed("lead-in") {
			params.LeadIn = p.Params.LeadIn
		}
		if p.Set.Volume && !cmd.Flags().Changed("volume") {
			params.Volume = p.Params.Volume
		}
		requests = append(requests, p.Requests...)
	}
	for _, value := range genSets {
		req, err := plan.ParseSet(value)
		if err != nil {
			return params, nil, err
		}
		requests = append(requests, req)
	}
	if len(requests) == 0 {
		requests = append(requests, defaultRequest(fileCfg))
	}

	if err := params.Validate(); err != nil {
		return params, nil, err
	}
	if err := model.ValidateRequests(requests); err != nil {
		return params, nil, err
	}
	return params, requests, nil
}

func defaultRequest(fileCfg config.FileConfig) model.SegmentRequest {
	req := model.SegmentRequest{
		Approach:   fileCfg.Generate.Approach,
		StartCombo: defaultStartCombo,
		Extent:     model.ExtentNext,
	}
	if fileCfg.Generate.Combo != nil {
		req.StartCombo = *fileCfg.Generate.Combo
	}
	if fileCfg.Generate.Extent != nil {
		req.Extent = model.Extent(*fileCfg.Generate.Extent)
	}
	return req
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *string) error {
	if value == nil || cmd.Flags().Changed(name) {
		return nil
	}
	d, err := time.ParseDuration(*value)
	if err != nil {
		return &model.ConfigError{Field: "mirror.timeout", Message: err.Error()}
	}
	*target = d
	return nil
}

// readLocalArchive loads an archive and picks its difficulty entry. diff may be
// omitted when the archive holds a single chart.
func readLocalArchive(path, diff string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read archive: %w", err)
	}
	if diff != "" {
		return data, diff, nil
	}
	arc, err := osz.Open(data)
	if err != nil {
		return nil, "", err
	}
	charts := arc.Charts()
	switch len(charts) {
	case 0:
		return nil, "", fmt.Errorf("%s contains no difficulties", path)
	case 1:
		return data, charts[0], nil
	default:
		for _, c := range charts {
			logErrln("  " + c)
		}
		return nil, "", &model.ConfigError{Field: "diff", Message: fmt.Sprintf("%s has %d difficulties, pick one with --diff", path, len(charts))}
	}
}

func plainProgress(ev transcode.ProgressEvent) {
	switch ev.Stage {
	case transcode.StageFetching:
		logErrf("Downloading %s...\n", ev.Message)
	case transcode.StageCreating:
		logErrf("Reading %s\n", ev.Message)
	case transcode.StageSegment:
		if verbose {
			logErrf("[%d/%d] %s\n", ev.Done, ev.Total, ev.Message)
		}
	case transcode.StageIdle:
		if verbose && ev.Message != "" {
			logErrf("Stopped: %s\n", ev.Message)
		}
	}
}

func writeArchive(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "practicer-*.osz")
	if err != nil {
		return fmt.Errorf("failed to create temp archive: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp archive: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp archive: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move archive: %w", err)
	}
	return nil
}

// recordRun stores the run in history. Failures are reported but do not fail the command.
func recordRun(startedAt time.Time, entry string, params model.GenerationParams, outPath string, res *transcode.Result) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		logErrf("failed to open db: %v\n", err)
		return
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	run := model.RunRecord{
		StartedAt:   startedAt,
		EndedAt:     time.Now(),
		SetID:       res.SetID,
		SourceEntry: entry,
		Title:       res.Title,
		Params:      params,
		OutputPath:  outPath,
		OutputBytes: int64(len(res.Archive)),
	}
	for _, s := range res.Segments {
		run.Segments = append(run.Segments, model.SegmentRecord{
			Entry:       s.Entry,
			Version:     s.Version,
			Start:       s.Window.Start,
			End:         s.Window.End,
			StartCombo:  s.StartCombo,
			Approach:    s.Approach,
			EventCount:  s.Events,
			PrimerCount: s.Primer,
		})
	}
	if _, err := st.InsertRun(context.Background(), run); err != nil {
		logErrf("failed to record run: %v\n", err)
	}
}
