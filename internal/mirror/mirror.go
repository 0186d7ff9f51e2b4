// Package mirror looks up beatmaps and downloads beatmap set archives from a mirror.
package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/practicer/internal/model"
)

// DefaultBaseURL is the mirror used when none is configured.
const DefaultBaseURL = "https://api.chimu.moe"

const defaultTimeout = 60 * time.Second

var (
	beatmapURLPattern = regexp.MustCompile(`https://osu\.ppy\.sh/beatmapsets/(\d+)#(osu|mania|fruits|taiko)/(\d+)`)
	mapperPattern     = regexp.MustCompile(`(\([^(]*\) )?\[.*\]$`)
)

// FetchError reports a failed mirror request.
type FetchError struct {
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Options configure a Client.
type Options struct {
	BaseURL    string
	CacheDir   string
	NoCache    bool
	HTTPClient *http.Client
}

// Client talks to a beatmap mirror.
type Client struct {
	baseURL  string
	cacheDir string
	noCache  bool
	http     *http.Client
}

// New returns a client for opts, filling in defaults.
func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: base, cacheDir: opts.CacheDir, noCache: opts.NoCache, http: hc}
}

type mapResponse struct {
	OsuFile     string  `json:"OsuFile"`
	BeatmapID   int     `json:"BeatmapId"`
	ParentSetID int     `json:"ParentSetId"`
	MaxCombo    int     `json:"MaxCombo"`
	AR          float64 `json:"AR"`
}

// Lookup fetches metadata for one difficulty.
func (c *Client) Lookup(ctx context.Context, beatmapID int) (model.Beatmap, error) {
	url := fmt.Sprintf("%s/v1/map/%d", c.baseURL, beatmapID)
	resp, err := c.get(ctx, url)
	if err != nil {
		return model.Beatmap{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var payload mapResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return model.Beatmap{}, &FetchError{URL: url, Message: "failed to decode map response", Cause: err}
	}
	if payload.OsuFile == "" || payload.ParentSetID == 0 {
		return model.Beatmap{}, &FetchError{URL: url, Message: "map response is missing the file or set id"}
	}
	return model.Beatmap{
		OsuFile:      payload.OsuFile,
		BeatmapID:    payload.BeatmapID,
		SetID:        payload.ParentSetID,
		MaxCombo:     payload.MaxCombo,
		ApproachRate: payload.AR,
	}, nil
}

// Download returns the archive of a beatmap set, reading and filling the cache
// unless caching is disabled. cached reports a cache hit.
func (c *Client) Download(ctx context.Context, setID int) (data []byte, cached bool, err error) {
	url := fmt.Sprintf("%s/v1/download/%d", c.baseURL, setID)
	destPath := ""
	if c.cacheDir != "" && !c.noCache {
		destPath = filepath.Join(c.cacheDir, strconv.Itoa(setID)+".osz")
		data, err := os.ReadFile(destPath)
		if err == nil {
			return data, true, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, false, fmt.Errorf("failed to read cached set: %w", err)
		}
	}

	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, false, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, &FetchError{URL: url, Message: "failed to read archive", Cause: err}
	}

	if destPath != "" {
		if err := writeCache(c.cacheDir, destPath, data); err != nil {
			return nil, false, err
		}
	}
	return data, false, nil
}

func writeCache(cacheDir, destPath string, data []byte) error {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(cacheDir, "set-*.osz")
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
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to move archive into cache: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, &FetchError{URL: url, Message: "failed to create request", Cause: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Message: "request failed", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &FetchError{URL: url, Message: "unexpected status " + resp.Status, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// BeatmapRef identifies a difficulty by its osu! website URL.
type BeatmapRef struct {
	SetID     int
	BeatmapID int
}

// ParseBeatmapURL extracts ids from a beatmap URL. Only osu!standard maps are accepted.
func ParseBeatmapURL(raw string) (BeatmapRef, error) {
	m := beatmapURLPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(raw)))
	if m == nil {
		return BeatmapRef{}, fmt.Errorf("not a beatmap URL: %q", raw)
	}
	if m[2] != "osu" {
		return BeatmapRef{}, fmt.Errorf("only osu!standard maps are supported, got %s", m[2])
	}
	setID, err := strconv.Atoi(m[1])
	if err != nil {
		return BeatmapRef{}, fmt.Errorf("invalid set id: %w", err)
	}
	beatmapID, err := strconv.Atoi(m[3])
	if err != nil {
		return BeatmapRef{}, fmt.Errorf("invalid beatmap id: %w", err)
	}
	return BeatmapRef{SetID: setID, BeatmapID: beatmapID}, nil
}

// DisplayName turns a chart filename into "Artist - Title [Difficulty]".
func DisplayName(osuFile string) string {
	name := strings.TrimSuffix(osuFile, ".osu")
	if m := mapperPattern.FindStringSubmatch(name); m != nil && m[1] != "" {
		name = strings.Replace(name, m[1], "", 1)
	}
	return name
}
