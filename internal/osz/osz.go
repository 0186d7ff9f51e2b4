// Package osz reads and writes beatmap set archives.
package osz

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"
)

// ToolName prefixes every generated archive name.
const ToolName = "Practicer"

// ChartExt is the extension of difficulty files inside a set.
const ChartExt = ".osu"

type entry struct {
	name     string
	data     []byte
	modified time.Time
}

// Archive is an ordered mapping of filename to bytes.
type Archive struct {
	entries []entry
	index   map[string]int
}

// New returns an empty archive.
func New() *Archive {
	return &Archive{index: map[string]int{}}
}

// Open reads a zip archive. Directory entries are skipped.
func Open(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	a := New()
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		body, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		a.put(entry{name: f.Name, data: body, modified: f.Modified})
	}
	return a, nil
}

// Entries lists entry names in archive order.
func (a *Archive) Entries() []string {
	names := make([]string, len(a.entries))
	for i, e := range a.entries {
		names[i] = e.name
	}
	return names
}

// Charts lists the difficulty entries in archive order.
func (a *Archive) Charts() []string {
	var names []string
	for _, e := range a.entries {
		if strings.EqualFold(path.Ext(e.name), ChartExt) {
			names = append(names, e.name)
		}
	}
	return names
}

// Entry returns the bytes stored under name.
func (a *Archive) Entry(name string) ([]byte, bool) {
	i, ok := a.index[name]
	if !ok {
		return nil, false
	}
	return a.entries[i].data, true
}

// AddEntry stores data under name. An existing entry keeps its position and
// is overwritten; replaced reports whether that happened.
func (a *Archive) AddEntry(name string, data []byte) (replaced bool) {
	return a.put(entry{name: name, data: data, modified: time.Now()})
}

func (a *Archive) put(e entry) bool {
	if i, ok := a.index[e.name]; ok {
		a.entries[i] = e
		return true
	}
	a.index[e.name] = len(a.entries)
	a.entries = append(a.entries, e)
	return false
}

// Len is the number of entries.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Bytes writes the archive as a deflated zip.
func (a *Archive) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range a.entries {
		hdr := &zip.FileHeader{Name: e.name, Method: zip.Deflate, Modified: e.modified}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", e.name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// SanitizeFilename strips characters that are invalid in file names.
func SanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(`<>:"/\|?*`, r) {
			return -1
		}
		return r
	}, name)
}

// DifficultyFilename replaces the bracketed difficulty token of a chart entry
// name, e.g. "Artist - Title (Mapper) [Hard].osu". A name without a token gets
// one appended before the extension.
func DifficultyFilename(source, version string) string {
	dir, base := path.Split(source)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	token := "[" + SanitizeFilename(version) + "]"

	open := strings.LastIndex(stem, "[")
	if open >= 0 && strings.HasSuffix(stem, "]") {
		return dir + stem[:open] + token + ext
	}
	if stem == "" {
		return dir + token + ext
	}
	return dir + stem + " " + token + ext
}

// OutputFilename names a generated archive.
func OutputFilename(setID int, title string) string {
	return ToolName + " - " + strconv.Itoa(setID) + " " + SanitizeFilename(title) + ".osz"
}
