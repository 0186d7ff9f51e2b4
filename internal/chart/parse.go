package chart

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Format defaults used when a file omits the field.
const (
	DefaultSliderMultiplier = 1.4
	DefaultSliderTickRate   = 1.0

	// fallbackBeatLength (120 BPM) resolves an inherited point that has no predecessor.
	fallbackBeatLength = 500.0
)

// Hit object type bits.
const (
	TypeCircle   = 1
	TypeSlider   = 2
	TypeNewCombo = 4
	TypeSpinner  = 8
)

var (
	headerPattern  = regexp.MustCompile(`^(.+?)\s+v(\d+)\s*$`)
	sectionPattern = regexp.MustCompile(`^\[([^\]]+)\]\s*$`)
)

// FormatError reports malformed or unrecognized chart text.
type FormatError struct {
	Entry   string
	Line    int
	Message string
}

func (e *FormatError) Error() string {
	where := "chart"
	if e.Entry != "" {
		where = e.Entry
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", where, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", where, e.Message)
}

// byteOrderMark is kept at the start of decoded text so Parse can record it.
const byteOrderMark = "\uFEFF"

// Decode converts raw file bytes to UTF-8 text. A UTF-8 or UTF-16 byte order
// mark selects the encoding and is returned as a leading U+FEFF.
func Decode(data []byte) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", fmt.Errorf("failed to decode chart text: %w", err)
	}
	if hasBOM(data) {
		return byteOrderMark + string(out), nil
	}
	return string(out), nil
}

func hasBOM(data []byte) bool {
	switch {
	case len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF:
		return true
	case len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF:
		return true
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE:
		return true
	}
	return false
}

// Parse builds a Document from decoded chart text and accumulates combo over its hit objects.
func Parse(text string) (*Document, error) {
	bom := strings.HasPrefix(text, byteOrderMark)
	text = strings.TrimPrefix(text, byteOrderMark)
	newline := "\n"
	if strings.Contains(text, "\r\n") {
		newline = "\r\n"
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")

	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start == len(lines) {
		return nil, &FormatError{Message: "empty chart"}
	}
	m := headerPattern.FindStringSubmatch(strings.TrimSpace(lines[start]))
	if m == nil {
		return nil, &FormatError{Line: start + 1, Message: "missing format version header"}
	}
	version, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, &FormatError{Line: start + 1, Message: fmt.Sprintf("invalid format version %q", m[2])}
	}

	doc := &Document{
		BOM:     bom,
		Lead:    lines[:start],
		Header:  lines[start],
		Format:  m[1],
		Version: version,
		Newline: newline,
	}

	// Line numbers per section line, for error reporting in the second pass.
	lineNumbers := map[*Section][]int{}
	var current *Section
	for i, raw := range lines[start+1:] {
		lineNo := start + i + 2
		if sm := sectionPattern.FindStringSubmatch(strings.TrimSpace(raw)); sm != nil {
			kind := EventSection
			if keyValueSections[sm[1]] {
				kind = KeyValueSection
			}
			current = &Section{Name: sm[1], Header: raw, Kind: kind}
			doc.Sections = append(doc.Sections, current)
			continue
		}
		if current == nil {
			doc.Preamble = append(doc.Preamble, raw)
			continue
		}
		line := Line{Raw: raw}
		if current.Kind == KeyValueSection {
			line.Pair = parsePair(raw)
		}
		current.Lines = append(current.Lines, line)
		lineNumbers[current] = append(lineNumbers[current], lineNo)
	}

	if s := doc.Section(SectionTimingPoints); s != nil {
		parseTimingPoints(s)
	}
	if s := doc.Section(SectionHitObjects); s != nil {
		if err := parseHitObjects(doc, s, lineNumbers[s]); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func parsePair(raw string) *Pair {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "//") {
		return nil
	}
	key, value, ok := strings.Cut(trimmed, ":")
	if !ok {
		return nil
	}
	return &Pair{Key: strings.TrimSpace(key), Value: parseValue(strings.TrimSpace(value))}
}

func parseTimingPoints(s *Section) {
	var prev *TimingPoint
	for i := range s.Lines {
		p, ok := parseTimingPoint(s.Lines[i].Raw)
		if !ok {
			continue
		}
		if p.Uninherited {
			p.BeatLength = p.RawBeatLength
			p.SVMultiplier = 1
		} else {
			p.BeatLength = fallbackBeatLength
			if prev != nil {
				p.BeatLength = prev.BeatLength
			}
			p.SVMultiplier = 1
			if p.RawBeatLength != 0 {
				p.SVMultiplier = 100 / math.Abs(p.RawBeatLength)
			}
		}
		s.Lines[i].Point = p
		prev = p
	}
}

func parseTimingPoint(raw string) (*TimingPoint, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "//") {
		return nil, false
	}
	fields := strings.Split(trimmed, ",")
	if len(fields) < 2 {
		return nil, false
	}
	t, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return nil, false
	}
	beatLength, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return nil, false
	}
	p := &TimingPoint{
		Time:          int(t),
		RawBeatLength: beatLength,
		Meter:         4,
		Volume:        100,
		Uninherited:   true,
		Raw:           raw,
	}
	ints := []*int{&p.Meter, &p.SampleSet, &p.SampleIndex, &p.Volume, nil, &p.Effects}
	for i, target := range ints {
		idx := i + 2
		if idx >= len(fields) {
			break
		}
		v, err := strconv.Atoi(strings.TrimSpace(fields[idx]))
		if err != nil {
			return nil, false
		}
		if target == nil {
			p.Uninherited = v != 0
			continue
		}
		*target = v
	}
	return p, true
}

func parseHitObjects(doc *Document, s *Section, lineNumbers []int) error {
	points := doc.TimingPoints()
	diff := DifficultyOf(doc)
	combo := 0
	index := 0
	for i := range s.Lines {
		e, ok, err := parseHitObject(s.Lines[i].Raw)
		if err != nil {
			return &FormatError{Line: lineNumbers[i], Message: err.Error()}
		}
		if !ok {
			continue
		}
		e.NewCombo = e.NewCombo || index == 0
		contribution := 1
		if e.Kind == Sustained {
			point, found := Resolve(points, e.Time)
			if !found {
				return &FormatError{Line: lineNumbers[i], Message: "slider without timing points"}
			}
			contribution = SliderContribution(e.PixelLength, e.Slides, point, diff)
		}
		e.StartCombo = combo
		e.EndCombo = combo + contribution
		combo = e.EndCombo
		s.Lines[i].Event = e
		index++
	}
	return nil
}

func parseHitObject(raw string) (*Event, bool, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "//") {
		return nil, false, nil
	}
	fields := strings.Split(trimmed, ",")
	if len(fields) < 4 {
		return nil, false, nil
	}
	nums := make([]int, 4)
	for i := range nums {
		f, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if err != nil {
			return nil, false, nil
		}
		nums[i] = int(f)
	}
	e := &Event{X: nums[0], Y: nums[1], Time: nums[2], Type: nums[3], Raw: raw}
	typ := uint8(e.Type)
	switch {
	case typ&TypeSlider != 0:
		e.Kind = Sustained
	case typ&TypeSpinner != 0:
		e.Kind = Hold
	default:
		e.Kind = Point
	}
	e.NewCombo = typ&TypeNewCombo != 0
	if e.Kind != Sustained {
		return e, true, nil
	}
	if len(fields) < 8 {
		return nil, false, fmt.Errorf("slider has %d fields, want at least 8", len(fields))
	}
	slides, err := strconv.Atoi(strings.TrimSpace(fields[6]))
	if err != nil {
		return nil, false, fmt.Errorf("invalid slider slides %q", fields[6])
	}
	length, err := strconv.ParseFloat(strings.TrimSpace(fields[7]), 64)
	if err != nil {
		return nil, false, fmt.Errorf("invalid slider length %q", fields[7])
	}
	e.Slides = slides
	e.PixelLength = length
	return e, true, nil
}
