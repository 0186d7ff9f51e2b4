// Package chart parses, models and serializes osu! beatmap difficulty files.
package chart

import (
	"strconv"
	"strings"
)

// Section names with special handling.
const (
	SectionGeneral      = "General"
	SectionEditor       = "Editor"
	SectionMetadata     = "Metadata"
	SectionDifficulty   = "Difficulty"
	SectionEvents       = "Events"
	SectionTimingPoints = "TimingPoints"
	SectionHitObjects   = "HitObjects"
	SectionColours      = "Colours"
)

// keyValueSections are parsed as key:value blocks. Everything else is a line list.
var keyValueSections = map[string]bool{
	SectionGeneral:    true,
	SectionEditor:     true,
	SectionMetadata:   true,
	SectionDifficulty: true,
}

// SectionKind tells how a section's lines are interpreted.
type SectionKind int

const (
	// KeyValueSection holds key:value pairs.
	KeyValueSection SectionKind = iota
	// EventSection holds an ordered list of comma-separated records.
	EventSection
)

// Document is a parsed difficulty file. BOM records a leading byte order mark.
type Document struct {
	BOM      bool
	Lead     []string
	Header   string
	Format   string
	Version  int
	Newline  string
	Preamble []string
	Sections []*Section
}

// Section is one bracketed block of the file.
type Section struct {
	Name   string
	Header string
	Kind   SectionKind
	Lines  []Line
}

// Line is one line of a section. At most one of Pair, Point and Event is set;
// a line with none of them is opaque and is written back as Raw.
type Line struct {
	Raw   string
	Pair  *Pair
	Point *TimingPoint
	Event *Event
}

// Opaque reports whether the line carries no parsed fields.
func (l Line) Opaque() bool {
	return l.Pair == nil && l.Point == nil && l.Event == nil
}

// Pair is a key:value entry. Modified pairs are written as key:value instead of Raw.
type Pair struct {
	Key      string
	Value    Value
	modified bool
}

// Value is a key:value scalar, numeric when the text parses as a number.
type Value struct {
	Text     string
	Number   float64
	IsNumber bool
}

// Text returns a textual value.
func Text(s string) Value {
	return parseValue(s)
}

// Number returns a numeric value.
func Number(f float64) Value {
	return Value{Text: strconv.FormatFloat(f, 'f', -1, 64), Number: f, IsNumber: true}
}

func parseValue(s string) Value {
	v := Value{Text: s}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		v.Number = f
		v.IsNumber = true
	}
	return v
}

func (v Value) String() string {
	return v.Text
}

// TimingPoint fixes tempo and slider velocity from Time onward.
type TimingPoint struct {
	Time          int
	BeatLength    float64
	RawBeatLength float64
	Meter         int
	SampleSet     int
	SampleIndex   int
	Volume        int
	Uninherited   bool
	Effects       int
	SVMultiplier  float64
	Raw           string
}

// SVPercentage is the slider velocity as a percentage.
func (p TimingPoint) SVPercentage() float64 {
	return p.SVMultiplier * 100
}

// EventKind is the gameplay type of a hit object.
type EventKind int

const (
	// Point is a hit circle.
	Point EventKind = iota
	// Sustained is a slider.
	Sustained
	// Hold is a spinner.
	Hold
)

func (k EventKind) String() string {
	switch k {
	case Sustained:
		return "slider"
	case Hold:
		return "spinner"
	default:
		return "circle"
	}
}

// Event is a hit object with its running combo.
type Event struct {
	X           int
	Y           int
	Time        int
	Type        int
	Kind        EventKind
	NewCombo    bool
	Slides      int
	PixelLength float64
	StartCombo  int
	EndCombo    int
	Raw         string
}

// Contribution is the combo the event adds.
func (e Event) Contribution() int {
	return e.EndCombo - e.StartCombo
}

// Section returns the named section or nil.
func (d *Document) Section(name string) *Section {
	for _, s := range d.Sections {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Value looks up a key in a key:value section.
func (d *Document) Value(section, key string) (Value, bool) {
	s := d.Section(section)
	if s == nil {
		return Value{}, false
	}
	for _, l := range s.Lines {
		if l.Pair != nil && l.Pair.Key == key {
			return l.Pair.Value, true
		}
	}
	return Value{}, false
}

// Float returns a numeric value or def when the key is missing or not numeric.
func (d *Document) Float(section, key string, def float64) float64 {
	v, ok := d.Value(section, key)
	if !ok || !v.IsNumber {
		return def
	}
	return v.Number
}

// Get returns a value's text or "" when missing.
func (d *Document) Get(section, key string) string {
	v, _ := d.Value(section, key)
	return v.Text
}

// SetValue replaces a key's value, adding the key (and the section) when missing.
func (d *Document) SetValue(section, key string, v Value) {
	s := d.Section(section)
	if s == nil {
		s = &Section{Name: section, Header: "[" + section + "]", Kind: KeyValueSection}
		d.Sections = append(d.Sections, s)
	}
	for i := range s.Lines {
		if p := s.Lines[i].Pair; p != nil && p.Key == key {
			p.Value = v
			p.modified = true
			return
		}
	}
	line := Line{Pair: &Pair{Key: key, Value: v, modified: true}}
	at := len(s.Lines) - trailingBlank(s.Lines)
	s.Lines = append(s.Lines, Line{})
	copy(s.Lines[at+1:], s.Lines[at:])
	s.Lines[at] = line
}

// TimingPoints returns the timing points in file order.
func (d *Document) TimingPoints() []TimingPoint {
	s := d.Section(SectionTimingPoints)
	if s == nil {
		return nil
	}
	var points []TimingPoint
	for _, l := range s.Lines {
		if l.Point != nil {
			points = append(points, *l.Point)
		}
	}
	return points
}

// Events returns the hit objects in file order.
func (d *Document) Events() []Event {
	s := d.Section(SectionHitObjects)
	if s == nil {
		return nil
	}
	var events []Event
	for _, l := range s.Lines {
		if l.Event != nil {
			events = append(events, *l.Event)
		}
	}
	return events
}

// MaxCombo is the final event's end combo.
func (d *Document) MaxCombo() int {
	events := d.Events()
	if len(events) == 0 {
		return 0
	}
	return events[len(events)-1].EndCombo
}

// Clone returns a deep copy that shares nothing mutable with d.
func (d *Document) Clone() *Document {
	out := &Document{
		BOM:      d.BOM,
		Lead:     append([]string(nil), d.Lead...),
		Header:   d.Header,
		Format:   d.Format,
		Version:  d.Version,
		Newline:  d.Newline,
		Preamble: append([]string(nil), d.Preamble...),
		Sections: make([]*Section, len(d.Sections)),
	}
	for i, s := range d.Sections {
		out.Sections[i] = s.clone()
	}
	return out
}

func (s *Section) clone() *Section {
	out := &Section{Name: s.Name, Header: s.Header, Kind: s.Kind, Lines: make([]Line, len(s.Lines))}
	for i, l := range s.Lines {
		c := Line{Raw: l.Raw}
		if l.Pair != nil {
			p := *l.Pair
			c.Pair = &p
		}
		if l.Point != nil {
			p := *l.Point
			c.Point = &p
		}
		if l.Event != nil {
			e := *l.Event
			c.Event = &e
		}
		out.Lines[i] = c
	}
	return out
}

func trailingBlank(lines []Line) int {
	n := 0
	for i := len(lines) - 1; i >= 0; i-- {
		if !lines[i].Opaque() || strings.TrimSpace(lines[i].Raw) != "" {
			break
		}
		n++
	}
	return n
}
