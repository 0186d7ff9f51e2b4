package chart

import "strings"

// Serialize renders the document as chart text. When override is non-nil the
// [HitObjects] lines are replaced by the override events' raw lines followed by
// the section's trailing blank lines. Everything else is written as parsed.
func Serialize(doc *Document, override []Event) string {
	out := make([]string, 0, 64)
	out = append(out, doc.Lead...)
	out = append(out, doc.Header)
	out = append(out, doc.Preamble...)
	for _, s := range doc.Sections {
		out = append(out, s.Header)
		if s.Name == SectionHitObjects && override != nil {
			for _, e := range override {
				out = append(out, e.Raw)
			}
			for _, l := range s.Lines[len(s.Lines)-trailingBlank(s.Lines):] {
				out = append(out, l.Raw)
			}
			continue
		}
		for _, l := range s.Lines {
			out = append(out, l.text())
		}
	}
	newline := doc.Newline
	if newline == "" {
		newline = "\n"
	}
	text := strings.Join(out, newline)
	if doc.BOM {
		return byteOrderMark + text
	}
	return text
}

func (l Line) text() string {
	p := l.Pair
	if p == nil || !p.modified {
		return l.Raw
	}
	if l.Raw == "" {
		return p.Key + ":" + p.Value.String()
	}
	// Keep the original key and separator spacing.
	idx := strings.Index(l.Raw, ":")
	rest := l.Raw[idx+1:]
	space := rest[:len(rest)-len(strings.TrimLeft(rest, " \t"))]
	return l.Raw[:idx+1] + space + p.Value.String()
}
