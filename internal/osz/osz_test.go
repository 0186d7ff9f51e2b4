package osz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveRoundTrip(t *testing.T) {
	a := New()
	assert.False(t, a.AddEntry("audio.mp3", []byte{1, 2, 3}))
	assert.False(t, a.AddEntry("A - B (m) [Hard].osu", []byte("osu file format v14\n")))
	assert.False(t, a.AddEntry("bg.jpg", []byte{4}))

	data, err := a.Bytes()
	require.NoError(t, err)

	b, err := Open(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"audio.mp3", "A - B (m) [Hard].osu", "bg.jpg"}, b.Entries())
	assert.Equal(t, []string{"A - B (m) [Hard].osu"}, b.Charts())

	body, ok := b.Entry("audio.mp3")
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, body)

	_, ok = b.Entry("missing")
	assert.False(t, ok)
}

func TestAddEntryReplaceKeepsPosition(t *testing.T) {
	a := New()
	a.AddEntry("one", []byte("1"))
	a.AddEntry("two", []byte("2"))

	assert.True(t, a.AddEntry("one", []byte("uno")))
	assert.Equal(t, []string{"one", "two"}, a.Entries())
	assert.Equal(t, 2, a.Len())

	body, _ := a.Entry("one")
	assert.Equal(t, "uno", string(body))
}

func TestOpenInvalid(t *testing.T) {
	_, err := Open([]byte("not a zip"))
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "ab c.d", SanitizeFilename(`a<b>: c."d/\|?*`))
	assert.Equal(t, "plain", SanitizeFilename("plain"))
}

func TestDifficultyFilename(t *testing.T) {
	tests := []struct {
		source  string
		version string
		want    string
	}{
		{"A - B (m) [Hard].osu", "Hard 0-200 0x", "A - B (m) [Hard 0-200 0x].osu"},
		{"A - B [x] (m) [Insane].osu", "Insane 200-400 200x AR9.5", "A - B [x] (m) [Insane 200-400 200x AR9.5].osu"},
		{"songs/A - B (m) [Hard].osu", "Hard: v2", "songs/A - B (m) [Hard v2].osu"},
		{"plain.osu", "Hard 0-1 0x", "plain [Hard 0-1 0x].osu"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DifficultyFilename(tt.source, tt.version), tt.source)
	}
}

func TestOutputFilename(t *testing.T) {
	assert.Equal(t, "Practicer - 123 What Title.osz", OutputFilename(123, "What? Title"))
	assert.Equal(t, "Practicer - 1 AB.osz", OutputFilename(1, "A/B"))
}
