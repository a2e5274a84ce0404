package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacey745/cpbot/internal/errors"
	"github.com/spacey745/cpbot/internal/models"
)

func TestSegmentShortTextPassesThrough(t *testing.T) {
	parts, err := Segment("hello", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, parts)
}

func TestSegmentEmptyText(t *testing.T) {
	parts, err := Segment("", 10)
	require.NoError(t, err)
	assert.Nil(t, parts)
}

func TestSegmentTooLongToHalve(t *testing.T) {
	text := strings.Repeat("a", 21)
	_, err := Segment(text, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSegmentationImpossible)
}

func TestSegmentPrefersNewline(t *testing.T) {
	text := "first line\nsecond line"
	parts, err := Segment(text, 15)
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, "first line", parts[0])
	assert.Equal(t, "second line", parts[1])
	// Round trip: nothing is lost besides the separator.
	assert.Equal(t, text, parts[0]+"\n"+parts[1])
}

func TestSegmentSentenceBoundaryKeepsPeriod(t *testing.T) {
	text := "One sentence here. Another sentence there."
	parts, err := Segment(text, 30)
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, "One sentence here.", parts[0])
	assert.Equal(t, "Another sentence there.", parts[1])
}

func TestSegmentWordBoundaryAddsMarker(t *testing.T) {
	text := "alpha beta gamma delta epsilon"
	parts, err := Segment(text, 20)
	require.NoError(t, err)
	require.Len(t, parts, 3)
	assert.Equal(t, "...", parts[2])
	assert.Equal(t, text, parts[0]+" "+parts[1])
}

func TestSegmentHardSplitWhenNoSeparator(t *testing.T) {
	text := strings.Repeat("x", 30)
	parts, err := Segment(text, 20)
	require.NoError(t, err)
	require.Len(t, parts, 3)
	assert.Equal(t, strings.Repeat("x", 15), parts[0])
	assert.Equal(t, strings.Repeat("x", 15), parts[1])
	assert.Equal(t, "...", parts[2])
}

func TestSegmentCountsCharactersNotBytes(t *testing.T) {
	// 30 cyrillic characters, 60 bytes. A byte count would reject this.
	text := strings.Repeat("ж", 30)
	parts, err := Segment(text, 30)
	require.NoError(t, err)
	assert.Equal(t, []string{text}, parts)

	parts, err = Segment(text, 20)
	require.NoError(t, err)
	require.Len(t, parts, 3)
	assert.Equal(t, 15, utf8.RuneCountInString(parts[0]))
	assert.Equal(t, 15, utf8.RuneCountInString(parts[1]))
}

func TestSegmentBalance(t *testing.T) {
	words := make([]string, 40)
	for i := range words {
		words[i] = "word"
	}
	text := strings.Join(words, " ")
	total := utf8.RuneCountInString(text)

	parts, err := Segment(text, total-1)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(parts), 2)

	part1 := utf8.RuneCountInString(parts[0])
	assert.GreaterOrEqual(t, 3*part1, total)
	assert.LessOrEqual(t, 3*part1, 2*total)
}

func TestSegmentEntitiesNilInNilOut(t *testing.T) {
	left, right := SegmentEntities(nil, 10)
	assert.Nil(t, left)
	assert.Nil(t, right)
}

func TestSegmentEntitiesDistribution(t *testing.T) {
	entities := []models.Entity{
		{Type: "bold", Offset: 0, Length: 5},
		{Type: "italic", Offset: 12, Length: 4},
	}

	left, right := SegmentEntities(entities, 10)
	require.Len(t, left, 1)
	require.Len(t, right, 1)
	assert.Equal(t, models.Entity{Type: "bold", Offset: 0, Length: 5}, left[0])
	assert.Equal(t, models.Entity{Type: "italic", Offset: 2, Length: 4}, right[0])
}

func TestSegmentEntitiesStraddleSplit(t *testing.T) {
	entities := []models.Entity{
		{Type: "code", Offset: 6, Length: 8},
	}

	left, right := SegmentEntities(entities, 10)
	require.Len(t, left, 1)
	require.Len(t, right, 1)

	assert.Equal(t, 6, left[0].Offset)
	assert.Equal(t, 4, left[0].Length)
	assert.Equal(t, 0, right[0].Offset)
	assert.Equal(t, 4, right[0].Length)
	assert.Equal(t, entities[0].Length, left[0].Length+right[0].Length)
}

func TestShiftEntities(t *testing.T) {
	entities := []models.Entity{
		{Type: "bold", Offset: 0, Length: 5},
		{Type: "url", Offset: 7, Length: 3, URL: "https://example.com"},
	}

	shifted := ShiftEntities(entities, 12)
	require.Len(t, shifted, 2)
	assert.Equal(t, 12, shifted[0].Offset)
	assert.Equal(t, 19, shifted[1].Offset)
	assert.Equal(t, "https://example.com", shifted[1].URL)

	// Originals stay untouched.
	assert.Equal(t, 0, entities[0].Offset)
	assert.Nil(t, ShiftEntities(nil, 5))
}
