package service

import (
	"strings"
	"unicode/utf8"

	"github.com/spacey745/cpbot/internal/constants"
	"github.com/spacey745/cpbot/internal/errors"
	"github.com/spacey745/cpbot/internal/models"
)

// Segment splits a message that exceeds the transport limit into two
// similarly sized parts with a readable break point. The returned slice has
// one element when no split is needed, two when the text was split on a
// newline or sentence boundary, and three when the last element is the
// ellipsis marker to append to part one (word-boundary or hard split).
//
// Lengths are counted in characters, not bytes, so multi-byte characters
// are never torn apart.
func Segment(text string, limit int) ([]string, error) {
	if text == "" {
		return nil, nil
	}

	chars := []rune(text)
	if len(chars) <= limit {
		return []string{text}, nil
	}

	// Longer than two limits cannot be halved into parts that both fit,
	// no matter which separator is chosen.
	if len(chars) > 2*limit {
		return nil, errors.ErrSegmentationImpossible
	}

	if halves := halveBySeparator(text, "\n"); len(halves) == 2 {
		return halves, nil
	}

	if halves := halveBySeparator(text, ". "); len(halves) == 2 {
		// The split consumed the separator; part one keeps its period.
		return []string{halves[0] + ".", halves[1]}, nil
	}

	if halves := halveBySeparator(text, " "); len(halves) == 2 {
		return []string{halves[0], halves[1], constants.EllipsisMarker}, nil
	}

	half := len(chars) / 2
	return []string{string(chars[:half]), string(chars[half:]), constants.EllipsisMarker}, nil
}

// halveBySeparator greedily packs separator-delimited pieces into part one
// until the next piece would push it past two thirds of the total length.
// The split is accepted only when part one ends up between one third and
// two thirds of the whole, so both halves stay under the limit Segment was
// given.
func halveBySeparator(text, separator string) []string {
	totalChars := utf8.RuneCountInString(text)

	var part1, part2 string
	for _, piece := range strings.Split(text, separator) {
		candidate := piece
		if part1 != "" {
			candidate = part1 + separator + piece
		}

		if part2 == "" && 3*utf8.RuneCountInString(candidate) <= 2*totalChars {
			part1 = candidate
		} else if part2 == "" {
			part2 = piece
		} else {
			part2 = part2 + separator + piece
		}
	}

	part1Chars := utf8.RuneCountInString(part1)
	if 3*part1Chars >= totalChars && 3*part1Chars <= 2*totalChars && part2 != "" {
		return []string{part1, part2}
	}
	return []string{text}
}

// SegmentEntities distributes rich-text ranges over the two halves of a
// split text. Ranges entirely before the boundary stay as they are; ranges
// entirely after move to the right list rebased to the new text start; a
// range straddling the boundary is cut in two. Empty results are returned
// as nil so callers can treat "no entities" uniformly.
func SegmentEntities(entities []models.Entity, limit int) ([]models.Entity, []models.Entity) {
	if entities == nil {
		return nil, nil
	}

	var left, right []models.Entity
	for _, entity := range entities {
		switch {
		case entity.Offset+entity.Length <= limit:
			left = append(left, entity)
		case entity.Offset >= limit:
			entity.Offset -= limit
			right = append(right, entity)
		default:
			leftPart := entity
			leftPart.Length = limit - entity.Offset
			left = append(left, leftPart)

			rightPart := entity
			rightPart.Offset = 0
			rightPart.Length = entity.Offset + entity.Length - limit
			right = append(right, rightPart)
		}
	}
	return left, right
}

// ShiftEntities returns a copy of the entities with every offset moved right
// by the given amount. Used to account for the header prepended to forwarded
// copies.
func ShiftEntities(entities []models.Entity, shift int) []models.Entity {
	if entities == nil {
		return nil
	}
	shifted := make([]models.Entity, len(entities))
	for i, entity := range entities {
		entity.Offset += shift
		shifted[i] = entity
	}
	return shifted
}
