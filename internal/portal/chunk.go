package portal

import "strings"

// DefaultMaxMessageRunes is the chat platform's message size ceiling,
// measured in runes so multi-byte characters are never split.
const DefaultMaxMessageRunes = 4000

// SplitMessage splits text into chunks of at most maxRunes runes each.
// Splits happen at line boundaries first; a single line longer than the
// limit is split at word boundaries; only a word longer than the limit
// itself is hard-split mid-word. Rejoining the chunks with newlines
// reproduces the content (modulo the boundary whitespace removed).
func SplitMessage(text string, maxRunes int) []string {
	if maxRunes <= 0 {
		maxRunes = DefaultMaxMessageRunes
	}
	if len([]rune(text)) <= maxRunes {
		return []string{text}
	}

	var chunks []string
	var current []rune

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, string(current))
			current = current[:0]
		}
	}

	for _, line := range strings.Split(text, "\n") {
		runes := []rune(line)

		if len(runes) > maxRunes {
			flush()
			for _, piece := range splitLongLine(runes, maxRunes) {
				chunks = append(chunks, piece)
			}
			continue
		}

		// +1 for the newline that would join the line onto the chunk.
		if len(current)+1+len(runes) > maxRunes && len(current) > 0 {
			flush()
		}
		if len(current) > 0 {
			current = append(current, '\n')
		}
		current = append(current, runes...)
	}
	flush()

	return chunks
}

// splitLongLine breaks one oversized line at word boundaries, hard-splitting
// only words that alone exceed the limit.
func splitLongLine(line []rune, maxRunes int) []string {
	var pieces []string
	var current []rune

	flush := func() {
		if len(current) > 0 {
			pieces = append(pieces, string(current))
			current = current[:0]
		}
	}

	for _, word := range strings.Fields(string(line)) {
		runes := []rune(word)

		if len(runes) > maxRunes {
			flush()
			for len(runes) > maxRunes {
				pieces = append(pieces, string(runes[:maxRunes]))
				runes = runes[maxRunes:]
			}
			current = append(current, runes...)
			continue
		}

		if len(current)+1+len(runes) > maxRunes && len(current) > 0 {
			flush()
		}
		if len(current) > 0 {
			current = append(current, ' ')
		}
		current = append(current, runes...)
	}
	flush()

	return pieces
}
