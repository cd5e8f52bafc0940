// Package segment splits extracted article text into an ordered sequence of
// speakable units. Segmentation is a pure function: the same content and
// granularity always produce the same units.
package segment

import (
	"fmt"
	"strings"
)

// Granularity selects the size of a speakable unit.
type Granularity int

const (
	// Word treats every whitespace-separated token as one unit.
	Word Granularity = iota
	// Sentence treats every terminal-punctuation-delimited run as one unit.
	Sentence
)

// ParseGranularity maps a config value to a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "word":
		return Word, nil
	case "sentence", "":
		return Sentence, nil
	default:
		return Sentence, fmt.Errorf("unknown granularity %q", s)
	}
}

// Unit is one speakable piece of article text. Units are immutable once a
// playback session starts; Index is stable for the lifetime of one
// extraction result.
type Unit struct {
	Index                int
	Text                 string
	TrailingSeparator    string // single space, or empty for the final unit
	ParagraphBreakBefore bool   // unit starts a new paragraph in the source
}

// Segment splits content into units. Content is expected to be normalized
// article text with paragraphs separated by a double line break. Empty or
// unit-less content yields a nil slice, which callers treat as "nothing to
// play".
func Segment(content string, g Granularity) []Unit {
	var texts []string
	switch g {
	case Word:
		texts = strings.Fields(content)
	case Sentence:
		texts = splitSentences(content)
	}
	if len(texts) == 0 {
		return nil
	}

	units := make([]Unit, len(texts))
	// Locate each unit's text in the source, searching forward from the end
	// of the previous match so matches stay monotonic and non-overlapping.
	// A unit whose text cannot be located gets no paragraph break and the
	// cursor stays put.
	cursor := 0
	prevEnd := 0
	for i, text := range texts {
		sep := " "
		if i == len(texts)-1 {
			sep = ""
		}
		u := Unit{Index: i, Text: text, TrailingSeparator: sep}
		if rel := strings.Index(content[cursor:], text); rel >= 0 {
			start := cursor + rel
			u.ParagraphBreakBefore = i > 0 && strings.Contains(content[prevEnd:start], "\n\n")
			prevEnd = start + len(text)
			cursor = prevEnd
		}
		units[i] = u
	}
	return units
}

// splitSentences splits on runs of terminal punctuation, re-attaching the
// matched punctuation to the sentence that preceded it. Segments that are
// empty, or consist of nothing but terminal punctuation, are discarded.
func splitSentences(content string) []string {
	var out []string
	start := 0
	for i := 0; i < len(content); {
		if !isTerminal(content[i]) {
			i++
			continue
		}
		j := i
		for j < len(content) && isTerminal(content[j]) {
			j++
		}
		if s := strings.TrimSpace(content[start:j]); s != "" && !onlyTerminals(s) {
			out = append(out, s)
		}
		start = j
		i = j
	}
	if s := strings.TrimSpace(content[start:]); s != "" && !onlyTerminals(s) {
		out = append(out, s)
	}
	return out
}

func isTerminal(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func onlyTerminals(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isTerminal(s[i]) {
			return false
		}
	}
	return true
}

// Join reconstructs the speakable text for a unit sequence, re-inserting a
// blank line wherever a unit starts a new paragraph. Used by the
// whole-utterance driving policy.
func Join(units []Unit) string {
	var b strings.Builder
	for i, u := range units {
		b.WriteString(u.Text)
		if i+1 < len(units) {
			if units[i+1].ParagraphBreakBefore {
				b.WriteString("\n\n")
			} else {
				b.WriteString(u.TrailingSeparator)
			}
		}
	}
	return b.String()
}

// WordCount reports the number of whitespace-separated words in a unit's
// text, never less than one. Used for duration estimation.
func WordCount(u Unit) int {
	n := len(strings.Fields(u.Text))
	if n < 1 {
		return 1
	}
	return n
}
