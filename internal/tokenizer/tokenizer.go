// Package tokenizer splits template content into sentence groups of static text
// and bracketed placeholder segments.
//
// Sentences are paragraphs: content is split on runs of two or more newlines and
// every piece is trimmed. Inside a sentence a placeholder is "[", one or more
// non-"]" characters, then "]". Anything that does not pair up, including "[]",
// stays literal static text.
package tokenizer

import (
	"regexp"
	"strings"

	"github.com/dpshade/pocket-nodes/internal/models"
)

var (
	paragraphBreak = regexp.MustCompile(`\n{2,}`)
	placeholder    = regexp.MustCompile(`\[([^\]]+)\]`)
)

// SplitSentences returns the trimmed, non-empty paragraphs of content in order
func SplitSentences(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var sentences []string
	for _, part := range paragraphBreak.Split(content, -1) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	return sentences
}

// Tokenize parses content into sentence groups
func Tokenize(content string) []models.SentenceGroup {
	var groups []models.SentenceGroup

	for index, sentence := range SplitSentences(content) {
		segments := tokenizeSentence(sentence, index)
		if len(segments) == 0 {
			continue
		}
		groups = append(groups, models.SentenceGroup{
			Index:    index,
			Segments: segments,
		})
	}

	return groups
}

// tokenizeSentence scans one sentence left to right for placeholders
func tokenizeSentence(sentence string, index int) []models.Segment {
	var segments []models.Segment
	cursor := 0

	for _, match := range placeholder.FindAllStringSubmatchIndex(sentence, -1) {
		start, end := match[0], match[1]
		if start > cursor {
			segments = append(segments, models.Segment{
				Kind:     models.SegmentStatic,
				Text:     sentence[cursor:start],
				Sentence: index,
			})
		}

		segments = append(segments, models.Segment{
			Kind:        models.SegmentInput,
			Placeholder: sentence[match[2]:match[3]],
			Sentence:    index,
		})
		cursor = end
	}

	if cursor < len(sentence) {
		segments = append(segments, models.Segment{
			Kind:     models.SegmentStatic,
			Text:     sentence[cursor:],
			Sentence: index,
		})
	}

	return segments
}

// Flatten concatenates the segments of every group in order
func Flatten(groups []models.SentenceGroup) []models.Segment {
	var segments []models.Segment
	for _, g := range groups {
		segments = append(segments, g.Segments...)
	}
	return segments
}

// Parse tokenizes a raw template into its parsed form
func Parse(raw models.RawTemplate) *models.ParsedTemplate {
	groups := Tokenize(raw.Content)
	return &models.ParsedTemplate{
		RawTemplate: raw,
		Segments:    Flatten(groups),
		Sentences:   groups,
	}
}

// Placeholders returns the distinct placeholder names of content in first-seen order
func Placeholders(content string) []string {
	return Parse(models.RawTemplate{Content: content}).Placeholders()
}
