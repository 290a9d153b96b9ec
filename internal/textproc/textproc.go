package textproc

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// MinSentenceLength is the trimmed length (in characters) a sentence must exceed to be kept
const MinSentenceLength = 10

var (
	nonWordPattern    = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	sentenceDelimiter = regexp.MustCompile(`[.!?]+`)
)

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with",
		"by", "from", "up", "about", "into", "through", "during", "before", "after", "above",
		"below", "between", "among", "throughout", "alongside", "this", "that", "these", "those",
		"i", "you", "he", "she", "it", "we", "they", "me", "him", "her", "us", "them", "my",
		"your", "his", "its", "our", "their", "mine", "yours", "hers", "ours", "theirs", "is",
		"are", "was", "were", "be", "been", "being", "have", "has", "had", "do", "does", "did",
		"will", "would", "could", "should", "may", "might", "must", "can", "shall",
	} {
		stopWords[w] = struct{}{}
	}
}

// Tokenize replaces punctuation with spaces and splits the result on whitespace.
// Case is left untouched; callers lower-case first when scoring.
func Tokenize(text string) []string {
	cleaned := nonWordPattern.ReplaceAllString(text, " ")
	return strings.Fields(cleaned)
}

// SplitSentences splits text on runs of '.', '!' and '?' and keeps the trimmed
// pieces longer than MinSentenceLength characters, in source order.
func SplitSentences(text string) []string {
	var sentences []string
	for _, piece := range sentenceDelimiter.Split(text, -1) {
		trimmed := strings.TrimSpace(piece)
		if utf8.RuneCountInString(trimmed) > MinSentenceLength {
			sentences = append(sentences, trimmed)
		}
	}
	return sentences
}

// IsStopWord reports whether a lower-case token is a stop word
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}

// StopWords returns a sorted copy of the stop-word set
func StopWords() []string {
	words := make([]string, 0, len(stopWords))
	for w := range stopWords {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// WordFrequencies counts the non-stop tokens of an already lower-cased token list
func WordFrequencies(tokens []string) map[string]int {
	freq := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		if IsStopWord(tok) {
			continue
		}
		freq[tok]++
	}
	return freq
}
