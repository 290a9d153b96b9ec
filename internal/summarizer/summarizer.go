package summarizer

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pep299/document-insight/internal/textproc"
)

// Length selects how many sentences a summary keeps
type Length string

const (
	Short  Length = "short"
	Medium Length = "medium"
	Long   Length = "long"
)

// ErrSummarize is returned when a summary could not be produced
var ErrSummarize = errors.New("summarization failed")

// ParseLength converts a request value into a Length, defaulting to Medium
func ParseLength(value string) Length {
	switch Length(value) {
	case Short:
		return Short
	case Long:
		return Long
	default:
		return Medium
	}
}

// TargetSentences returns the number of sentences kept for the length
func (l Length) TargetSentences() int {
	switch l {
	case Short:
		return 2
	case Long:
		return 6
	default:
		return 4
	}
}

// Summarize builds an extractive summary of text. Sentences are scored by the
// frequency of their non-stop words, normalized by sentence length, and the best
// ones are returned in document order.
func Summarize(text string, length Length) (summary string, err error) {
	defer func() {
		if r := recover(); r != nil {
			summary = ""
			err = fmt.Errorf("%w: %v", ErrSummarize, r)
		}
	}()

	target := length.TargetSentences()
	sentences := textproc.SplitSentences(text)

	if len(sentences) <= target {
		return strings.Join(sentences, ". ") + ".", nil
	}

	freq := textproc.WordFrequencies(textproc.Tokenize(strings.ToLower(text)))
	scores := scoreSentences(sentences, freq)

	selected := topIndices(scores, target)

	picked := make([]string, 0, len(selected))
	for _, idx := range selected {
		picked = append(picked, sentences[idx])
	}

	return strings.Join(picked, ". ") + ".", nil
}

// scoreSentences returns one score per sentence
func scoreSentences(sentences []string, freq map[string]int) []float64 {
	scores := make([]float64, len(sentences))

	for i, sentence := range sentences {
		words := textproc.Tokenize(strings.ToLower(sentence))
		if len(words) == 0 {
			continue
		}

		total := 0
		for _, word := range words {
			if textproc.IsStopWord(word) {
				continue
			}
			total += freq[word]
		}
		scores[i] = float64(total) / float64(len(words))
	}

	return scores
}

// topIndices ranks by score (ties keep source order) and returns the best n
// indices sorted back into source order
func topIndices(scores []float64, n int) []int {
	ranked := make([]int, len(scores))
	for i := range ranked {
		ranked[i] = i
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return scores[ranked[a]] > scores[ranked[b]]
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	top := append([]int(nil), ranked[:n]...)
	sort.Ints(top)

	return top
}

// SummaryStats describes how much a summary compressed its source
type SummaryStats struct {
	OriginalWords    int     `json:"original_words"`
	SummaryWords     int     `json:"summary_words"`
	CompressionRatio float64 `json:"compression_ratio"`
	RatioAvailable   bool    `json:"-"`
}

// Stats computes word counts and the compression ratio as a percentage rounded
// to one decimal place
func Stats(original, summary string) SummaryStats {
	stats := SummaryStats{
		OriginalWords: len(strings.Fields(original)),
		SummaryWords:  len(strings.Fields(summary)),
	}

	if stats.OriginalWords == 0 {
		return stats
	}

	ratio := (1 - float64(stats.SummaryWords)/float64(stats.OriginalWords)) * 100
	stats.CompressionRatio = math.Round(ratio*10) / 10
	stats.RatioAvailable = true

	return stats
}
