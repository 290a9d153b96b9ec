package qa

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pep299/document-insight/internal/textproc"
)

// Fixed low-confidence answers. These are successful results, not errors.
const (
	FallbackNotUnderstood = "I couldn't understand your question. Please try rephrasing it."
	FallbackNoAnswer      = "I couldn't find an answer to your question in the document. Try asking about topics that are mentioned in the text."
)

const (
	minKeywordLength = 3
	phraseBonus      = 0.5
)

// ErrAnswer is returned when answering failed unexpectedly
var ErrAnswer = errors.New("question answering failed")

// Keywords returns the significant lower-case words of a question in order
func Keywords(question string) []string {
	var keywords []string
	for _, word := range textproc.Tokenize(strings.ToLower(question)) {
		if textproc.IsStopWord(word) || utf8.RuneCountInString(word) < minKeywordLength {
			continue
		}
		keywords = append(keywords, word)
	}
	return keywords
}

type scoredSentence struct {
	text  string
	score float64
}

// Answer finds the context sentence sharing the most keywords with the question
// and narrows it to a specific answer where the question type allows.
func Answer(question, context string) (answer string, err error) {
	defer func() {
		if r := recover(); r != nil {
			answer = ""
			err = fmt.Errorf("%w: %v", ErrAnswer, r)
		}
	}()

	keywords := Keywords(question)
	if len(keywords) == 0 {
		return FallbackNotUnderstood, nil
	}

	scored := scoreSentences(textproc.SplitSentences(context), keywords)
	if len(scored) == 0 || scored[0].score <= 0 {
		return FallbackNoAnswer, nil
	}

	best := scored[0].text
	if specific := Extract(question, best, keywords); specific != "" {
		return specific, nil
	}

	return best + ".", nil
}

// scoreSentences scores each sentence as exact token matches plus half the
// substring matches, then sorts best first keeping source order on ties.
// A keyword that is both a token and a substring counts 1.5.
func scoreSentences(sentences []string, keywords []string) []scoredSentence {
	scored := make([]scoredSentence, 0, len(sentences))

	for _, sentence := range sentences {
		lower := strings.ToLower(sentence)

		tokens := make(map[string]struct{})
		for _, tok := range textproc.Tokenize(lower) {
			tokens[tok] = struct{}{}
		}

		matches, phraseMatches := 0, 0
		for _, keyword := range keywords {
			if _, ok := tokens[keyword]; ok {
				matches++
			}
			if strings.Contains(lower, keyword) {
				phraseMatches++
			}
		}

		scored = append(scored, scoredSentence{
			text:  sentence,
			score: float64(matches) + float64(phraseMatches)*phraseBonus,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	return scored
}
