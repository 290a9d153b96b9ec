package qa

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// rule tries to narrow a sentence to an answer. matched reports whether the
// rule decided the outcome; later rules are not tried once one has.
type rule func(sentence, lower string, keywords []string) (answer string, matched bool)

var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b\d{4}\b`),
		regexp.MustCompile(`(?i)\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}\b`),
		regexp.MustCompile(`(?i)\b\d{1,2}/\d{1,2}/\d{2,4}\b`),
		regexp.MustCompile(`(?i)\b(?:yesterday|today|tomorrow|last\s+\w+|next\s+\w+)\b`),
	}

	// case-sensitive: capitalization is what marks a proper noun
	locationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bin\s+([A-Z][a-zA-Z\s]*(?:City|State|Country|University|College|Hospital|School))\b`),
		regexp.MustCompile(`\bat\s+([A-Z][a-zA-Z\s]*(?:University|College|Hospital|School|Center))\b`),
		regexp.MustCompile(`\bin\s+([A-Z][a-zA-Z\s]*)\b`),
	}

	namePattern = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\b`)

	quantityPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b\d+(?:,\d{3})*(?:\.\d+)?\s*(?:percent|%|million|billion|thousand|hundred)?\b`),
		regexp.MustCompile(`(?i)\b(?:one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|thirteen|fourteen|fifteen|sixteen|seventeen|eighteen|nineteen|twenty|thirty|forty|fifty|sixty|seventy|eighty|ninety|hundred|thousand|million|billion)\b`),
	}
)

const maxNames = 3

var rulesByType = map[QuestionType][]rule{
	Definition: {definitionRule},
	Date:       matchRules(datePatterns),
	Location:   groupRules(locationPatterns),
	Person:     {personRule},
	Quantity:   matchRules(quantityPatterns),
}

// Extract narrows sentence to a specific answer based on the question type.
// An empty result means the caller should fall back to the whole sentence.
func Extract(question, sentence string, keywords []string) string {
	lower := strings.ToLower(sentence)

	for _, r := range rulesByType[Classify(question)] {
		if answer, matched := r(sentence, lower, keywords); matched {
			return answer
		}
	}

	return ""
}

// definitionRule looks for "<keyword> is|are|was|were <clause>"; the first keyword
// that matches decides, even when its clause is empty
func definitionRule(_, lower string, keywords []string) (string, bool) {
	for _, keyword := range keywords {
		pattern, err := regexp.Compile(regexp.QuoteMeta(keyword) + `\s+(?:is|are|was|were)\s+([^.!?]*)`)
		if err != nil {
			continue
		}
		if m := pattern.FindStringSubmatch(lower); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

func personRule(sentence, _ string, _ []string) (string, bool) {
	m := maskText(sentence)

	var names []string
	for _, loc := range namePattern.FindAllStringIndex(m.masked, maxNames) {
		names = append(names, m.span(loc[0], loc[1]))
	}
	if len(names) == 0 {
		return "", false
	}
	return strings.Join(names, ", "), true
}

// matchRules returns one rule per pattern yielding the whole match
func matchRules(patterns []*regexp.Regexp) []rule {
	rules := make([]rule, 0, len(patterns))
	for _, p := range patterns {
		p := p
		rules = append(rules, func(sentence, _ string, _ []string) (string, bool) {
			m := maskText(sentence)
			if loc := p.FindStringIndex(m.masked); loc != nil && loc[1] > loc[0] {
				return m.span(loc[0], loc[1]), true
			}
			return "", false
		})
	}
	return rules
}

// groupRules returns one rule per pattern yielding the trimmed first group
func groupRules(patterns []*regexp.Regexp) []rule {
	rules := make([]rule, 0, len(patterns))
	for _, p := range patterns {
		p := p
		rules = append(rules, func(sentence, _ string, _ []string) (string, bool) {
			m := maskText(sentence)
			if loc := p.FindStringSubmatchIndex(m.masked); loc != nil {
				return strings.TrimSpace(m.span(loc[2], loc[3])), true
			}
			return "", false
		})
	}
	return rules
}

// maskedText is a sentence rewritten to one ASCII byte per rune so that RE2's
// ASCII-only \b, \w and \s see non-ASCII text the way Unicode classes do.
// Letters and digits become "_", a word character no pattern class names.
// Spaces become " " and anything else "#". offsets maps each masked byte,
// plus the end, back to a byte offset in the original sentence.
type maskedText struct {
	original string
	masked   string
	offsets  []int
}

func maskText(s string) maskedText {
	masked := make([]byte, 0, len(s))
	offsets := make([]int, 0, len(s)+1)

	for i, r := range s {
		offsets = append(offsets, i)
		switch {
		case r < utf8.RuneSelf:
			masked = append(masked, byte(r))
		case unicode.IsLetter(r), unicode.IsNumber(r):
			masked = append(masked, '_')
		case unicode.IsSpace(r):
			masked = append(masked, ' ')
		default:
			masked = append(masked, '#')
		}
	}
	offsets = append(offsets, len(s))

	return maskedText{original: s, masked: string(masked), offsets: offsets}
}

// span returns the original text behind masked[start:end]
func (m maskedText) span(start, end int) string {
	return m.original[m.offsets[start]:m.offsets[end]]
}
