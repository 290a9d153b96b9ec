package qa

import "strings"

// QuestionType selects the extraction rules applied to the best sentence
type QuestionType int

const (
	Other QuestionType = iota
	Definition
	Date
	Location
	Person
	Quantity
)

func (q QuestionType) String() string {
	switch q {
	case Definition:
		return "definition"
	case Date:
		return "date"
	case Location:
		return "location"
	case Person:
		return "person"
	case Quantity:
		return "quantity"
	default:
		return "other"
	}
}

type prefixRule struct {
	qtype    QuestionType
	prefixes []string
}

// Checked in order; a question starting with "what time" is a Definition
// because "what" comes first.
var prefixRules = []prefixRule{
	{Definition, []string{"what", "what is", "what are"}},
	{Date, []string{"when", "what time", "what date"}},
	{Location, []string{"where", "in which", "at which"}},
	{Person, []string{"who", "which person", "which people"}},
}

// quantity questions match anywhere in the question, not only at the start
var quantityPhrases = []string{"how many", "how much", "how long"}

// Classify derives the question type from the lower-cased question
func Classify(question string) QuestionType {
	lower := strings.ToLower(question)

	for _, rule := range prefixRules {
		for _, prefix := range rule.prefixes {
			if strings.HasPrefix(lower, prefix) {
				return rule.qtype
			}
		}
	}

	for _, phrase := range quantityPhrases {
		if strings.Contains(lower, phrase) {
			return Quantity
		}
	}

	return Other
}
