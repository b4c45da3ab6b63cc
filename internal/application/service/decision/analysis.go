package decision

import (
	"strings"
	"unicode"

	"github.com/tsawler/prose/v3"
)

// utteranceAnalysis is the tokenized view of one utterance. Computed once per
// Decide call and shared by every predicate and the key-phrase generator.
type utteranceAnalysis struct {
	raw      string
	tokens   []prose.Token
	entities []prose.Entity
	lower    []string // lowercased token text, parallel to tokens
}

func analyze(utterance string) (*utteranceAnalysis, error) {
	doc, err := prose.NewDocument(utterance)
	if err != nil {
		return nil, err
	}

	tokens := doc.Tokens()
	lower := make([]string, len(tokens))
	for i, tok := range tokens {
		lower[i] = strings.ToLower(tok.Text)
	}

	return &utteranceAnalysis{
		raw:      utterance,
		tokens:   tokens,
		entities: doc.Entities(),
		lower:    lower,
	}, nil
}

// isNoise reports whether the utterance carries no retrievable signal: empty,
// symbol-only, or a bare conversational filler.
func isNoise(utterance string) bool {
	trimmed := strings.TrimSpace(utterance)
	if trimmed == "" {
		return true
	}
	hasLetter := false
	for _, r := range trimmed {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return true
	}
	return fillerUtterances[strings.ToLower(trimmed)]
}

var fillerUtterances = map[string]bool{
	"ok":        true,
	"okay":      true,
	"thanks":    true,
	"thank you": true,
	"hmm":       true,
	"hm":        true,
	"yes":       true,
	"no":        true,
	"sure":      true,
	"cool":      true,
	"nice":      true,
	"lol":       true,
	"hi":        true,
	"hello":     true,
	"hey":       true,
}

func isNounTag(tag string) bool {
	return strings.HasPrefix(tag, "NN")
}

func isProperNounTag(tag string) bool {
	return tag == "NNP" || tag == "NNPS"
}

func isPastTenseTag(tag string) bool {
	return tag == "VBD" || tag == "VBN"
}
