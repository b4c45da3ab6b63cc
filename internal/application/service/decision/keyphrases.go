package decision

import (
	"strings"

	"github.com/mnemo-ai/mnemo/internal/types"
)

const (
	minKeyPhrases = 2
	maxKeyPhrases = 5
)

// vagueFillers are words that never make a useful retrieval phrase on their own.
var vagueFillers = map[string]bool{
	"thing": true, "things": true, "stuff": true, "something": true,
	"anything": true, "everything": true, "it": true, "that": true,
	"this": true, "one": true,
}

// entityCategoryWords maps prose NER labels to a category word appended to the
// entity name, widening the vector lookup beyond the exact name.
var entityCategoryWords = map[string]string{
	"PERSON":      "person",
	"ORG":         "organization",
	"GPE":         "place",
	"LOC":         "place",
	"FAC":         "place",
	"EVENT":       "event",
	"WORK_OF_ART": "work",
	"PRODUCT":     "product",
	"NORP":        "group",
	"LANGUAGE":    "language",
}

// activityDomainTerms pairs an activity with semantically adjacent domain
// terms for the activity-phrase rule.
var activityDomainTerms = []struct {
	activity string
	terms    []string
}{
	{"reading", []string{"book"}},
	{"read", []string{"book"}},
	{"running", []string{"exercise"}},
	{"writing", []string{"writing project"}},
	{"cooking", []string{"recipe"}},
	{"studying", []string{"course"}},
	{"learning", []string{"course"}},
	{"traveling", []string{"trip"}},
	{"painting", []string{"art"}},
	{"gardening", []string{"garden"}},
	{"meditating", []string{"meditation practice"}},
}

// generateKeyPhrases produces 2-5 specific retrieval phrases for an utterance
// the gate already routed to memory. Deterministic for identical inputs: every
// rule walks tokens in order and lexicons are consulted, never iterated.
func generateKeyPhrases(a *utteranceAnalysis, history []types.Turn) []string {
	var phrases []string

	// Rule 1: named entities, each with a category word where the label
	// provides one.
	for _, ent := range a.entities {
		if vagueFillers[strings.ToLower(ent.Text)] {
			continue
		}
		phrases = append(phrases, ent.Text)
		if category, ok := entityCategoryWords[strings.ToUpper(ent.Label)]; ok {
			phrases = append(phrases, ent.Text+" "+category)
		}
	}

	// Rule 2: possessive or back-referenced generic nouns, paired with the
	// most recently mentioned concrete referents from history.
	referents := recentReferents(history, 2)
	for i, word := range a.lower {
		if !backReferenceNouns[word] {
			continue
		}
		if i == 0 {
			continue
		}
		prev := a.lower[i-1]
		if prev != "the" && prev != "that" && prev != "this" && !possessivePronouns[prev] {
			continue
		}
		phrases = append(phrases, word)
		for _, ref := range referents {
			phrases = append(phrases, word+" "+ref)
		}
	}

	// Rule 3: activity phrases plus adjacent domain terms.
	for i, word := range a.lower {
		for _, entry := range activityDomainTerms {
			if word != entry.activity {
				continue
			}
			phrase := word
			if obj := objectAfter(a, i); obj != "" {
				phrase = word + " " + obj
			}
			phrases = append(phrases, phrase)
			phrases = append(phrases, entry.terms...)
		}
	}

	phrases = dedupePhrases(phrases)

	// Pad with salient noun chunks until the minimum is met.
	if len(phrases) < minKeyPhrases {
		phrases = dedupePhrases(append(phrases, nounChunks(a)...))
	}
	if len(phrases) < minKeyPhrases {
		if trimmed := strings.TrimSpace(a.raw); trimmed != "" {
			phrases = dedupePhrases(append(phrases, trimmed))
		}
	}

	if len(phrases) > maxKeyPhrases {
		phrases = phrases[:maxKeyPhrases]
	}
	return phrases
}

// recentReferents walks history newest-first and collects up to max concrete
// named entities.
func recentReferents(history []types.Turn, max int) []string {
	var referents []string
	for i := len(history) - 1; i >= 0 && len(referents) < max; i-- {
		a, err := analyze(history[i].Content)
		if err != nil {
			continue
		}
		for _, ent := range a.entities {
			if len(referents) >= max {
				break
			}
			if !containsFold(referents, ent.Text) {
				referents = append(referents, ent.Text)
			}
		}
	}
	return referents
}

// objectAfter returns the first noun following position i, if any.
func objectAfter(a *utteranceAnalysis, i int) string {
	for j := i + 1; j < len(a.tokens) && j <= i+3; j++ {
		if isNounTag(a.tokens[j].Tag) && !vagueFillers[a.lower[j]] {
			return a.lower[j]
		}
	}
	return ""
}

// nounChunks collects consecutive adjective/noun runs, longest first preserved
// in utterance order.
func nounChunks(a *utteranceAnalysis) []string {
	var chunks []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			chunk := strings.Join(current, " ")
			if !vagueFillers[chunk] {
				chunks = append(chunks, chunk)
			}
			current = nil
		}
	}
	for i, tok := range a.tokens {
		if isNounTag(tok.Tag) || tok.Tag == "JJ" {
			current = append(current, a.lower[i])
			continue
		}
		flush()
	}
	flush()
	return chunks
}

func dedupePhrases(phrases []string) []string {
	seen := make(map[string]bool, len(phrases))
	out := phrases[:0]
	for _, phrase := range phrases {
		phrase = strings.TrimSpace(phrase)
		if phrase == "" {
			continue
		}
		key := strings.ToLower(phrase)
		if seen[key] || vagueFillers[key] {
			continue
		}
		seen[key] = true
		out = append(out, phrase)
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
