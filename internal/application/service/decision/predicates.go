package decision

import "strings"

// Predicate names, recorded on the decision for audit logging.
const (
	predNamedEntity   = "named_entity_mention"
	predPossessive    = "possessive_reference"
	predBackReference = "generic_back_reference"
	predCompletion    = "completion_statement"
	predTemporal      = "temporal_back_reference"
	predLowGrounding  = "low_grounding_signal"
)

// backReferenceNouns are generic nouns that point at something previously
// discussed ("the book", "my daughter"). Referents live in memory, not in the
// utterance, so mentioning one is a retrieval trigger.
var backReferenceNouns = map[string]bool{
	"book": true, "movie": true, "film": true, "show": true, "song": true,
	"trip": true, "project": true, "conversation": true, "meeting": true,
	"daughter": true, "son": true, "wife": true, "husband": true,
	"partner": true, "friend": true, "boss": true, "doctor": true,
	"therapist": true, "teacher": true, "sister": true, "brother": true,
	"mom": true, "dad": true, "mother": true, "father": true,
	"place": true, "plan": true, "idea": true, "goal": true, "job": true,
	"class": true, "course": true, "interview": true, "appointment": true,
	"recipe": true, "game": true, "garden": true, "house": true, "dog": true,
	"cat": true,
}

// completionVerbs signal a status update about something already known.
var completionVerbs = map[string]bool{
	"finished": true, "completed": true, "done": true, "quit": true,
	"started": true, "stopped": true, "read": true, "watched": true,
	"visited": true, "submitted": true, "passed": true, "failed": true,
	"booked": true, "cancelled": true, "canceled": true, "wrapped": true,
}

// temporalPhrases are explicit pointers into the shared past.
var temporalPhrases = []string{
	"last time", "last week", "last month", "last year", "the other day",
	"before", "previously", "earlier", "again", "yesterday",
	"we talked about", "we discussed", "you mentioned", "i told you",
	"remember when", "as i said",
}

var possessivePronouns = map[string]bool{
	"my": true, "our": true, "his": true, "her": true, "their": true, "its": true,
}

// namedEntityMention fires when the utterance names a specific entity: an NER
// hit or a proper-noun token.
func namedEntityMention(a *utteranceAnalysis) bool {
	if len(a.entities) > 0 {
		return true
	}
	for _, tok := range a.tokens {
		if isProperNounTag(tok.Tag) {
			return true
		}
	}
	return false
}

// possessiveReference fires on possessive pronoun + noun ("my daughter",
// "our trip to Kyoto").
func possessiveReference(a *utteranceAnalysis) bool {
	for i, tok := range a.tokens {
		if tok.Tag != "PRP$" && !possessivePronouns[a.lower[i]] {
			continue
		}
		// The noun usually follows immediately, sometimes after an adjective.
		for j := i + 1; j < len(a.tokens) && j <= i+2; j++ {
			if isNounTag(a.tokens[j].Tag) {
				return true
			}
		}
	}
	return false
}

// genericBackReference fires on determiner or possessive + a known
// back-reference noun ("the book", "that movie", "my doctor").
func genericBackReference(a *utteranceAnalysis) bool {
	for i, word := range a.lower {
		if !backReferenceNouns[word] {
			continue
		}
		if i == 0 {
			continue
		}
		prev := a.lower[i-1]
		if prev == "the" || prev == "that" || prev == "this" || possessivePronouns[prev] {
			return true
		}
	}
	return false
}

// completionStatement fires on "I finished X" style status updates: a
// first-person subject with a past-tense completion verb.
func completionStatement(a *utteranceAnalysis) bool {
	sawFirstPerson := false
	for i, tok := range a.tokens {
		if a.lower[i] == "i" || a.lower[i] == "we" {
			sawFirstPerson = true
			continue
		}
		if !sawFirstPerson {
			continue
		}
		if completionVerbs[a.lower[i]] && (isPastTenseTag(tok.Tag) || a.lower[i] == "done") {
			return true
		}
	}
	return false
}

// temporalBackReference fires on explicit temporal pointers to prior turns.
func temporalBackReference(a *utteranceAnalysis) bool {
	text := strings.ToLower(a.raw)
	for _, phrase := range temporalPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
