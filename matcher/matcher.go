// Package matcher turns normalized utterances into wake and command matches
// using a lexicon. A Matcher is immutable and safe for concurrent use.
package matcher

import (
	"sort"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"golang.org/x/exp/slices"

	"github.com/playmixer/nova/lexicon"
)

const (
	// DefaultMinConfidence is used when New gets a non-positive threshold.
	DefaultMinConfidence = 0.6

	// F_MIN_RATIO is the fuzzy ratio a token needs to count as a keyword hit.
	F_MIN_RATIO = 90
	// F_MIN_LEN is the shortest keyword compared fuzzily; shorter ones
	// ("on", "ip") must match exactly.
	F_MIN_LEN = 4
)

type WakeMatch struct {
	Phrase    string
	Remainder string
}

type Match struct {
	Intent     lexicon.IntentID
	Params     map[string]string
	Confidence float64
	// Pattern is the index of the winning pattern in the lexicon, -1 for
	// Unknown.
	Pattern int
}

func (m Match) Known() bool {
	return m.Intent != lexicon.Unknown
}

type wake struct {
	phrase string
	tokens []string
}

type Matcher struct {
	lex           *lexicon.Lexicon
	patterns      []lexicon.CommandPattern
	wakes         []wake
	minConfidence float64
}

func New(lex *lexicon.Lexicon, minConfidence float64) *Matcher {
	if minConfidence <= 0 || minConfidence > 1 {
		minConfidence = DefaultMinConfidence
	}
	m := &Matcher{
		lex:           lex,
		patterns:      lex.Patterns(),
		minConfidence: minConfidence,
	}
	for _, w := range lex.WakePhrases() {
		m.wakes = append(m.wakes, wake{phrase: w, tokens: lexicon.Tokens(w)})
	}
	sort.SliceStable(m.wakes, func(i, j int) bool {
		return len(m.wakes[i].phrase) > len(m.wakes[j].phrase)
	})
	return m
}

func (m *Matcher) MinConfidence() float64 {
	return m.minConfidence
}

// MatchWake returns the longest wake phrase that opens the utterance on a
// word boundary, together with whatever follows it.
func (m *Matcher) MatchWake(text string) (WakeMatch, bool) {
	tokens := lexicon.Tokens(lexicon.Normalize(text))
	if len(tokens) == 0 {
		return WakeMatch{}, false
	}
	for _, w := range m.wakes {
		if hasPrefix(tokens, w.tokens) {
			return WakeMatch{
				Phrase:    w.phrase,
				Remainder: strings.Join(tokens[len(w.tokens):], " "),
			}, true
		}
	}
	return WakeMatch{}, false
}

// MatchCommand returns the best candidate clearing the confidence threshold,
// or an Unknown match with zero confidence.
func (m *Matcher) MatchCommand(text string) Match {
	for _, c := range m.Candidates(text) {
		if c.Confidence >= m.minConfidence {
			return c
		}
	}
	return Match{Intent: lexicon.Unknown, Params: map[string]string{}, Pattern: -1}
}

type candidate struct {
	Match
	literal bool
	weight  int
}

// Candidates lists every pattern that scored above zero, most preferred
// first: literal patterns (exact and prefix) by phrase length, then keyword
// sets by confidence and size. Registration order breaks remaining ties.
func (m *Matcher) Candidates(text string) []Match {
	norm := lexicon.Normalize(text)
	tokens := lexicon.Tokens(norm)
	if len(tokens) == 0 {
		return nil
	}

	var found []candidate
	for i, p := range m.patterns {
		conf, params := score(p, norm, tokens)
		if conf <= 0 {
			continue
		}
		params[lexicon.ParamUtterance] = norm
		found = append(found, candidate{
			Match:   Match{Intent: p.Intent, Params: params, Confidence: conf, Pattern: i},
			literal: p.Kind != lexicon.RuleKeywords,
			weight:  p.Literal(),
		})
	}

	sort.SliceStable(found, func(i, j int) bool {
		a, b := found[i], found[j]
		if a.literal != b.literal {
			return a.literal
		}
		if a.literal {
			return a.weight > b.weight
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.weight > b.weight
	})

	out := make([]Match, len(found))
	for i := range found {
		out[i] = found[i].Match
	}
	return out
}

func score(p lexicon.CommandPattern, norm string, tokens []string) (float64, map[string]string) {
	params := make(map[string]string, len(p.Params)+2)
	for k, v := range p.Params {
		params[k] = v
	}

	switch p.Kind {
	case lexicon.RuleExact:
		if norm == p.Phrase {
			return 1, params
		}
	case lexicon.RulePrefix:
		lit := lexicon.Tokens(p.Phrase)
		if !hasPrefix(tokens, lit) {
			return 0, nil
		}
		rest := strings.Join(tokens[len(lit):], " ")
		if p.Capture != "" {
			if rest == "" {
				return 0, nil
			}
			if p.CaptureAll {
				params[p.Capture] = norm
			} else {
				params[p.Capture] = rest
			}
		}
		return 1, params
	case lexicon.RuleKeywords:
		hit := 0
		for _, k := range p.Keywords {
			if containsToken(tokens, k) {
				hit++
			}
		}
		if hit == 0 {
			return 0, nil
		}
		return float64(hit) / float64(len(p.Keywords)), params
	}
	return 0, nil
}

func hasPrefix(tokens, prefix []string) bool {
	if len(prefix) == 0 || len(prefix) > len(tokens) {
		return false
	}
	return slices.Equal(tokens[:len(prefix)], prefix)
}

func containsToken(tokens []string, keyword string) bool {
	if slices.Contains(tokens, keyword) {
		return true
	}
	if len([]rune(keyword)) < F_MIN_LEN {
		return false
	}
	for _, t := range tokens {
		if fuzzy.Ratio(keyword, t) >= F_MIN_RATIO {
			return true
		}
	}
	return false
}
