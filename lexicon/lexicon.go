// Package lexicon holds the wake phrases and command patterns the assistant
// understands. A Lexicon is built once at start-up and never mutated.
package lexicon

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/exp/slices"
)

type IntentID int

const (
	Unknown IntentID = iota
	OpenApp
	SystemControl
	NetworkToggle
	NetworkQuery
	SystemUtility
	TimeQuery
	WebSearch
)

var intentNames = map[IntentID]string{
	Unknown:       "unknown",
	OpenApp:       "open_app",
	SystemControl: "system_control",
	NetworkToggle: "network_toggle",
	NetworkQuery:  "network_query",
	SystemUtility: "system_utility",
	TimeQuery:     "time_query",
	WebSearch:     "web_search",
}

func (i IntentID) String() string {
	if s, ok := intentNames[i]; ok {
		return s
	}
	return fmt.Sprintf("intent(%d)", int(i))
}

func (i IntentID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *IntentID) UnmarshalText(b []byte) error {
	id, err := ParseIntent(string(b))
	if err != nil {
		return err
	}
	*i = id
	return nil
}

// ParseIntent resolves a snake_case intent name.
func ParseIntent(s string) (IntentID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for id, name := range intentNames {
		if name == s {
			return id, nil
		}
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnknownIntent, s)
}

type RuleKind int

const (
	RuleExact RuleKind = iota + 1
	RulePrefix
	RuleKeywords
)

var ruleNames = map[RuleKind]string{
	RuleExact:    "exact",
	RulePrefix:   "prefix",
	RuleKeywords: "keywords",
}

func (k RuleKind) String() string {
	if s, ok := ruleNames[k]; ok {
		return s
	}
	return fmt.Sprintf("rule(%d)", int(k))
}

func (k *RuleKind) UnmarshalText(b []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	for kind, name := range ruleNames {
		if name == s {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownRule, s)
}

// Parameter names shared by the lexicon and the action handlers.
const (
	ParamUtterance = "utterance"
	ParamApp       = "app"
	ParamAction    = "action"
	ParamDevice    = "device"
	ParamNetwork   = "network"
	ParamState     = "state"
	ParamQuery     = "query"
	ParamUtility   = "utility"
	ParamLevel     = "level"
	ParamKind      = "kind"
)

var (
	ErrUnknownIntent = errors.New("unknown intent")
	ErrUnknownRule   = errors.New("unknown rule kind")
	ErrEmptyPattern  = errors.New("pattern has no literal")
	ErrEmptyWake     = errors.New("empty wake phrase")
)

// CommandPattern maps one matching rule onto an intent.
//
// Exact matches the whole utterance. Prefix matches the leading words and,
// when Capture is set, stores the rest of the utterance under that
// parameter name (or the whole utterance with CaptureAll). Keywords scores
// the share of keywords found anywhere in the utterance.
type CommandPattern struct {
	Kind       RuleKind          `json:"type"`
	Phrase     string            `json:"phrase,omitempty"`
	Keywords   []string          `json:"keywords,omitempty"`
	Intent     IntentID          `json:"intent"`
	Capture    string            `json:"capture,omitempty"`
	CaptureAll bool              `json:"capture_all,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
}

// Literal returns the number of literal words the pattern pins down.
func (p CommandPattern) Literal() int {
	if p.Kind == RuleKeywords {
		return len(p.Keywords)
	}
	return len(Tokens(p.Phrase))
}

func (p CommandPattern) normalize() (CommandPattern, error) {
	out := p
	out.Phrase = Normalize(p.Phrase)
	out.Keywords = nil
	for _, k := range p.Keywords {
		if k = Normalize(k); k != "" {
			out.Keywords = append(out.Keywords, Tokens(k)...)
		}
	}
	out.Params = make(map[string]string, len(p.Params))
	for k, v := range p.Params {
		out.Params[k] = v
	}

	switch p.Kind {
	case RuleExact, RulePrefix:
		if out.Phrase == "" {
			return out, fmt.Errorf("%w: %s %s", ErrEmptyPattern, p.Kind, p.Intent)
		}
	case RuleKeywords:
		if len(out.Keywords) == 0 {
			return out, fmt.Errorf("%w: %s %s", ErrEmptyPattern, p.Kind, p.Intent)
		}
	default:
		return out, fmt.Errorf("%w: %d", ErrUnknownRule, int(p.Kind))
	}
	if p.Intent == Unknown {
		return out, fmt.Errorf("%w: pattern %q maps to unknown", ErrUnknownIntent, p.Phrase)
	}
	return out, nil
}

type Lexicon struct {
	wakes    []string
	patterns []CommandPattern
}

// New normalizes and validates the entries. Duplicate wake phrases are
// collapsed; pattern order is kept because it breaks ties when matching.
func New(wakes []string, patterns []CommandPattern) (*Lexicon, error) {
	l := &Lexicon{}
	for _, w := range wakes {
		w = Normalize(w)
		if w == "" {
			return nil, ErrEmptyWake
		}
		if !slices.Contains(l.wakes, w) {
			l.wakes = append(l.wakes, w)
		}
	}
	for _, p := range patterns {
		n, err := p.normalize()
		if err != nil {
			return nil, err
		}
		l.patterns = append(l.patterns, n)
	}
	return l, nil
}

// Extend returns a new Lexicon with extra entries appended after the
// receiver's own.
func (l *Lexicon) Extend(wakes []string, patterns []CommandPattern) (*Lexicon, error) {
	return New(append(l.WakePhrases(), wakes...), append(l.Patterns(), patterns...))
}

func (l *Lexicon) WakePhrases() []string {
	return slices.Clone(l.wakes)
}

func (l *Lexicon) Patterns() []CommandPattern {
	out := make([]CommandPattern, len(l.patterns))
	for i, p := range l.patterns {
		out[i] = p
		out[i].Keywords = slices.Clone(p.Keywords)
		out[i].Params = make(map[string]string, len(p.Params))
		for k, v := range p.Params {
			out[i].Params[k] = v
		}
	}
	return out
}

// Normalize lower-cases s, drops apostrophes and hyphens inside words
// ("what's" -> "whats", "wi-fi" -> "wifi"), turns any other punctuation into
// a word break and collapses whitespace.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r == '\'' || r == '’' || r == '-':
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			space = false
		default:
			if !space {
				b.WriteByte(' ')
				space = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func Tokens(s string) []string {
	return strings.Fields(s)
}
