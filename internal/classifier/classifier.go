// Package classifier maps free-text absence reasons onto the canonical reason
// taxonomy by approximate matching against a synonym table.
package classifier

import (
	"sort"

	"github.com/sirupsen/logrus"

	"absence-assistant/internal/models"
)

// DefaultThreshold is the score a match must exceed to be trusted.
const DefaultThreshold = 70.0

// DefaultSynonyms is the built-in synonym table.
var DefaultSynonyms = map[models.Reason][]string{
	models.ReasonSick: {
		"sick", "ill", "unwell", "not feeling well", "under the weather",
		"sick leave", "illness", "flu", "fever", "medical appointment",
		"doctor appointment", "malade",
	},
	models.ReasonRemoteNotLogged: {
		"remote not logged", "remote", "worked remotely", "worked from home",
		"wfh", "home office", "telework", "forgot to log remote",
	},
	models.ReasonUnjustified: {
		"unjustified", "unexcused", "no reason", "no show", "skipped work",
		"missed work", "personal reasons",
	},
}

// Classification is the outcome of classifying one free-text reason.
type Classification struct {
	Input          string        `json:"input"`
	Reason         models.Reason `json:"reason"`
	Confidence     float64       `json:"confidence"`
	MatchedSynonym string        `json:"matched_synonym,omitempty"`
	LowConfidence  bool          `json:"low_confidence"`
}

type synonymGroup struct {
	reason  models.Reason
	phrases []string
}

// Classifier is safe for concurrent use; it holds no mutable state.
type Classifier struct {
	groups    []synonymGroup
	scorer    Scorer
	threshold float64
	fallback  models.Reason
	logger    *logrus.Logger
}

type Option func(*Classifier)

// WithScorer swaps the similarity algorithm.
func WithScorer(s Scorer) Option {
	return func(c *Classifier) { c.scorer = s }
}

func WithThreshold(threshold float64) Option {
	return func(c *Classifier) { c.threshold = threshold }
}

// WithFallback sets the reason returned for low-confidence input.
func WithFallback(r models.Reason) Option {
	return func(c *Classifier) { c.fallback = r }
}

// WithSynonyms replaces the synonym table.
func WithSynonyms(table map[models.Reason][]string) Option {
	return func(c *Classifier) { c.groups = buildGroups(table) }
}

func New(logger *logrus.Logger, opts ...Option) *Classifier {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	c := &Classifier{
		groups:    buildGroups(DefaultSynonyms),
		scorer:    TokenSetScorer{},
		threshold: DefaultThreshold,
		fallback:  models.ReasonUnjustified,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// buildGroups orders reasons by the taxonomy priority so ties resolve to the
// more specific reason, then any unknown reasons alphabetically.
func buildGroups(table map[models.Reason][]string) []synonymGroup {
	var groups []synonymGroup
	seen := make(map[models.Reason]bool)
	for _, r := range models.Reasons {
		if phrases, ok := table[r]; ok {
			groups = append(groups, synonymGroup{reason: r, phrases: normalizeAll(phrases)})
			seen[r] = true
		}
	}

	var extra []models.Reason
	for r := range table {
		if !seen[r] {
			extra = append(extra, r)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	for _, r := range extra {
		groups = append(groups, synonymGroup{reason: r, phrases: normalizeAll(table[r])})
	}
	return groups
}

func normalizeAll(phrases []string) []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if n := Normalize(p); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Classify never fails: empty or unrecognizable text resolves to the
// fallback reason with LowConfidence set, and the fallback is logged.
func (c *Classifier) Classify(text string) Classification {
	input := Normalize(text)

	var (
		best       float64
		bestReason models.Reason
		bestPhrase string
	)
	if input != "" {
		for _, g := range c.groups {
			for _, phrase := range g.phrases {
				// strictly greater keeps the earliest, most specific match on ties
				if score := c.scorer.Score(input, phrase); score > best {
					best, bestReason, bestPhrase = score, g.reason, phrase
				}
			}
		}
	}

	if best > c.threshold {
		return Classification{
			Input:          text,
			Reason:         bestReason,
			Confidence:     best,
			MatchedSynonym: bestPhrase,
		}
	}

	c.logger.WithFields(logrus.Fields{
		"input":      text,
		"best_match": bestPhrase,
		"best_score": best,
		"threshold":  c.threshold,
		"fallback":   c.fallback,
	}).Warn("Low-confidence absence reason, using fallback")

	return Classification{
		Input:          text,
		Reason:         c.fallback,
		Confidence:     best,
		MatchedSynonym: bestPhrase,
		LowConfidence:  true,
	}
}
