package classifier

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Scorer rates the similarity of two normalized strings on a 0..100 scale.
type Scorer interface {
	Score(a, b string) float64
}

// ScorerFunc adapts a plain function to Scorer.
type ScorerFunc func(a, b string) float64

func (f ScorerFunc) Score(a, b string) float64 { return f(a, b) }

// Normalize folds case, strips diacritics and collapses every run of
// non-alphanumeric characters into a single space.
func Normalize(s string) string {
	// transformers and casers keep state, so they are built per call
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(stripMarks, s); err == nil {
		s = stripped
	}
	s = cases.Fold().String(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}

// TokenSetScorer compares the sets of words of both strings, so word order,
// repeated words and extra surrounding words do not lower the score: "i am
// feeling unwell" scores 100 against "unwell". Character-level differences
// inside words are scored with an indel ratio, so typos score high.
type TokenSetScorer struct{}

func (TokenSetScorer) Score(a, b string) float64 {
	return round2(math.Max(tokenSetRatio(a, b), Ratio(a, b)))
}

// Ratio is the normalized indel similarity of a and b: 100 for equal strings,
// 0 when they share no character in order.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 || len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	// substitution counts as delete + insert
	dist := editDistance(ra, rb, 2)
	return round2(100 * float64(total-dist) / float64(total))
}

func tokenSetRatio(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var inter, onlyA, onlyB []string
	for tok := range ta {
		if tb[tok] {
			inter = append(inter, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range tb {
		if !ta[tok] {
			onlyB = append(onlyB, tok)
		}
	}

	sect := joinSorted(inter)
	diffA := joinSorted(onlyA)
	diffB := joinSorted(onlyB)

	// one side is a subset of the other
	if sect != "" && (diffA == "" || diffB == "") {
		return 100
	}

	combA := strings.TrimSpace(sect + " " + diffA)
	combB := strings.TrimSpace(sect + " " + diffB)

	best := Ratio(combA, combB)
	if sect != "" {
		best = math.Max(best, math.Max(Ratio(sect, combA), Ratio(sect, combB)))
	}
	return best
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

func joinSorted(tokens []string) string {
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// editDistance is the Levenshtein distance between a and b with a custom
// substitution cost, kept to a single row of the distance matrix.
func editDistance(a, b []rune, substitutionCost int) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	if len(a) > len(b) {
		a, b = b, a
	}

	previous := make([]int, len(a)+1)
	for i := range previous {
		previous[i] = i
	}

	for j := 1; j <= len(b); j++ {
		current := make([]int, len(a)+1)
		current[0] = j

		for i := 1; i <= len(a); i++ {
			cost := substitutionCost
			if a[i-1] == b[j-1] {
				cost = 0
			}

			deletion := previous[i] + 1
			insertion := current[i-1] + 1
			substitution := previous[i-1] + cost

			current[i] = min(deletion, insertion, substitution)
		}

		previous = current
	}

	return previous[len(a)]
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
