package match

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Name composite weights. The 40/40/20 split between edit distance, character
// overlap, and phonetic equality is a tuned behavioral constant; change it and
// historical decisions stop being reproducible.
const (
	nameEditWeight     = 0.4
	nameOverlapWeight  = 0.4
	namePhoneticWeight = 0.2

	// tokenMatchBar is the per-token similarity above which a token counts
	// as matched in multi-token name comparison.
	tokenMatchBar = 0.8
)

// Engine computes similarity scores in [0,1] between two values of the same
// field type. Deterministic: no randomness, no external calls.
type Engine struct {
	norm *Normalizer
}

// NewEngine builds a similarity engine sharing the given normalizer.
func NewEngine(norm *Normalizer) *Engine {
	return &Engine{norm: norm}
}

// Similarity scores a against b for the given field type. Inputs are
// normalized first, so callers may pass raw values.
func (e *Engine) Similarity(a, b string, ft FieldType) float64 {
	na := e.norm.Normalize(a, ft)
	nb := e.norm.Normalize(b, ft)

	if na == nb {
		return 1.0
	}

	switch ft {
	case FieldIDNum, FieldLicense, FieldEmail:
		// Unique identifiers: partial similarity is meaningless and
		// dangerous to accept.
		return 0.0
	case FieldGender:
		return 0.0
	case FieldDate:
		return e.dateSimilarity(na, nb)
	case FieldPhone:
		return e.phoneSimilarity(na, nb)
	case FieldName:
		return nameSimilarity(na, nb)
	default:
		return overlapRatio(na, nb)
	}
}

// dateSimilarity is binary on calendar-date equality. If either side fails to
// parse, fall back to generic string similarity so formatting noise does not
// silently fail the field.
func (e *Engine) dateSimilarity(a, b string) float64 {
	ta, okA := parseDate(a)
	tb, okB := parseDate(b)
	if okA && okB {
		if ta.Equal(tb) {
			return 1.0
		}
		return 0.0
	}
	return overlapRatio(a, b)
}

// phoneSimilarity compares with the country code stripped from both sides.
func (e *Engine) phoneSimilarity(a, b string) float64 {
	if e.norm.stripCountryCode(a) == e.norm.stripCountryCode(b) {
		return 1.0
	}
	return 0.0
}

// nameSimilarity blends edit distance, character overlap, and phonetic
// equality. Multi-token names additionally get a token-set score and the
// better of the two wins.
func nameSimilarity(a, b string) float64 {
	composite := nameEditWeight*editSimilarity(a, b) +
		nameOverlapWeight*overlapRatio(a, b) +
		namePhoneticWeight*phoneticEquality(a, b)

	if strings.ContainsRune(a, ' ') || strings.ContainsRune(b, ' ') {
		if ts := tokenSetSimilarity(a, b); ts > composite {
			return ts
		}
	}
	return composite
}

// editSimilarity is 1 minus the normalized Levenshtein distance.
func editSimilarity(a, b string) float64 {
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(d)/float64(maxLen)
}

// overlapRatio is the share of characters covered by the longest common
// subsequence of the two values.
func overlapRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	maxLen := max(len(ra), len(rb))
	if maxLen == 0 {
		return 1.0
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}
	return float64(lcsLength(ra, rb)) / float64(maxLen)
}

func lcsLength(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else {
				cur[j] = max(prev[j], cur[j-1])
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func phoneticEquality(a, b string) float64 {
	if soundex(a) == soundex(b) {
		return 1.0
	}
	return 0.0
}

// tokenSetSimilarity takes each token of a to its best match in b; a token
// counts as matched when its best similarity clears tokenMatchBar. The score
// is matched tokens over the larger token count.
func tokenSetSimilarity(a, b string) float64 {
	tokensA := strings.Fields(a)
	tokensB := strings.Fields(b)
	maxTokens := max(len(tokensA), len(tokensB))
	if maxTokens == 0 {
		return 1.0
	}

	matched := 0
	for _, ta := range tokensA {
		best := 0.0
		for _, tb := range tokensB {
			s := nameEditWeight*editSimilarity(ta, tb) +
				nameOverlapWeight*overlapRatio(ta, tb) +
				namePhoneticWeight*phoneticEquality(ta, tb)
			if ta == tb {
				s = 1.0
			}
			if s > best {
				best = s
			}
		}
		if best > tokenMatchBar {
			matched++
		}
	}
	return float64(matched) / float64(maxTokens)
}
