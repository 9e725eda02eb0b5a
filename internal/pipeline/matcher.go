package pipeline

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/wonny/astrobet/internal/contracts"
)

// MatchMethod records how an entity was linked to its statistics
type MatchMethod string

const (
	MatchByExternalID MatchMethod = "external_id"
	MatchByName       MatchMethod = "name"
	MatchNone         MatchMethod = "none"
)

// nameSuffixes are generational suffixes dropped before comparing names
var nameSuffixes = map[string]bool{"jr": true, "sr": true, "ii": true, "iii": true, "iv": true}

// Matcher links internal entities to records from a statistics source whose
// identifier space only partially overlaps ours.
// ⭐ SSOT: 외부 ID ↔ 내부 ID 매칭은 여기서만
type Matcher struct {
	byID   map[string]int
	byName map[string][]int
	stats  []contracts.StatisticRecord
}

// NewMatcher indexes records by external id and normalized name.
// Duplicate external ids keep the first record.
func NewMatcher(records []contracts.StatisticRecord) *Matcher {
	m := &Matcher{
		byID:   make(map[string]int, len(records)),
		byName: make(map[string][]int, len(records)),
		stats:  records,
	}

	for i, r := range records {
		if id := strings.TrimSpace(r.ExternalID); id != "" {
			if _, exists := m.byID[id]; !exists {
				m.byID[id] = i
			}
		}
		if key := NormalizeName(r.Name); key != "" {
			m.byName[key] = append(m.byName[key], i)
		}
	}

	return m
}

// Len returns the number of indexed records
func (m *Matcher) Len() int {
	return len(m.stats)
}

// Match finds the record for an entity: external id first, then a unique
// normalized name. Ambiguous names do not match.
func (m *Matcher) Match(e contracts.Entity) (contracts.StatisticRecord, MatchMethod, bool) {
	if id := strings.TrimSpace(e.ExternalID); id != "" {
		if i, ok := m.byID[id]; ok {
			return m.stats[i], MatchByExternalID, true
		}
	}

	if key := NormalizeName(e.Name); key != "" {
		if idx := m.byName[key]; len(idx) == 1 {
			return m.stats[idx[0]], MatchByName, true
		}
	}

	return contracts.StatisticRecord{}, MatchNone, false
}

// NormalizeName folds case and diacritics, drops punctuation and
// generational suffixes: "Nikola Jokić" == "nikola jokic", "P.J. Tucker" == "pj tucker".
func NormalizeName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-':
			b.WriteRune(' ')
		}
	}

	words := strings.Fields(b.String())
	for len(words) > 1 && nameSuffixes[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}
