package reconcile

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"course-cert/internal/domain"
)

// keyKind orders the lookup waterfall. Lower kinds are tried first.
type keyKind int

const (
	kindEmail keyKind = iota
	kindFirstLast
	kindLastFirst
	kindConcat
	kindFirstOnly
	kindLastOnly
)

func (k keyKind) weak() bool { return k >= kindFirstOnly }

type identityKey struct {
	kind  keyKind
	value string
}

// NamePart folds a name fragment for comparison: lower case, diacritics
// removed, punctuation and whitespace stripped.
func NamePart(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// keysFor lists the identity keys of a person in waterfall order.
func keysFor(first, last, email string) []identityKey {
	var keys []identityKey
	if e := strings.ToLower(strings.TrimSpace(email)); e != "" {
		keys = append(keys, identityKey{kindEmail, e})
	}
	f, l := NamePart(first), NamePart(last)
	if f != "" && l != "" {
		keys = append(keys,
			identityKey{kindFirstLast, f + " " + l},
			identityKey{kindLastFirst, l + ", " + f},
			identityKey{kindConcat, f + l},
			identityKey{kindConcat, l + f},
		)
	}
	if f != "" {
		keys = append(keys, identityKey{kindFirstOnly, f})
	}
	if l != "" {
		keys = append(keys, identityKey{kindLastOnly, l})
	}
	return keys
}

// Index resolves assessment identities to enrollment aggregates. Every
// aggregate is registered under all of its key variants; the index only holds
// pointers into the aggregate table owned by the caller. Keys carry their kind,
// so a first-name-only key never answers a last-name-only lookup.
type Index struct {
	strong    map[identityKey]*domain.StudentAggregate
	weak      map[identityKey]*domain.StudentAggregate
	ambiguous map[identityKey]bool
}

func NewIndex() *Index {
	return &Index{
		strong:    map[identityKey]*domain.StudentAggregate{},
		weak:      map[identityKey]*domain.StudentAggregate{},
		ambiguous: map[identityKey]bool{},
	}
}

// Add registers agg. Strong keys keep their first owner. A weak key claimed
// by two different students is dropped, so it never matches.
func (ix *Index) Add(agg *domain.StudentAggregate) {
	for _, k := range keysFor(agg.FirstName, agg.LastName, agg.Email) {
		if !k.kind.weak() {
			if _, taken := ix.strong[k]; !taken {
				ix.strong[k] = agg
			}
			continue
		}
		if ix.ambiguous[k] {
			continue
		}
		if owner, taken := ix.weak[k]; taken {
			if owner != agg {
				delete(ix.weak, k)
				ix.ambiguous[k] = true
			}
			continue
		}
		ix.weak[k] = agg
	}
}

// Lookup walks the waterfall for a person and returns the first hit.
func (ix *Index) Lookup(first, last, email string) (*domain.StudentAggregate, bool) {
	for _, k := range keysFor(first, last, email) {
		m := ix.strong
		if k.kind.weak() {
			m = ix.weak
		}
		if agg, ok := m[k]; ok {
			return agg, true
		}
	}
	return nil, false
}
