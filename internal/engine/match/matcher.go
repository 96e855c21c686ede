// Package match implements the multi-tier identity-resolution engine:
// deterministic identifier tiers first, token-set name similarity second.
//
// Tier priority is strict. A record is compared by normalized primary
// identifier, then normalized secondary identifier, then fuzzy name score
// against every reference entry; the first tier that succeeds wins. The
// engine is pure — matching performs no I/O and identical inputs always
// produce the identical Result.
package match

import (
	"errors"
	"fmt"
	"sort"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Matcher construction errors.
var (
	ErrThresholdRange = errors.New("thresholds must be between 0 and 100")
	ErrThresholdOrder = errors.New("low threshold must not exceed high threshold")
	ErrTopKInvalid    = errors.New("top-k must be a positive integer")
)

// Options configure threshold policy for a Matcher.
type Options struct {
	// HighThreshold auto-accepts fuzzy matches scoring at or above it.
	HighThreshold float64
	// LowThreshold retains review candidates scoring at or above it.
	LowThreshold float64
	// TopK bounds the number of candidates retained per record.
	TopK int
}

// Matcher resolves records against a fixed reference set. It precomputes
// identifier indexes and normalized names once, then Match is read-only
// and safe for concurrent use.
type Matcher struct {
	refs []ReferenceEntry
	opts Options

	// First occurrence wins so equal identifiers resolve to the earliest
	// reference entry, keeping results deterministic.
	byUEI  map[string]int
	byDUNS map[string]int

	// names[i] is the normalized name of refs[i], "" when unusable.
	names []string
}

// NewMatcher builds a Matcher over refs. The reference set is not copied;
// callers must not mutate it for the lifetime of the Matcher.
func NewMatcher(refs []ReferenceEntry, opts Options) (*Matcher, error) {
	if opts.HighThreshold < 0 || opts.HighThreshold > 100 ||
		opts.LowThreshold < 0 || opts.LowThreshold > 100 {
		return nil, fmt.Errorf("%w: high=%.2f low=%.2f", ErrThresholdRange,
			opts.HighThreshold, opts.LowThreshold)
	}
	if opts.LowThreshold > opts.HighThreshold {
		return nil, fmt.Errorf("%w: %.2f > %.2f", ErrThresholdOrder,
			opts.LowThreshold, opts.HighThreshold)
	}
	if opts.TopK < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrTopKInvalid, opts.TopK)
	}

	m := &Matcher{
		refs:   refs,
		opts:   opts,
		byUEI:  make(map[string]int, len(refs)),
		byDUNS: make(map[string]int, len(refs)),
		names:  make([]string, len(refs)),
	}

	for i, ref := range refs {
		if uei := NormalizeUEI(ref.UEI); uei != "" {
			if _, seen := m.byUEI[uei]; !seen {
				m.byUEI[uei] = i
			}
		}
		if duns := NormalizeDUNS(ref.DUNS); duns != "" {
			if _, seen := m.byDUNS[duns]; !seen {
				m.byDUNS[duns] = i
			}
		}
		m.names[i] = NormalizeName(ref.Name)
	}

	return m, nil
}

// ReferenceCount returns the size of the reference set.
func (m *Matcher) ReferenceCount() int {
	return len(m.refs)
}

// Match resolves one record. Tiers run in strict priority order and the
// first success short-circuits the rest.
func (m *Matcher) Match(rec Record) Result {
	if uei := NormalizeUEI(rec.UEI); uei != "" {
		if idx, ok := m.byUEI[uei]; ok {
			return m.exactResult(MethodExactPrimary, idx)
		}
	}

	if duns := NormalizeDUNS(rec.DUNS); duns != "" {
		if idx, ok := m.byDUNS[duns]; ok {
			return m.exactResult(MethodExactSecondary, idx)
		}
	}

	return m.matchFuzzy(rec)
}

func (m *Matcher) exactResult(method Method, idx int) Result {
	return Result{
		Method:   method,
		Score:    100,
		HasScore: true,
		RefID:    m.refs[idx].ID,
		RefIndex: idx,
	}
}

// matchFuzzy scores the record's normalized name against every reference
// entry with a usable name. This is a full scan, O(reference set) per
// unmatched record; acceptable while the reference set fits in memory.
func (m *Matcher) matchFuzzy(rec Record) Result {
	unmatched := Result{Method: MethodNone, RefIndex: -1}

	name := NormalizeName(rec.Name)
	if name == "" {
		return unmatched
	}

	var candidates []Candidate
	for i, refName := range m.names {
		if refName == "" {
			continue
		}
		score := float64(fuzzy.TokenSetRatio(name, refName))
		if score >= m.opts.LowThreshold {
			candidates = append(candidates, Candidate{
				RefIndex: i,
				RefID:    m.refs[i].ID,
				Score:    score,
			})
		}
	}

	if len(candidates) == 0 {
		return unmatched
	}

	// Highest score first; equal scores keep reference-set order so the
	// earliest entry wins ties.
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Score > candidates[b].Score
	})
	if len(candidates) > m.opts.TopK {
		candidates = candidates[:m.opts.TopK]
	}

	best := candidates[0]
	if best.Score >= m.opts.HighThreshold {
		return Result{
			Method:     MethodFuzzyAuto,
			Score:      best.Score,
			HasScore:   true,
			RefID:      best.RefID,
			RefIndex:   best.RefIndex,
			Candidates: candidates,
		}
	}

	// Review band: score recorded, no reference assignment.
	return Result{
		Method:     MethodFuzzyCandidate,
		Score:      best.Score,
		HasScore:   true,
		RefIndex:   -1,
		Candidates: candidates,
	}
}
