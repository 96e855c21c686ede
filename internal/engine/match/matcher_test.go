package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	return Options{HighThreshold: 90, LowThreshold: 70, TopK: 5}
}

func TestNormalizeUEI(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"u1", "U1"},
		{" ab-12 cd ", "AB-12CD"},
		{"J7M9HPTGJ1S4", "J7M9HPTGJ1S4"},
		{"j7m9.hptgj1s4!", "J7M9HPTGJ1S4"},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, NormalizeUEI(tc.in), "input %q", tc.in)
	}
}

func TestNormalizeDUNS(t *testing.T) {
	assert.Equal(t, "069858217", NormalizeDUNS("06-985-8217"))
	assert.Equal(t, "069858217", NormalizeDUNS("069858217"))
	assert.Equal(t, "", NormalizeDUNS("no digits"))
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Corporation", "acme"},
		{"Acme Corp.", "acme"},
		{"ACME, Inc.", "acme"},
		{"Acme Widgets LLC", "acme widgets"},
		{"Acme   Widgets  Co", "acme widgets"},
		// Suffix tokens survive at the head of a name.
		{"Limited Brands", "limited brands"},
		// A bare suffix token is never stripped to empty.
		{"Inc", "inc"},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, NormalizeName(tc.in), "input %q", tc.in)
	}
}

func TestNewMatcherValidation(t *testing.T) {
	refs := []ReferenceEntry{{ID: "r1", Name: "Acme"}}

	_, err := NewMatcher(refs, Options{HighThreshold: 120, LowThreshold: 70, TopK: 5})
	assert.ErrorIs(t, err, ErrThresholdRange)

	_, err = NewMatcher(refs, Options{HighThreshold: 70, LowThreshold: 90, TopK: 5})
	assert.ErrorIs(t, err, ErrThresholdOrder)

	_, err = NewMatcher(refs, Options{HighThreshold: 90, LowThreshold: 70, TopK: 0})
	assert.ErrorIs(t, err, ErrTopKInvalid)
}

func TestMatchExactPrimary(t *testing.T) {
	refs := []ReferenceEntry{
		{ID: "ref-0", UEI: "ZZZZZZZZZZZZ", Name: "Other"},
		{ID: "ref-1", UEI: "U1", Name: "Acme"},
	}
	m, err := NewMatcher(refs, testOptions())
	require.NoError(t, err)

	res := m.Match(Record{ID: "A", UEI: "u1"})
	assert.Equal(t, MethodExactPrimary, res.Method)
	assert.True(t, res.HasScore)
	assert.Equal(t, 100.0, res.Score)
	assert.Equal(t, "ref-1", res.RefID)
	assert.Equal(t, 1, res.RefIndex)
	assert.True(t, res.Method.Assigned())
}

func TestMatchExactSecondary(t *testing.T) {
	refs := []ReferenceEntry{
		{ID: "ref-0", DUNS: "069858217", Name: "Acme"},
	}
	m, err := NewMatcher(refs, testOptions())
	require.NoError(t, err)

	res := m.Match(Record{ID: "B", DUNS: "06-985-8217"})
	assert.Equal(t, MethodExactSecondary, res.Method)
	assert.Equal(t, 100.0, res.Score)
	assert.Equal(t, "ref-0", res.RefID)
}

func TestMatchTierPriority(t *testing.T) {
	// The record's UEI and DUNS point at different entries; the primary
	// tier must win and the secondary tier must never run.
	refs := []ReferenceEntry{
		{ID: "by-duns", DUNS: "111111111", Name: "Acme"},
		{ID: "by-uei", UEI: "U1", Name: "Zebra"},
	}
	m, err := NewMatcher(refs, testOptions())
	require.NoError(t, err)

	res := m.Match(Record{UEI: "U1", DUNS: "111111111", Name: "Acme"})
	assert.Equal(t, MethodExactPrimary, res.Method)
	assert.Equal(t, "by-uei", res.RefID)
}

func TestMatchFuzzyAuto(t *testing.T) {
	// Scenario: "Acme Corp" vs "Acme Corporation" — both normalize to
	// "acme", so the token-set score is 100 and the match auto-accepts.
	refs := []ReferenceEntry{{ID: "ref-0", Name: "Acme Corporation"}}
	m, err := NewMatcher(refs, testOptions())
	require.NoError(t, err)

	res := m.Match(Record{ID: "B", Name: "Acme Corp"})
	assert.Equal(t, MethodFuzzyAuto, res.Method)
	require.True(t, res.HasScore)
	assert.GreaterOrEqual(t, res.Score, 90.0)
	assert.LessOrEqual(t, res.Score, 100.0)
	assert.Equal(t, "ref-0", res.RefID)
	require.NotEmpty(t, res.Candidates)
	assert.Equal(t, res.Score, res.Candidates[0].Score)
}

func TestMatchFuzzyCandidate(t *testing.T) {
	// Partial token overlap lands in the review band: score recorded, no
	// reference assignment.
	refs := []ReferenceEntry{{ID: "ref-0", Name: "Northern Lights Brewing"}}
	m, err := NewMatcher(refs, testOptions())
	require.NoError(t, err)

	res := m.Match(Record{ID: "C", Name: "Northern Lights Bakery"})
	assert.Equal(t, MethodFuzzyCandidate, res.Method)
	require.True(t, res.HasScore)
	assert.GreaterOrEqual(t, res.Score, 70.0)
	assert.Less(t, res.Score, 90.0)
	assert.Empty(t, res.RefID)
	assert.Equal(t, -1, res.RefIndex)
	assert.False(t, res.Method.Assigned())
}

func TestMatchNone(t *testing.T) {
	refs := []ReferenceEntry{{ID: "ref-0", Name: "Acme"}}
	m, err := NewMatcher(refs, testOptions())
	require.NoError(t, err)

	t.Run("UnrelatedName", func(t *testing.T) {
		res := m.Match(Record{ID: "D", Name: "Zebra Quantum Logistics"})
		assert.Equal(t, MethodNone, res.Method)
		assert.False(t, res.HasScore)
		assert.Empty(t, res.RefID)
		assert.Empty(t, res.Candidates)
	})

	t.Run("EmptyRecord", func(t *testing.T) {
		res := m.Match(Record{ID: "E"})
		assert.Equal(t, MethodNone, res.Method)
		assert.False(t, res.HasScore)
	})
}

func TestMatchTieBreakEarliestIndex(t *testing.T) {
	// Identical names at indexes 1 and 3 both score 100; the earliest
	// reference entry must win.
	refs := []ReferenceEntry{
		{ID: "ref-0", Name: "Unrelated Consulting Group"},
		{ID: "ref-1", Name: "Acme"},
		{ID: "ref-2", Name: "Another Unrelated Entity"},
		{ID: "ref-3", Name: "Acme Inc"},
	}
	m, err := NewMatcher(refs, testOptions())
	require.NoError(t, err)

	res := m.Match(Record{ID: "F", Name: "Acme Incorporated"})
	assert.Equal(t, MethodFuzzyAuto, res.Method)
	assert.Equal(t, 1, res.RefIndex)
	assert.Equal(t, "ref-1", res.RefID)
}

func TestMatchTopKTruncation(t *testing.T) {
	refs := []ReferenceEntry{
		{ID: "ref-0", Name: "Acme"},
		{ID: "ref-1", Name: "Acme Inc"},
		{ID: "ref-2", Name: "Acme LLC"},
		{ID: "ref-3", Name: "Acme Corp"},
	}
	m, err := NewMatcher(refs, Options{HighThreshold: 90, LowThreshold: 70, TopK: 2})
	require.NoError(t, err)

	res := m.Match(Record{ID: "G", Name: "Acme Company"})
	assert.Len(t, res.Candidates, 2)
	assert.Equal(t, 0, res.Candidates[0].RefIndex)
}

func TestMatchDeterministic(t *testing.T) {
	refs := []ReferenceEntry{
		{ID: "ref-0", Name: "Northern Lights Brewing"},
		{ID: "ref-1", Name: "Acme Corporation"},
	}
	m, err := NewMatcher(refs, testOptions())
	require.NoError(t, err)

	rec := Record{ID: "H", Name: "Northern Lights Bakery"}
	first := m.Match(rec)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, m.Match(rec))
	}
}
