package match

// Record is one input row awaiting enrichment. Identifier and name fields
// are matched against the reference set; Fields carries every other source
// column through untouched. Records are immutable for the life of a run.
type Record struct {
	// ID is the caller-supplied row identifier.
	ID string `json:"id"`
	// UEI is the primary identifier (Unique Entity Identifier).
	UEI string `json:"uei,omitempty"`
	// DUNS is the secondary identifier (digits).
	DUNS string `json:"duns,omitempty"`
	// Name is the free-text entity name used by the fuzzy tier.
	Name string `json:"name,omitempty"`
	// Fields holds passthrough source columns.
	Fields map[string]string `json:"fields,omitempty"`
}

// ReferenceEntry is one row of the lookup dataset, loaded once up front and
// read-only for the whole run.
type ReferenceEntry struct {
	ID   string `json:"id"`
	UEI  string `json:"uei,omitempty"`
	DUNS string `json:"duns,omitempty"`
	Name string `json:"name,omitempty"`
}

// Method identifies which tier produced a match result. The string values
// are part of the external interface and appear verbatim in enriched
// output.
type Method string

// Match methods, in tier priority order.
const (
	MethodExactPrimary   Method = "exact-primary"
	MethodExactSecondary Method = "exact-secondary"
	MethodFuzzyAuto      Method = "fuzzy-auto"
	MethodFuzzyCandidate Method = "fuzzy-candidate"
	// MethodFuzzyLow is reserved for downstream review tooling; the
	// threshold policy implemented here never emits it.
	MethodFuzzyLow Method = "fuzzy-low"
	MethodNone     Method = "none"
)

// Assigned reports whether a result with this method carries a reference
// assignment. Candidate and unmatched results record a method (and
// possibly a score) but no reference.
func (m Method) Assigned() bool {
	switch m {
	case MethodExactPrimary, MethodExactSecondary, MethodFuzzyAuto:
		return true
	default:
		return false
	}
}

// Candidate is one scored fuzzy-tier reference entry.
type Candidate struct {
	// RefIndex is the entry's position in the reference set. Ties between
	// equal scores are broken by the lowest index.
	RefIndex int `json:"ref_index"`
	// RefID is the reference entry's identifier.
	RefID string `json:"ref_id"`
	// Score is the token-set similarity in [0,100].
	Score float64 `json:"score"`
}

// Result is the outcome of matching one record. At most one Result exists
// per record. Score is meaningful only when HasScore is true; RefID and
// RefIndex are set only when Method.Assigned() is true (RefIndex is -1
// otherwise).
type Result struct {
	Method     Method
	Score      float64
	HasScore   bool
	RefID      string
	RefIndex   int
	Candidates []Candidate
}
