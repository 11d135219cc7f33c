package recommend

import (
	"discovery-backend/internal/moods"
)

// MaxEntries is the number of recommendations returned per request.
const MaxEntries = 3

// Provenance reports which path produced a Result.
type Provenance string

const (
	ProvenanceSmart    Provenance = "smart"
	ProvenanceFallback Provenance = "fallback"
)

// Stage is a FallbackChain state.
type Stage string

const (
	StageSmart         Stage = "smart"
	StageMoodFallback  Stage = "mood_fallback"
	StageStaticDefault Stage = "static_default"
)

// Failure is the reason a stage was abandoned.
type Failure string

const (
	FailureNone            Failure = ""
	FailureNotConfigured   Failure = "not_configured"
	FailureCapabilityError Failure = "capability_error"
	FailureTimeout         Failure = "timeout"
	FailureMalformedOutput Failure = "malformed_output"
	FailureNoValidPicks    Failure = "no_valid_picks"
	FailureNoCandidates    Failure = "no_candidates"
	FailureCatalogError    Failure = "catalog_error"
	FailurePanic           Failure = "panic"
)

// Entry is one recommended item. DistanceKM is nil when the distance is unknown.
type Entry struct {
	ItemID        int64    `json:"item_id"`
	VendorID      int64    `json:"vendor_id"`
	ItemName      string   `json:"item_name"`
	VendorName    string   `json:"vendor_name"`
	Category      string   `json:"category,omitempty"`
	Description   string   `json:"description,omitempty"`
	Price         float64  `json:"price"`
	DistanceKM    *float64 `json:"distance_km"`
	Justification string   `json:"justification,omitempty"`
}

// Result is always well formed, whichever stage produced it.
type Result struct {
	Category   string            `json:"category"`
	Rationale  string            `json:"rationale,omitempty"`
	Entries    []Entry           `json:"entries"`
	Archetypes []moods.Archetype `json:"archetypes"`
	Provenance Provenance        `json:"provenance"`
	Stage      Stage             `json:"stage"`
	Failure    Failure           `json:"failure,omitempty"`
	NoResults  bool              `json:"no_results"`
	Notes      []string          `json:"notes,omitempty"`
	Error      string            `json:"error,omitempty"`
}
