package recommend

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"discovery-backend/internal/catalog"
	"discovery-backend/internal/geo"
	"discovery-backend/internal/llm"
	"discovery-backend/internal/moods"
)

func newTestService(gen llm.Generator) *Service {
	return &Service{
		Catalog:    testCatalog(),
		Ranker:     &Ranker{LLM: gen, Timeout: time.Second},
		Classifier: moods.NewClassifier(nil, gen, time.Second),
		Limits:     DefaultContextLimits(),
		K:          3,
	}
}

type failingSnapshot struct{}

func (failingSnapshot) Snapshot(ctx context.Context) ([]catalog.Vendor, error) {
	return nil, errors.New("connection refused")
}

func TestClassifyAndRecommendSmart(t *testing.T) {
	gen := &scriptedGenerator{
		rankOut: "```json\n{\"emotion_category\":\"Tired\",\"thought_process\":\"Caffeine nearby.\",\"recommendations\":[{\"id\":10,\"reason\":\"strong\"},{\"id\":999,\"reason\":\"made up\"},{\"id\":\"20\",\"reason\":\"milky\"}]}\n```",
	}
	res := newTestService(gen).ClassifyAndRecommend(context.Background(), "I am exhausted", origin)

	if res.Provenance != ProvenanceSmart || res.Stage != StageSmart {
		t.Fatalf("expected smart result, got %s/%s (%s)", res.Provenance, res.Stage, res.Failure)
	}
	if !reflect.DeepEqual(itemIDs(res.Entries), []int64{10, 20}) {
		t.Fatalf("expected [10 20], got %v", itemIDs(res.Entries))
	}
	if res.Category != "Tired" || res.Rationale != "Caffeine nearby." {
		t.Fatalf("unexpected labels %q %q", res.Category, res.Rationale)
	}
	if res.Entries[1].Justification != "milky" || res.Entries[1].VendorID != 2 {
		t.Fatalf("unexpected entry %+v", res.Entries[1])
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("smart path should make exactly one call, made %d", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[0], "[ID: 10] Item: Americano") {
		t.Fatalf("rank prompt is missing the context:\n%s", gen.prompts[0])
	}
}

func TestClassifyAndRecommendUnavailable(t *testing.T) {
	res := newTestService(llm.Unavailable{}).ClassifyAndRecommend(context.Background(), "anything", origin)

	if res.Provenance != ProvenanceFallback || res.Stage != StageMoodFallback {
		t.Fatalf("expected mood fallback, got %s/%s", res.Provenance, res.Stage)
	}
	if res.Failure != FailureNotConfigured {
		t.Fatalf("expected not_configured, got %q", res.Failure)
	}
	if res.Category != moods.DefaultUnclear {
		t.Fatalf("expected Unclear, got %s", res.Category)
	}
	if !reflect.DeepEqual(itemIDs(res.Entries), []int64{11, 31, 20}) {
		t.Fatalf("expected [11 31 20], got %v", itemIDs(res.Entries))
	}
	if len(res.Archetypes) == 0 {
		t.Fatalf("expected archetypes on fallback")
	}
	if !containsNote(res.Notes, moods.NoteUnavailable) {
		t.Fatalf("expected degraded note, got %v", res.Notes)
	}
}

func TestClassifyAndRecommendMalformedFallsBackToMood(t *testing.T) {
	gen := &scriptedGenerator{rankOut: "I'd suggest the Americano!", classifyOut: "1"}
	res := newTestService(gen).ClassifyAndRecommend(context.Background(), "need energy", origin)

	if res.Stage != StageMoodFallback || res.Failure != FailureMalformedOutput {
		t.Fatalf("expected mood fallback after malformed output, got %s/%s", res.Stage, res.Failure)
	}
	if res.Category != "Energetic" {
		t.Fatalf("expected Energetic, got %s", res.Category)
	}
	if !reflect.DeepEqual(itemIDs(res.Entries), []int64{10}) {
		t.Fatalf("expected Americano match, got %v", itemIDs(res.Entries))
	}
}

func TestClassifyAndRecommendNoValidPicks(t *testing.T) {
	gen := &scriptedGenerator{rankOut: `{"recommendations":[{"id":999},{"id":40}]}`, classifyOut: "5"}
	res := newTestService(gen).ClassifyAndRecommend(context.Background(), "sad", origin)
	if res.Failure != FailureNoValidPicks || res.Provenance != ProvenanceFallback {
		t.Fatalf("expected no_valid_picks fallback, got %+v", res)
	}
}

func TestClassifyAndRecommendCapabilityError(t *testing.T) {
	gen := &scriptedGenerator{rankErr: errors.New("502 bad gateway"), classifyOut: "2"}
	res := newTestService(gen).ClassifyAndRecommend(context.Background(), "stressful day", origin)
	if res.Failure != FailureCapabilityError || res.Category != "Stressed" {
		t.Fatalf("expected capability_error then Stressed, got %s %s", res.Failure, res.Category)
	}
	// Chamomile Tea and Iced Latte come from distinct vendors; Latte fills the last slot.
	if !reflect.DeepEqual(itemIDs(res.Entries), []int64{21, 12, 20}) {
		t.Fatalf("unexpected entries %v", itemIDs(res.Entries))
	}
}

func TestClassifyAndRecommendTimeout(t *testing.T) {
	gen := &scriptedGenerator{block: true}
	svc := newTestService(gen)
	svc.Ranker.Timeout = 20 * time.Millisecond
	svc.Classifier.Timeout = 20 * time.Millisecond

	res := svc.ClassifyAndRecommend(context.Background(), "hmm", origin)
	if res.Failure != FailureTimeout {
		t.Fatalf("expected timeout, got %q", res.Failure)
	}
	if res.Category != moods.DefaultUnclear || res.Stage != StageMoodFallback {
		t.Fatalf("expected Unclear mood fallback, got %s/%s", res.Category, res.Stage)
	}
}

func TestClassifyAndRecommendNoCandidates(t *testing.T) {
	gen := &scriptedGenerator{classifyOut: "3"}
	svc := newTestService(gen)
	radius := 1.0
	svc.RadiusKM = &radius

	res := svc.ClassifyAndRecommend(context.Background(), "great news!", &geo.Coordinate{Lat: 0, Lon: 0})
	if res.Failure != FailureNoCandidates {
		t.Fatalf("expected no_candidates, got %q", res.Failure)
	}
	if !res.NoResults || len(res.Entries) != 0 || res.Entries == nil {
		t.Fatalf("expected empty non-nil entries with NoResults, got %+v", res)
	}
	if res.Category != "Happy" || len(res.Archetypes) == 0 {
		t.Fatalf("expected Happy archetypes, got %s %v", res.Category, res.Archetypes)
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("ranker must not be called without candidates, prompts=%d", len(gen.prompts))
	}
}

func TestClassifyAndRecommendCatalogError(t *testing.T) {
	svc := newTestService(&scriptedGenerator{})
	svc.Catalog = failingSnapshot{}

	res := svc.ClassifyAndRecommend(context.Background(), "latte", nil)
	if res.Stage != StageStaticDefault || res.Provenance != ProvenanceFallback {
		t.Fatalf("expected static default, got %s/%s", res.Stage, res.Provenance)
	}
	if res.Failure != FailureCatalogError || res.Error == "" || !res.NoResults {
		t.Fatalf("expected catalog error annotation, got %+v", res)
	}
	if res.Category != moods.DefaultUnclear || len(res.Archetypes) == 0 || len(res.Entries) != 0 {
		t.Fatalf("unexpected static default %+v", res)
	}
}

func TestStaticDefaultUsesClassifierTable(t *testing.T) {
	table, err := moods.New("test", "Unsure", []moods.Category{
		{Name: "Unsure", Archetypes: []moods.Archetype{{Title: "Safe pick", Product: "Water"}}},
	})
	if err != nil {
		t.Fatalf("moods.New: %v", err)
	}
	svc := newTestService(&scriptedGenerator{})
	svc.Classifier = moods.NewClassifier(table, nil, time.Second)
	svc.Catalog = failingSnapshot{}

	res := svc.ClassifyAndRecommend(context.Background(), "anything", nil)
	if res.Stage != StageStaticDefault || res.Category != "Unsure" {
		t.Fatalf("expected the configured unclear category, got %s/%s", res.Stage, res.Category)
	}
	if len(res.Archetypes) != 1 || res.Archetypes[0].Product != "Water" {
		t.Fatalf("unexpected archetypes %+v", res.Archetypes)
	}
}

func TestClassifyAndRecommendSmartPanicFallsBackToMood(t *testing.T) {
	svc := newTestService(&scriptedGenerator{panicOnRank: true, classifyOut: "1"})
	res := svc.ClassifyAndRecommend(context.Background(), "need energy", origin)
	if res.Stage != StageMoodFallback || res.Failure != FailurePanic {
		t.Fatalf("expected mood fallback after smart panic, got %s/%s", res.Stage, res.Failure)
	}
	if res.Provenance != ProvenanceFallback || res.Category != "Energetic" {
		t.Fatalf("unexpected mood result %s/%s", res.Provenance, res.Category)
	}
	if len(res.Entries) == 0 || res.Entries[0].ItemID != 10 {
		t.Fatalf("expected Americano (10) first, got %v", itemIDs(res.Entries))
	}
}

func TestClassifyAndRecommendNeverPanics(t *testing.T) {
	svc := newTestService(&scriptedGenerator{panicOnRank: true, panicOnClassify: true})
	res := svc.ClassifyAndRecommend(context.Background(), "boom", origin)
	if res.Stage != StageStaticDefault || res.Failure != FailurePanic {
		t.Fatalf("expected static default after mood panic, got %s/%s", res.Stage, res.Failure)
	}
	if res.Category != moods.DefaultUnclear || len(res.Entries) != 0 || !res.NoResults {
		t.Fatalf("unexpected static default %+v", res)
	}

	var zero Service
	res = zero.ClassifyAndRecommend(context.Background(), "", nil)
	if res.Provenance != ProvenanceFallback || res.Entries == nil {
		t.Fatalf("zero service must still return a well-formed result, got %+v", res)
	}
}

func TestClassifyAndRecommendInvalidOriginIgnored(t *testing.T) {
	res := newTestService(llm.Unavailable{}).ClassifyAndRecommend(context.Background(), "x", &geo.Coordinate{Lat: 200, Lon: 0})
	for _, e := range res.Entries {
		if e.DistanceKM != nil {
			t.Fatalf("expected unknown distances for invalid origin, got %v", *e.DistanceKM)
		}
	}
	if !containsNote(res.Notes, "origin out of range") {
		t.Fatalf("expected origin note, got %v", res.Notes)
	}
}

func TestClassifyRankError(t *testing.T) {
	tests := []struct {
		err  error
		want Failure
	}{
		{llm.ErrNotConfigured, FailureNotConfigured},
		{ErrNoCandidates, FailureNoCandidates},
		{llm.ErrTimeout, FailureTimeout},
		{ErrMalformedOutput, FailureMalformedOutput},
		{ErrNoValidPicks, FailureNoValidPicks},
		{llm.ErrCircuitOpen, FailureCapabilityError},
		{errors.New("x"), FailureCapabilityError},
	}
	for _, tt := range tests {
		if got := classifyRankError(tt.err); got != tt.want {
			t.Fatalf("classifyRankError(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func containsNote(notes []string, sub string) bool {
	for _, n := range notes {
		if strings.Contains(n, sub) {
			return true
		}
	}
	return false
}
