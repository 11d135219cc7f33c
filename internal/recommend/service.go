package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"discovery-backend/internal/catalog"
	"discovery-backend/internal/geo"
	"discovery-backend/internal/llm"
	"discovery-backend/internal/moods"
	"discovery-backend/internal/shared/metrics"
	"discovery-backend/internal/shared/telemetry"
	"discovery-backend/internal/shared/util"
)

// Snapshotter supplies the approved vendors visible for one request.
type Snapshotter interface {
	Snapshot(ctx context.Context) ([]catalog.Vendor, error)
}

// Service runs the recommendation fallback chain.
type Service struct {
	Catalog    Snapshotter
	Ranker     *Ranker
	Classifier *moods.Classifier
	Limits     ContextLimits
	// RadiusKM limits candidates around a known origin; nil is unrestricted.
	RadiusKM *float64
	K        int
}

// attempt is the outcome of one chain stage.
type attempt struct {
	stage   Stage
	result  Result
	failure Failure
	err     error
}

func (a attempt) ok() bool { return a.failure == FailureNone }

// ClassifyAndRecommend always returns a well-formed Result.
func (s *Service) ClassifyAndRecommend(ctx context.Context, text string, origin *geo.Coordinate) (res Result) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			telemetry.Error("recommend.panic", map[string]any{"error": fmt.Sprint(rec)})
			res = s.staticDefault(FailurePanic, fmt.Errorf("internal error: %v", rec))
		}
		metrics.IncRecommendation(string(res.Provenance), string(res.Stage))
		telemetry.Info("recommend.done", map[string]any{
			"provenance":  res.Provenance,
			"stage":       res.Stage,
			"failure":     res.Failure,
			"category":    res.Category,
			"entries":     len(res.Entries),
			"vendors":     distinctVendors(res.Entries),
			"no_results":  res.NoResults,
			"message_sha": util.HashText(text),
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
		})
	}()

	var notes []string
	if origin != nil && !origin.Valid() {
		notes = append(notes, "origin out of range; distances unknown")
		origin = nil
	}

	vendors, snapErr := s.snapshot(ctx)

	smart := s.trySmart(ctx, text, origin, vendors, snapErr)
	if smart.ok() {
		smart.result.Notes = append(notes, smart.result.Notes...)
		return smart.result
	}
	s.transition(smart)
	notes = append(notes, fmt.Sprintf("smart ranking skipped: %s", smart.failure))

	mood := s.tryMood(ctx, text, origin, vendors, snapErr)
	if mood.ok() {
		mood.result.Failure = smart.failure
		mood.result.Notes = append(notes, mood.result.Notes...)
		return mood.result
	}
	s.transition(mood)

	res = s.staticDefault(mood.failure, mood.err)
	res.Notes = append(notes, res.Notes...)
	return res
}

func (s *Service) snapshot(ctx context.Context) ([]catalog.Vendor, error) {
	if s.Catalog == nil {
		return nil, errors.New("catalog not configured")
	}
	return s.Catalog.Snapshot(ctx)
}

func (s *Service) nearby(vendors []catalog.Vendor, origin *geo.Coordinate) []catalog.Nearby {
	q := catalog.NearbyQuery{Origin: origin}
	if origin != nil {
		q.RadiusKM = s.RadiusKM
	}
	return catalog.Locate(vendors, q)
}

func (s *Service) k() int {
	if s.K > 0 {
		return s.K
	}
	return MaxEntries
}

func (s *Service) trySmart(ctx context.Context, text string, origin *geo.Coordinate, vendors []catalog.Vendor, snapErr error) (a attempt) {
	a.stage = StageSmart
	defer func() {
		if rec := recover(); rec != nil {
			a = attempt{stage: StageSmart, failure: FailurePanic, err: fmt.Errorf("smart ranking: %v", rec)}
		}
	}()
	if snapErr != nil {
		a.failure, a.err = FailureCatalogError, snapErr
		return a
	}
	if s.Ranker == nil || !llm.Available(s.Ranker.LLM) {
		a.failure, a.err = FailureNotConfigured, llm.ErrNotConfigured
		return a
	}
	rc := BuildContext(s.nearby(vendors, origin), s.Limits)
	if rc.Len() == 0 {
		a.failure, a.err = FailureNoCandidates, ErrNoCandidates
		return a
	}
	ranking, err := s.Ranker.Rank(ctx, text, rc, s.k())
	if err != nil {
		a.failure, a.err = classifyRankError(err), err
		return a
	}
	entries := Resolve(ranking.Picks, rc, s.k())
	if len(entries) == 0 {
		a.failure, a.err = FailureNoValidPicks, ErrNoValidPicks
		return a
	}
	a.result = Result{
		Category:   ranking.Category,
		Rationale:  ranking.Rationale,
		Entries:    entries,
		Archetypes: []moods.Archetype{},
		Provenance: ProvenanceSmart,
		Stage:      StageSmart,
	}
	return a
}

func (s *Service) tryMood(ctx context.Context, text string, origin *geo.Coordinate, vendors []catalog.Vendor, snapErr error) (a attempt) {
	a.stage = StageMoodFallback
	defer func() {
		if rec := recover(); rec != nil {
			a.failure, a.err = FailurePanic, fmt.Errorf("mood fallback: %v", rec)
		}
	}()
	if snapErr != nil {
		a.failure, a.err = FailureCatalogError, snapErr
		return a
	}

	classifier := s.Classifier
	if classifier == nil {
		classifier = moods.NewClassifier(nil, nil, 0)
	}
	cls := classifier.Classify(ctx, text)
	entries := matchArchetypes(cls.Category.Archetypes, s.nearby(vendors, origin), s.k())

	a.result = Result{
		Category:   cls.Category.Name,
		Entries:    entries,
		Archetypes: cls.Category.Archetypes,
		Provenance: ProvenanceFallback,
		Stage:      StageMoodFallback,
		NoResults:  len(entries) == 0,
	}
	if cls.Note != "" {
		a.result.Notes = append(a.result.Notes, cls.Note)
	}
	return a
}

func (s *Service) staticDefault(failure Failure, err error) Result {
	var table *moods.Table
	if s.Classifier != nil {
		table = s.Classifier.Table
	}
	if table == nil {
		table = moods.Default()
	}
	unclear := table.Unclear()
	res := Result{
		Category:   unclear.Name,
		Entries:    []Entry{},
		Archetypes: unclear.Archetypes,
		Provenance: ProvenanceFallback,
		Stage:      StageStaticDefault,
		Failure:    failure,
		NoResults:  true,
		Error:      "recommendations unavailable",
	}
	if err != nil {
		res.Error = fmt.Sprintf("recommendations unavailable: %v", err)
	}
	return res
}

func (s *Service) transition(a attempt) {
	metrics.IncFallback(string(a.failure))
	fields := map[string]any{"stage": a.stage, "failure": a.failure}
	if a.err != nil {
		fields["error"] = a.err.Error()
	}
	telemetry.Warn("recommend.fallback", fields)
}

func classifyRankError(err error) Failure {
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		return FailureNotConfigured
	case errors.Is(err, ErrNoCandidates):
		return FailureNoCandidates
	case errors.Is(err, llm.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	case errors.Is(err, ErrMalformedOutput):
		return FailureMalformedOutput
	case errors.Is(err, ErrNoValidPicks):
		return FailureNoValidPicks
	default:
		return FailureCapabilityError
	}
}
