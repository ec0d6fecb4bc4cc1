package triad

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/ridewave/triad/internal/logger"
	"github.com/ridewave/triad/internal/resilience"
	"github.com/ridewave/triad/internal/telemetry"
	"github.com/ridewave/triad/internal/xerrors"
	"github.com/ridewave/triad/pkg/blocks"
	"github.com/ridewave/triad/pkg/enrichment"
	"github.com/ridewave/triad/pkg/eventbus"
	"github.com/ridewave/triad/pkg/job"
	"github.com/ridewave/triad/pkg/modeladapter"
	"github.com/ridewave/triad/pkg/snapshot"
	"github.com/ridewave/triad/pkg/validate"
	"github.com/ridewave/triad/pkg/venue"
)

// Deadlines bundles the phase and total budgets from spec.md §4.6.
type Deadlines struct {
	Phase1 time.Duration
	Phase2 time.Duration
	Phase3 time.Duration
	Total  time.Duration
}

// DefaultDeadlines matches spec.md §4.6's defaults.
func DefaultDeadlines() Deadlines {
	return Deadlines{
		Phase1: 30 * time.Second,
		Phase2: 20 * time.Second,
		Phase3: 40 * time.Second,
		Total:  90 * time.Second,
	}
}

// EnrichmentWidth is the bounded worker pool size for per-venue
// enrichment in Phase 3 (spec.md §4.6).
const EnrichmentWidth = 4

// Config wires every collaborator the Orchestrator needs. Each Model
// Adapter Client is bound to exactly one Role at construction time — the
// Orchestrator never chooses a provider dynamically (spec.md §4.3).
type Config struct {
	Strategist modeladapter.Client
	Planner    modeladapter.Client
	Validator  modeladapter.Client

	Geocoder *enrichment.Geocoder
	Places   *enrichment.PlacesClient
	Routes   *enrichment.RoutesClient
	Catalog  *venue.Catalog
	Holidays HolidayLookup

	Registry  job.Registry
	Bus       *eventbus.Bus
	Tracker   *Tracker
	Telemetry *telemetry.Provider
	Logger    logger.Logger

	Templates modeladapter.Templates
	Deadlines Deadlines
}

// Orchestrator is the TRIAD Orchestrator (spec.md C6).
type Orchestrator struct {
	cfg     Config
	breaker *resilience.CircuitBreaker
}

// New constructs an Orchestrator. A job-level circuit breaker guards
// against accepting new jobs while the system is already failing broadly
// (spec.md §5 "Backpressure"), independent of the per-provider breakers
// inside each modeladapter.Client.
func New(cfg Config) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = logger.NoOp{}
	}
	if cfg.Holidays == nil {
		cfg.Holidays = TableHolidayLookup{}
	}
	if cfg.Deadlines == (Deadlines{}) {
		cfg.Deadlines = DefaultDeadlines()
	}
	if cfg.Tracker == nil {
		cfg.Tracker = NewTracker()
	}
	if cfg.Telemetry == nil {
		cfg.Telemetry = telemetry.NoOp()
	}
	return &Orchestrator{
		cfg:     cfg,
		breaker: resilience.NewCircuitBreaker(5, 30*time.Second),
	}
}

// Run drives one Job through all three phases to a terminal status. The
// caller is expected to have already called Registry.Enqueue; Run
// advances the same Job through idle -> p1 -> p2 -> p3 -> done.
func (o *Orchestrator) Run(ctx context.Context, snap *snapshot.Snapshot, j *job.Job) error {
	if !o.breaker.CanExecute() {
		return o.fail(ctx, j, xerrors.New(xerrors.BudgetExhausted, "orchestrator.run", "circuit open: too many recent job failures"))
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, o.cfg.Deadlines.Total)
	defer cancel()

	ctx, span := o.cfg.Telemetry.StartSpan(ctx, "triad.run",
		attribute.String("job_id", j.JobID), attribute.String("snapshot_id", j.SnapshotID))
	defer span.End()

	o.cfg.Bus.Publish(j.JobID, "phase_change", map[string]string{"phase": string(job.PhaseP1)})
	result, err := o.run(ctx, snap, j)
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.breaker.RecordFailure()
		o.completeFailed(ctx, j, err)
		o.cfg.Tracker.Record(ExecutionRecord{
			JobID: j.JobID, SnapshotID: j.SnapshotID, Attempt: j.Attempt,
			Status: j.Status, Duration: duration, ErrorCode: j.ErrorCode, RecordedAt: time.Now().UTC(),
		})
		o.cfg.Telemetry.RecordJobOutcome(ctx, string(j.Status))
		o.cfg.Bus.Publish(j.JobID, "job_failed", map[string]string{"code": j.ErrorCode})
		return err
	}

	o.breaker.RecordSuccess()
	if compErr := o.cfg.Registry.Complete(ctx, j.JobID, job.StatusInProgress, job.Outcome{Status: job.StatusSucceeded}); compErr != nil {
		o.cfg.Logger.Error("failed to mark job succeeded", map[string]interface{}{"job_id": j.JobID, "error": compErr.Error()})
	}
	j.Status = job.StatusSucceeded
	o.cfg.Tracker.Record(ExecutionRecord{
		JobID: j.JobID, SnapshotID: j.SnapshotID, Attempt: j.Attempt,
		Status: job.StatusSucceeded, Duration: duration, RecordedAt: time.Now().UTC(),
	})
	o.cfg.Telemetry.RecordJobOutcome(ctx, string(j.Status))
	o.cfg.Bus.Publish(j.JobID, "job_succeeded", result)
	o.cfg.Bus.Forget(j.JobID)
	return nil
}

func (o *Orchestrator) run(ctx context.Context, snap *snapshot.Snapshot, j *job.Job) (*Result, error) {
	loc, err := time.LoadLocation(snap.Timezone)
	if err != nil {
		loc = time.UTC
	}

	p1, err := o.runPhase1(ctx, snap, j)
	if err != nil {
		return nil, err
	}

	p2, err := o.runPhase2(ctx, j, p1)
	if err != nil {
		return nil, err
	}

	strategy := StrategyArtifact{
		Narrative:         p1.Narrative,
		ModelID:           p1.NarrativeModelID,
		ParamsFingerprint: paramsFingerprint(modeladapter.RoleStrategist, p1.NarrativeModelID),
		PromptVersion:     "v1",
		LatencyMS:         p1.NarrativeLatencyMS,
	}

	venues, verdict, blockSeq, err := o.runPhase3(ctx, snap, j, p2, strategy, loc)
	if err != nil {
		return nil, err
	}

	return &Result{Strategy: strategy, Venues: venues, Verdict: verdict, Blocks: blockSeq, StartedAt: j.Timings.P1Start, EndedAt: time.Now().UTC()}, nil
}

// runPhase1 fans out Strategist, Briefer, and Holiday lookup (spec.md
// §4.6). Only a missing Strategist narrative is fatal; the other two
// degrade the prompt but never fail the Job.
func (o *Orchestrator) runPhase1(ctx context.Context, snap *snapshot.Snapshot, j *job.Job) (*PhaseOneResult, error) {
	if err := o.advance(ctx, j, job.PhaseIdle, job.PhaseP1); err != nil {
		return nil, err
	}

	ctx, span := o.cfg.Telemetry.StartSpan(ctx, "triad.phase1", attribute.String("job_id", j.JobID))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Deadlines.Phase1)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	result := &PhaseOneResult{}
	var strategistErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		prompt, _ := modeladapter.Render(o.cfg.Templates.Strategist, map[string]any{
			"city": snap.City, "region": snap.Region, "captured_at": snap.CapturedAt.String(), "weather": weatherText(snap),
		})
		resp, err := o.cfg.Strategist.Call(ctx, modeladapter.Request{User: prompt})
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			strategistErr = err
			return
		}
		result.Narrative = resp.Text
		result.NarrativeModelID = resp.ModelID
		result.NarrativeLatencyMS = resp.LatencyMS
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		prompt, _ := modeladapter.Render(o.cfg.Templates.Strategist, map[string]any{
			"city": snap.City, "region": snap.Region, "captured_at": snap.CapturedAt.String(), "weather": weatherText(snap),
		})
		resp, err := o.cfg.Strategist.Call(ctx, modeladapter.Request{
			System: "Produce a brief weather/traffic/news context summary, not a strategy.",
			User:   prompt,
		})
		mu.Lock()
		defer mu.Unlock()
		if err == nil {
			result.Briefing = resp.Text
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		isHoliday, err := o.cfg.Holidays.IsHoliday(snap.CapturedAt, snap.Region)
		mu.Lock()
		defer mu.Unlock()
		if err == nil {
			result.IsHoliday = isHoliday
		}
	}()

	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if strategistErr != nil || result.Narrative == "" {
		if strategistErr == nil {
			strategistErr = fmt.Errorf("empty strategist narrative")
		}
		err := xerrors.Wrap(xerrors.StrategistFailed, "orchestrator.phase1", "strategist narrative missing", strategistErr)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	o.cfg.Bus.Publish(j.JobID, "stage_complete", map[string]string{"phase": string(job.PhaseP1)})
	return result, nil
}

// runPhase2 runs the Daily and Immediate consolidators concurrently; both
// are required (spec.md §4.6).
func (o *Orchestrator) runPhase2(ctx context.Context, j *job.Job, p1 *PhaseOneResult) (*PhaseTwoResult, error) {
	if err := o.advance(ctx, j, job.PhaseP1, job.PhaseP2); err != nil {
		return nil, err
	}
	o.cfg.Bus.Publish(j.JobID, "phase_change", map[string]string{"phase": string(job.PhaseP2)})

	ctx, span := o.cfg.Telemetry.StartSpan(ctx, "triad.phase2", attribute.String("job_id", j.JobID))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Deadlines.Phase2)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	result := &PhaseTwoResult{}

	g.Go(func() error {
		resp, err := o.cfg.Planner.Call(gctx, modeladapter.Request{
			System: "Consolidate today's positioning strategy (full-day horizon).",
			User:   p1.Narrative + "\n\n" + p1.Briefing,
		})
		if err != nil {
			return err
		}
		result.DailyPlan = resp.Text
		return nil
	})

	g.Go(func() error {
		resp, err := o.cfg.Planner.Call(gctx, modeladapter.Request{
			System: "Consolidate the next 2 hours of positioning strategy (immediate horizon).",
			User:   p1.Narrative + "\n\n" + p1.Briefing,
		})
		if err != nil {
			return err
		}
		result.ImmediatePlan = resp.Text
		return nil
	})

	if err := g.Wait(); err != nil {
		wrapped := xerrors.Wrap(xerrors.PlannerFailed, "orchestrator.phase2", "consolidation failed", err)
		span.RecordError(wrapped)
		span.SetStatus(codes.Error, wrapped.Error())
		return nil, wrapped
	}

	o.cfg.Bus.Publish(j.JobID, "stage_complete", map[string]string{"phase": string(job.PhaseP2)})
	return result, nil
}

// runPhase3 asks the Planner for a candidate venue list, enriches each
// candidate through a bounded worker pool, and runs the Validator over
// the result (spec.md §4.6).
func (o *Orchestrator) runPhase3(ctx context.Context, snap *snapshot.Snapshot, j *job.Job, p2 *PhaseTwoResult, strategy StrategyArtifact, loc *time.Location) (outVenues []VenueCandidate, outVerdict ValidatorVerdict, outBlocks []blocks.Block, err error) {
	if err = o.advance(ctx, j, job.PhaseP2, job.PhaseP3); err != nil {
		return nil, ValidatorVerdict{}, nil, err
	}
	o.cfg.Bus.Publish(j.JobID, "phase_change", map[string]string{"phase": string(job.PhaseP3)})

	ctx, span := o.cfg.Telemetry.StartSpan(ctx, "triad.phase3", attribute.String("job_id", j.JobID))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Deadlines.Phase3)
	defer cancel()

	shortlist := o.cfg.Catalog.WithinProximity(snap.Lat, snap.Lng)
	venuePrompt, _ := modeladapter.Render(o.cfg.Templates.Planner, map[string]any{
		"max_venues": 7,
		"strategy":   p2.DailyPlan + "\n\n" + p2.ImmediatePlan,
		"venues":     venueNames(shortlist),
	})

	plannerResp, err := o.cfg.Planner.Call(ctx, modeladapter.Request{User: venuePrompt})
	if err != nil {
		return nil, ValidatorVerdict{}, nil, xerrors.Wrap(xerrors.PlannerFailed, "orchestrator.phase3", "venue generation failed", err)
	}

	candidates, err := parsePlannerVenues(plannerResp.Text)
	if err != nil || len(candidates) == 0 {
		cause := err
		if cause == nil {
			cause = xerrors.ErrNoCandidates
		}
		return nil, ValidatorVerdict{}, nil, xerrors.Wrap(xerrors.PlannerFailed, "orchestrator.phase3", "planner returned no usable venues", cause)
	}

	enriched, err := o.enrichCandidates(ctx, snap, candidates)
	if err != nil {
		return nil, ValidatorVerdict{}, nil, err
	}

	verdict, err := o.runValidator(ctx, enriched)
	if err != nil {
		return nil, ValidatorVerdict{}, nil, err
	}
	if !verdict.Valid {
		return nil, verdict, nil, xerrors.New(xerrors.ValidationFailed, "orchestrator.phase3", "validator rejected artifact: "+joinReasons(verdict.Reasons))
	}

	blockSeq := blocks.Assemble(blocks.Artifact{
		Title:       fmt.Sprintf("Strategy for %s, %s", snap.City, snap.Region),
		Narrative:   strategy.Narrative,
		VenueGroups: validate.ToVenueGroups(draftsFromCandidates(enriched, time.Now().In(loc))),
	})
	if err := validate.ValidateArtifact(blockSeq); err != nil {
		return nil, verdict, nil, err
	}

	o.cfg.Bus.Publish(j.JobID, "stage_complete", map[string]string{"phase": string(job.PhaseP3)})
	return enriched, verdict, blockSeq, nil
}

// draftsFromCandidates turns enriched VenueCandidates into the validation
// gate's intermediate draft shape. now is used as the freshness clock
// even though today's candidates carry no discrete event end times yet —
// the hook exists so a future Planner field (e.g. "happy hour until 9pm")
// can plug into the same freshness rule without a new code path.
func draftsFromCandidates(candidates []VenueCandidate, now time.Time) []validate.VenueDraft {
	drafts := make([]validate.VenueDraft, len(candidates))
	for i, c := range candidates {
		lines := []string{}
		if c.HoursKnown {
			lines = append(lines, "hours: "+c.HoursText)
		} else {
			lines = append(lines, "hours: unknown")
		}
		if c.DriveTimeSeconds > 0 {
			lines = append(lines, fmt.Sprintf("drive time: %d min", c.DriveTimeSeconds/60))
		}
		if c.EstimatedEarnings != "" {
			lines = append(lines, "earnings hint: "+c.EstimatedEarnings)
		}
		drafts[i] = validate.VenueDraft{Name: c.Name, Rationale: c.Rationale, StaticLines: lines}
	}
	return validate.ApplyFreshness(drafts, now)
}

// enrichCandidates runs routes (drive time) and places (business hours,
// when the candidate has a PlaceID) enrichment over each candidate
// through a width-EnrichmentWidth worker pool; venues are not
// reverse-geocoded. A venue whose
// enrichment fails is dropped rather than failing the whole phase, unless
// more than half of all candidates fail (spec.md §7).
func (o *Orchestrator) enrichCandidates(ctx context.Context, snap *snapshot.Snapshot, candidates []VenueCandidate) ([]VenueCandidate, error) {
	sem := make(chan struct{}, EnrichmentWidth)
	var wg sync.WaitGroup
	outcomes := make([]EnrichmentOutcome, len(candidates))

	for i, c := range candidates {
		wg.Add(1)
		go func(i int, c VenueCandidate) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = o.enrichOne(ctx, snap, c)
		}(i, c)
	}
	wg.Wait()

	var kept []VenueCandidate
	failures := 0
	for _, o := range outcomes {
		if o.Failed {
			failures++
			continue
		}
		kept = append(kept, o.Candidate)
	}

	if len(candidates) > 0 && failures*2 > len(candidates) {
		return nil, xerrors.New(xerrors.EnrichmentFailed, "orchestrator.enrich", "more than half of venue enrichments failed")
	}
	return kept, nil
}

func (o *Orchestrator) enrichOne(ctx context.Context, snap *snapshot.Snapshot, c VenueCandidate) EnrichmentOutcome {
	route, err := o.cfg.Routes.Estimate(ctx, snap.Lat, snap.Lng, c.Lat, c.Lng)
	if err != nil {
		return EnrichmentOutcome{Candidate: c, Failed: true}
	}
	c.DriveTimeSeconds = route.DurationSeconds

	if c.PlaceID != "" {
		hours, _, err := o.cfg.Places.Hours(ctx, c.PlaceID)
		if err == nil {
			c.HoursKnown = true
			c.HoursText = businessHoursText(hours)
		}
		// Policy: never invent hours (spec.md §4.4) — HoursKnown stays
		// false on lookup failure, surfaced downstream as "hours unknown".
	}

	return EnrichmentOutcome{Candidate: c}
}

func (o *Orchestrator) runValidator(ctx context.Context, venues []VenueCandidate) (ValidatorVerdict, error) {
	payload, err := json.Marshal(venues)
	if err != nil {
		return ValidatorVerdict{}, xerrors.Wrap(xerrors.ValidatorFailed, "orchestrator.validator", "marshal artifact", err)
	}

	prompt, _ := modeladapter.Render(o.cfg.Templates.Validator, map[string]any{
		"plan":       string(payload),
		"enrichment": "drive times and hours attached inline",
	})

	resp, err := o.cfg.Validator.Call(ctx, modeladapter.Request{User: prompt})
	if err != nil {
		return ValidatorVerdict{}, xerrors.Wrap(xerrors.ValidatorFailed, "orchestrator.validator", "validator call failed", err)
	}

	var verdict ValidatorVerdict
	if err := json.Unmarshal([]byte(resp.Text), &verdict); err != nil {
		return ValidatorVerdict{}, xerrors.Wrap(xerrors.ValidatorFailed, "orchestrator.validator", "validator returned unparseable verdict", err)
	}
	return verdict, nil
}

func (o *Orchestrator) advance(ctx context.Context, j *job.Job, from, to job.Phase) error {
	if err := j.Advance(to); err != nil {
		return xerrors.Wrap(xerrors.InvalidInput, "orchestrator.advance", "illegal transition", err)
	}
	if err := o.cfg.Registry.Advance(ctx, j.JobID, from, to); err != nil {
		return xerrors.Wrap(xerrors.StorageUnavailable, "orchestrator.advance", "persist phase transition", err)
	}
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, j *job.Job, err error) error {
	o.completeFailed(ctx, j, err)
	return err
}

func (o *Orchestrator) completeFailed(ctx context.Context, j *job.Job, err error) {
	code, _ := xerrors.CodeOf(err)
	j.ErrorCode = string(code)
	j.ErrorMessage = err.Error()
	if compErr := o.cfg.Registry.Complete(ctx, j.JobID, job.StatusInProgress, job.Outcome{
		Status: job.StatusFailed, ErrorCode: string(code), ErrorMessage: err.Error(),
	}); compErr != nil {
		o.cfg.Logger.Error("failed to mark job failed", map[string]interface{}{"job_id": j.JobID, "error": compErr.Error()})
	}
	j.Status = job.StatusFailed
}

// paramsFingerprint derives a stable identifier for the model
// configuration behind a call, so two Strategy Artifacts can be
// compared for "same model, same role" without carrying the provider's
// full parameter set (spec.md §3: "model params fingerprint").
func paramsFingerprint(role modeladapter.Role, modelID string) string {
	sum := sha256.Sum256([]byte(string(role) + "|" + modelID))
	return hex.EncodeToString(sum[:])[:16]
}

func weatherText(snap *snapshot.Snapshot) string {
	if snap.Weather == nil {
		return "unknown"
	}
	return snap.Weather.Description
}

func venueNames(vs []venue.Venue) string {
	names := ""
	for i, v := range vs {
		if i > 0 {
			names += ", "
		}
		names += v.Name
	}
	if names == "" {
		return "(none in catalog; generate from scratch)"
	}
	return names
}

func businessHoursText(h *enrichment.BusinessHours) string {
	if h.OpenNow {
		return "open now"
	}
	return "closed now"
}

func parsePlannerVenues(text string) ([]VenueCandidate, error) {
	var out []VenueCandidate
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func joinReasons(reasons []string) string {
	out := ""
	for i, r := range reasons {
		if i > 0 {
			out += "; "
		}
		out += r
	}
	return out
}
