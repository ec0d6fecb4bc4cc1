// Package transport is the minimal HTTP/SSE ingress surface described in
// spec.md §6. It is explicitly a thin, non-spec-governed layer (spec.md
// §1: "the HTTP gateway ... is treated as external collaborator") —
// everything here does no more than translate requests into calls on the
// Orchestrator, Snapshot Store, Job Registry, and Event Bus. Routing uses
// go-chi/chi/v5 and go-chi/cors, the pack's real citation for exactly
// this kind of surface (jordigilh-kubernaut's go.mod).
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/ridewave/triad/internal/logger"
	"github.com/ridewave/triad/internal/trigger"
	"github.com/ridewave/triad/internal/xerrors"
	"github.com/ridewave/triad/pkg/eventbus"
	"github.com/ridewave/triad/pkg/job"
	"github.com/ridewave/triad/pkg/snapshot"
	"github.com/ridewave/triad/pkg/triad"
)

// Deps are the collaborators the transport layer calls into. It owns none
// of their lifecycles.
type Deps struct {
	Snapshots    snapshot.Store
	Resolver     *snapshot.Resolver
	Registry     job.Registry
	Orchestrator *triad.Orchestrator
	Bus          *eventbus.Bus
	Logger       logger.Logger
}

// NewRouter builds the chi router for the five ingress operations of
// spec.md §6.
func NewRouter(deps Deps) chi.Router {
	if deps.Logger == nil {
		deps.Logger = logger.NoOp{}
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Last-Event-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := &handler{deps: deps, cancels: newCancelRegistry()}
	r.Post("/snapshot", h.postSnapshot)
	r.Post("/blocks-fast", h.postBlocksFast)
	r.Get("/blocks/strategy/{snapshot_id}", h.getStrategy)
	r.Get("/events", h.getEvents)
	r.Post("/jobs/{job_id}/cancel", h.postCancel)

	return r
}

type handler struct {
	deps    Deps
	cancels *cancelRegistry
}

// cancelRegistry maps an in-flight job_id to the context.CancelFunc that
// aborts its Orchestrator.Run goroutine, so postCancel can honor spec.md
// §4.6/§5's "external cancel must be honored within 1 s" instead of only
// flipping the Job row and letting the goroutine run to its own deadline.
type cancelRegistry struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func newCancelRegistry() *cancelRegistry {
	return &cancelRegistry{cancels: make(map[string]context.CancelFunc)}
}

func (c *cancelRegistry) store(jobID string, cancel context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancels[jobID] = cancel
}

func (c *cancelRegistry) forget(jobID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cancels, jobID)
}

// cancel invokes and removes the stored CancelFunc for jobID, if any. It
// reports whether a cancel func was found, not whether Run had already
// finished by the time it fired.
func (c *cancelRegistry) cancel(jobID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	cancel, ok := c.cancels[jobID]
	if !ok {
		return false
	}
	delete(c.cancels, jobID)
	cancel()
	return true
}

type snapshotRequest struct {
	Lat        float64           `json:"lat"`
	Lng        float64           `json:"lng"`
	CapturedAt time.Time         `json:"captured_at"`
	Device     string            `json:"device,omitempty"`
	Context    map[string]string `json:"context,omitempty"`
}

func (h *handler) postSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, xerrors.New(xerrors.InvalidInput, "transport.post_snapshot", "malformed body"))
		return
	}

	resolution, err := h.deps.Resolver.Resolve(r.Context(), req.Lat, req.Lng)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	snap := &snapshot.Snapshot{
		Lat: req.Lat, Lng: req.Lng, CapturedAt: req.CapturedAt,
		Timezone: resolution.Timezone, City: resolution.City, Region: resolution.Region, Country: resolution.Country,
		Weather: resolution.Weather, DeviceID: req.Device, Context: req.Context,
	}

	id, err := h.deps.Snapshots.Put(r.Context(), snap)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"snapshot_id": id})
}

type blocksFastRequest struct {
	SnapshotID string `json:"snapshot_id"`
}

func (h *handler) postBlocksFast(w http.ResponseWriter, r *http.Request) {
	var req blocksFastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, xerrors.New(xerrors.InvalidInput, "transport.post_blocks_fast", "malformed body"))
		return
	}

	snap, err := h.deps.Snapshots.Get(r.Context(), req.SnapshotID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	existing, readErr := h.deps.Registry.ReadBySnapshot(r.Context(), req.SnapshotID)
	reason := trigger.ReasonNewSnapshot
	switch {
	case readErr == nil && !existing.Status.IsTerminal():
		reason = trigger.ReasonDuplicate
	case readErr == nil && existing.Status.IsTerminal():
		reason = trigger.ReasonRetry
	}
	descriptor := trigger.Descriptor{
		SnapshotID: req.SnapshotID, Lat: snap.Lat, Lng: snap.Lng, CapturedAt: snap.CapturedAt, Reason: reason,
	}

	j, err := h.deps.Registry.Enqueue(r.Context(), req.SnapshotID)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	// Idempotent per snapshot_id (spec.md §6): if the returned Job is
	// still actively running or already terminal, Run is skipped — only
	// a freshly reset attempt (phase idle, status pending) kicks off work.
	if descriptor.Reason != trigger.ReasonDuplicate && j.Phase == job.PhaseIdle && j.Status == job.StatusPending {
		runCtx, cancel := context.WithCancel(context.Background())
		h.cancels.store(j.JobID, cancel)
		go func() {
			defer h.cancels.forget(j.JobID)
			defer cancel()
			_ = h.deps.Orchestrator.Run(runCtx, snap, j)
		}()
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": j.JobID, "status": j.Status, "trigger_reason": descriptor.Reason,
	})
}

func (h *handler) getStrategy(w http.ResponseWriter, r *http.Request) {
	snapshotID := chi.URLParam(r, "snapshot_id")

	j, err := h.deps.Registry.ReadBySnapshot(r.Context(), snapshotID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if j.Status != job.StatusSucceeded {
		writeJSON(w, http.StatusOK, map[string]interface{}{"snapshot_id": snapshotID, "status": j.Status, "phase": j.Phase})
		return
	}

	// The artifact itself (strategy text + blocks) lives wherever the
	// caller's Snapshot Store/Job Registry implementation persists it;
	// this thin layer only reports terminal status plus a pointer, per
	// the Module Boundary Note.
	writeJSON(w, http.StatusOK, map[string]interface{}{"snapshot_id": snapshotID, "status": j.Status, "job_id": j.JobID})
}

func (h *handler) getEvents(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("job_id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, xerrors.New(xerrors.InvalidInput, "transport.get_events", "job_id is required"))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	j, err := h.deps.Registry.Read(r.Context(), jobID)
	if err == nil {
		fmt.Fprintf(w, "event: phase_change\ndata: {\"phase\":%q,\"attempt\":%d,\"status\":%q}\n\n", j.Phase, j.Attempt, j.Status)
		flusher.Flush()
	}

	lastSeen := uint64(0)
	if raw := r.Header.Get("Last-Event-ID"); raw != "" {
		if parsed, parseErr := strconv.ParseUint(raw, 10, 64); parseErr == nil {
			lastSeen = parsed
		}
	}

	ch, unsubscribe := h.deps.Bus.Subscribe(jobID)
	defer unsubscribe()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case evt, open := <-ch:
			if !open {
				return
			}
			if evt.Sequence <= lastSeen {
				continue
			}
			payload, _ := json.Marshal(evt.Payload)
			fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", evt.Sequence, evt.Type, payload)
			flusher.Flush()
		}
	}
}

func (h *handler) postCancel(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")

	j, err := h.deps.Registry.Read(r.Context(), jobID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if j.Status.IsTerminal() {
		writeJSON(w, http.StatusOK, map[string]bool{"cancelled": false})
		return
	}

	// Abort the in-flight goroutine first: Run observes ctx.Done() at its
	// next context check and unwinds through its own failure path, which
	// will try its own Registry.Complete(expected=InProgress) — harmless
	// even if it races with the Complete below, since Complete is CAS-gated
	// on the expected status and only the first caller's write sticks.
	h.cancels.cancel(jobID)

	err = h.deps.Registry.Complete(r.Context(), jobID, j.Status, job.Outcome{
		Status: job.StatusCancelled, ErrorCode: string(xerrors.Cancelled), ErrorMessage: "cancelled by caller",
	})
	h.deps.Bus.Publish(jobID, "job_cancelled", nil)
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": err == nil})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	code, ok := xerrors.CodeOf(err)
	if !ok {
		code = xerrors.InvalidInput
	}
	writeJSON(w, status, map[string]string{"code": string(code), "message": err.Error()})
}
