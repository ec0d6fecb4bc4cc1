package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ridewave/triad/internal/logger"
	"github.com/ridewave/triad/internal/resilience"
	"github.com/ridewave/triad/internal/xerrors"
)

// Store is the Snapshot Store contract from spec.md §4.1: put/get only,
// no update, no delete.
type Store interface {
	Put(ctx context.Context, s *Snapshot) (string, error)
	Get(ctx context.Context, snapshotID string) (*Snapshot, error)
}

// PostgresStore persists snapshots in a single append-only table. A
// snapshot is never mutated after insert (spec.md §3 Lifecycle).
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger logger.Logger
	retry  *resilience.RetryConfig
}

// NewPostgresStore wraps an existing pool. The caller owns the pool's
// lifecycle (including Close).
func NewPostgresStore(pool *pgxpool.Pool, log logger.Logger) *PostgresStore {
	if log == nil {
		log = logger.NoOp{}
	}
	return &PostgresStore{pool: pool, logger: log, retry: resilience.DefaultRetryConfig()}
}

// Schema is the DDL for the snapshots table, applied by migration tooling
// external to this package.
const Schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	snapshot_id  UUID PRIMARY KEY,
	lat          NUMERIC(9,6) NOT NULL,
	lng          NUMERIC(9,6) NOT NULL,
	captured_at  TIMESTAMPTZ NOT NULL,
	timezone     TEXT NOT NULL,
	city         TEXT NOT NULL,
	region       TEXT NOT NULL,
	country      CHAR(2) NOT NULL,
	weather      JSONB,
	device_id    TEXT,
	context      JSONB,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// Put validates and persists a new Snapshot, assigning its ID if absent.
// Coordinate validation happens here; resolution (address/timezone/
// weather) must already have been performed by the caller via Resolver,
// since a resolution failure is fatal and the snapshot must never be
// written in that case (spec.md §4.1).
func (s *PostgresStore) Put(ctx context.Context, snap *Snapshot) (string, error) {
	if err := Validate(snap.Lat, snap.Lng); err != nil {
		return "", xerrors.Wrap(xerrors.InvalidInput, "snapshot.put", "invalid coordinates", err)
	}
	if snap.SnapshotID == "" {
		snap.SnapshotID = uuid.NewString()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}

	var weatherJSON, contextJSON []byte
	var err error
	if snap.Weather != nil {
		weatherJSON, err = json.Marshal(snap.Weather)
		if err != nil {
			return "", xerrors.Wrap(xerrors.InvalidInput, "snapshot.put", "marshal weather", err)
		}
	}
	if len(snap.Context) > 0 {
		contextJSON, err = json.Marshal(snap.Context)
		if err != nil {
			return "", xerrors.Wrap(xerrors.InvalidInput, "snapshot.put", "marshal context", err)
		}
	}

	err = resilience.Retry(ctx, s.retry, func() error {
		_, execErr := s.pool.Exec(ctx, `
			INSERT INTO snapshots
				(snapshot_id, lat, lng, captured_at, timezone, city, region, country, weather, device_id, context, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			snap.SnapshotID, snap.Lat, snap.Lng, snap.CapturedAt,
			snap.Timezone, snap.City, snap.Region, snap.Country,
			weatherJSON, snap.DeviceID, contextJSON, snap.CreatedAt,
		)
		return execErr
	})
	if err != nil {
		s.logger.Error("snapshot put failed", map[string]interface{}{"error": err.Error(), "snapshot_id": snap.SnapshotID})
		return "", xerrors.Wrap(xerrors.StorageUnavailable, "snapshot.put", "persist snapshot", err)
	}

	return snap.SnapshotID, nil
}

// Get reads back a Snapshot by ID, round-tripping coordinates exactly
// (spec.md §8: "put(snapshot); get(snapshot_id) returns the exact stored
// values").
func (s *PostgresStore) Get(ctx context.Context, snapshotID string) (*Snapshot, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT snapshot_id, lat, lng, captured_at, timezone, city, region, country, weather, device_id, context, created_at
		FROM snapshots WHERE snapshot_id = $1`, snapshotID)

	var snap Snapshot
	var weatherJSON, contextJSON []byte
	if err := row.Scan(
		&snap.SnapshotID, &snap.Lat, &snap.Lng, &snap.CapturedAt,
		&snap.Timezone, &snap.City, &snap.Region, &snap.Country,
		&weatherJSON, &snap.DeviceID, &contextJSON, &snap.CreatedAt,
	); err != nil {
		return nil, xerrors.Wrap(xerrors.StorageUnavailable, "snapshot.get", fmt.Sprintf("snapshot %s not found", snapshotID), err)
	}

	if len(weatherJSON) > 0 {
		snap.Weather = &Weather{}
		_ = json.Unmarshal(weatherJSON, snap.Weather)
	}
	if len(contextJSON) > 0 {
		snap.Context = map[string]string{}
		_ = json.Unmarshal(contextJSON, &snap.Context)
	}

	return &snap, nil
}
