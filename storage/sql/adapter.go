package sql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/xid"

	"github.com/sig-0/cdtrates/storage"
	"github.com/sig-0/cdtrates/storage/types"
)

const (
	saveAggregate = `INSERT INTO aggregate_snapshots (id, generated_at, total_banks, total_rates, payload)
VALUES ($1, $2, $3, $4, $5)`

	latestAggregate = `SELECT payload FROM aggregate_snapshots
ORDER BY generated_at DESC, id DESC
LIMIT 1`

	// a NULL limit returns every row
	listSnapshots = `SELECT payload FROM aggregate_snapshots
ORDER BY generated_at DESC, id DESC
LIMIT $1`
)

// DBTX is the subset of the pgx connection (or pool) API the storage uses
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type Storage struct {
	db DBTX
}

func NewStorage(db DBTX) *Storage {
	return &Storage{
		db: db,
	}
}

func (s *Storage) SaveAggregate(ctx context.Context, agg *types.Aggregate) error {
	payload, err := json.Marshal(agg)
	if err != nil {
		return fmt.Errorf("unable to marshal aggregate: %w", err)
	}

	if _, err = s.db.Exec(
		ctx,
		saveAggregate,
		xid.NewWithTime(agg.GeneratedAt).String(),
		timeToTimestampz(agg.GeneratedAt),
		agg.TotalBanks,
		agg.TotalRates,
		payload,
	); err != nil {
		return fmt.Errorf("unable to save aggregate: %w", err)
	}

	return nil
}

func (s *Storage) LatestAggregate(ctx context.Context) (*types.Aggregate, error) {
	var payload []byte

	if err := s.db.QueryRow(ctx, latestAggregate).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNoSnapshot
		}

		return nil, fmt.Errorf("unable to fetch aggregate: %w", err)
	}

	return parseAggregate(payload)
}

func (s *Storage) Snapshots(ctx context.Context, limit int) ([]*types.Aggregate, error) {
	rows, err := s.db.Query(ctx, listSnapshots, limitToInt8(limit))
	if err != nil {
		return nil, fmt.Errorf("unable to fetch snapshots: %w", err)
	}

	defer rows.Close()

	out := make([]*types.Aggregate, 0)

	for rows.Next() {
		var payload []byte

		if err = rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("unable to scan snapshot: %w", err)
		}

		agg, err := parseAggregate(payload)
		if err != nil {
			return nil, err
		}

		out = append(out, agg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to fetch snapshots: %w", err)
	}

	return out, nil
}

// parseAggregate parses the JSONB payload to the common Go type
func parseAggregate(payload []byte) (*types.Aggregate, error) {
	var agg types.Aggregate

	if err := json.Unmarshal(payload, &agg); err != nil {
		return nil, fmt.Errorf("unable to parse aggregate payload: %w", err)
	}

	return &agg, nil
}

// limitToInt8 converts the limit to a postgres bigint, NULL when unbounded
func limitToInt8(limit int) pgtype.Int8 {
	return pgtype.Int8{
		Int64: int64(limit),
		Valid: limit > 0,
	}
}

// timeToTimestampz converts the time value to postgres timestamp
func timeToTimestampz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{
		Time:  t.UTC(),
		Valid: true,
	}
}
