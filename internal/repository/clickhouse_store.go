package repository

import (
	"context"
	"fmt"
	"time"

	"BDRScan/internal/domain/models"
	pkgch "BDRScan/pkg/clickhouse"
	applogger "BDRScan/pkg/logger"
)

var snapshotSchema = []string{
	`CREATE TABLE IF NOT EXISTS fundamental_snapshots (
		scan_at       DateTime,
		symbol        String,
		bdr_code      String,
		market_cap_b  Float64,
		pe            Nullable(Float64),
		pb            Nullable(Float64),
		div_yield_pct Float64,
		roe_pct       Nullable(Float64),
		roe_samples   UInt8,
		sector        String,
		price         Float64,
		score         UInt8,
		status        LowCardinality(String)
	) ENGINE = MergeTree()
	ORDER BY (symbol, scan_at)`,
}

// ClickHouseSnapshotStore persists scan snapshots into ClickHouse for
// historical queries.
type ClickHouseSnapshotStore struct {
	client *pkgch.Client
	log    *applogger.Logger
}

// NewClickHouseSnapshotStore ensures the snapshot table exists and
// returns the store.
func NewClickHouseSnapshotStore(ctx context.Context, client *pkgch.Client, log *applogger.Logger) (*ClickHouseSnapshotStore, error) {
	if err := client.InitSchema(ctx, snapshotSchema); err != nil {
		return nil, fmt.Errorf("snapshot schema: %w", err)
	}
	return &ClickHouseSnapshotStore{client: client, log: log}, nil
}

// Write inserts the snapshots of one scan in a single transaction.
func (s *ClickHouseSnapshotStore) Write(ctx context.Context, scanAt time.Time, snaps []models.FundamentalSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	tx, err := s.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO fundamental_snapshots
		(scan_at, symbol, bdr_code, market_cap_b, pe, pb, div_yield_pct, roe_pct, roe_samples, sector, price, score, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, snap := range snaps {
		if _, err := stmt.ExecContext(ctx,
			scanAt,
			snap.Symbol,
			snap.BDRCode,
			snap.MarketCapB,
			snap.PE,
			snap.PB,
			snap.DivYieldPct,
			snap.ROEPct,
			uint8(snap.ROESamples),
			snap.Sector,
			snap.Price,
			uint8(snap.Score),
			string(snap.Status),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert %s: %w", snap.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Debug("snapshots stored", applogger.Int("count", len(snaps)))
	return nil
}

// Close closes the ClickHouse client.
func (s *ClickHouseSnapshotStore) Close() error {
	return s.client.Close()
}
