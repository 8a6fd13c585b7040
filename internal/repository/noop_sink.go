package repository

import (
	"context"
	"time"

	"BDRScan/internal/domain/models"
)

// NoopSink discards snapshots. Used when no sink backend is
// configured.
type NoopSink struct{}

func (NoopSink) Write(context.Context, time.Time, []models.FundamentalSnapshot) error { return nil }
func (NoopSink) Close() error                                                         { return nil }
