// Package collector receives reports over HTTP and keeps them for later replay.
package collector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aretw0/remotedev/pkg/domain"
)

// Record is a stored report.
type Record struct {
	ID         string        `json:"id"`
	ReceivedAt time.Time     `json:"receivedAt"`
	Report     domain.Report `json:"report"`
}

// Store persists received reports.
type Store interface {
	// Save stores the record under record.ID, replacing any previous one.
	Save(ctx context.Context, record *Record) error
	// Get returns domain.ErrReportNotFound for unknown IDs.
	Get(ctx context.Context, id string) (*Record, error)
	// List returns at most limit records, newest first. A limit of zero or less means all.
	List(ctx context.Context, limit int) ([]*Record, error)
}

// Validate checks that a received report can be stored.
func Validate(r *domain.Report) error {
	if r == nil {
		return fmt.Errorf("%w: empty body", domain.ErrInvalidReport)
	}
	if !r.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", domain.ErrInvalidReport, r.Type)
	}
	return nil
}

// SortNewestFirst orders records by ReceivedAt, newest first. Ties are
// broken by ID, descending.
func SortNewestFirst(records []*Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].ReceivedAt.Equal(records[j].ReceivedAt) {
			return records[i].ID > records[j].ID
		}
		return records[i].ReceivedAt.After(records[j].ReceivedAt)
	})
}
