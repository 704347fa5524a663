package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/remotedev/pkg/domain"
)

// RunStoreContract runs a suite of tests to verify that a Store implementation
// adheres to the expected behavior. The store must start empty.
func RunStoreContract(t *testing.T, s Store) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	payload := `[{"type":"INCREMENT"}]`
	preloaded := "0"

	t.Run("Save and Get", func(t *testing.T) {
		rec := &Record{
			ID:         "contract-1",
			ReceivedAt: base,
			Report: domain.Report{
				Type:           domain.ReportActions,
				Action:         "INCREMENT",
				Payload:        &payload,
				PreloadedState: &preloaded,
				Title:          "first",
				User:           map[string]any{"id": "u1"},
			},
		}
		require.NoError(t, s.Save(ctx, rec))

		got, err := s.Get(ctx, "contract-1")
		require.NoError(t, err)
		assert.Equal(t, "contract-1", got.ID)
		assert.True(t, base.Equal(got.ReceivedAt), "received time should round-trip")
		assert.Equal(t, domain.ReportActions, got.Report.Type)
		assert.Equal(t, "first", got.Report.Title)
		require.NotNil(t, got.Report.Payload)
		assert.Equal(t, payload, *got.Report.Payload)
		require.NotNil(t, got.Report.PreloadedState)
		assert.Equal(t, preloaded, *got.Report.PreloadedState)
		assert.Equal(t, map[string]any{"id": "u1"}, got.Report.User)
	})

	t.Run("Get Not Found", func(t *testing.T) {
		_, err := s.Get(ctx, "missing")
		assert.True(t, errors.Is(err, domain.ErrReportNotFound), "expected ErrReportNotFound, got %v", err)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		rec := &Record{ID: "contract-1", ReceivedAt: base, Report: domain.Report{Type: domain.ReportActions, Title: "updated"}}
		require.NoError(t, s.Save(ctx, rec))

		got, err := s.Get(ctx, "contract-1")
		require.NoError(t, err)
		assert.Equal(t, "updated", got.Report.Title)
	})

	t.Run("List Newest First", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, &Record{ID: "contract-2", ReceivedAt: base.Add(time.Minute), Report: domain.Report{Type: domain.ReportState}}))
		require.NoError(t, s.Save(ctx, &Record{ID: "contract-3", ReceivedAt: base.Add(2 * time.Minute), Report: domain.Report{Type: domain.ReportAction}}))

		all, err := s.List(ctx, 0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"contract-3", "contract-2", "contract-1"}, ids(all))

		limited, err := s.List(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"contract-3", "contract-2"}, ids(limited))
	})

	t.Run("Records Are Isolated", func(t *testing.T) {
		got, err := s.Get(ctx, "contract-2")
		require.NoError(t, err)
		got.Report.Title = "mutated"

		again, err := s.Get(ctx, "contract-2")
		require.NoError(t, err)
		assert.NotEqual(t, "mutated", again.Report.Title)
	})
}

func ids(records []*Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}
