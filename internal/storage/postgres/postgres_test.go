package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qc-line/internal/storage"
)

// openTestStorage connects to QC_POSTGRES_DSN or skips the test.
func openTestStorage(t *testing.T) *Storage {
	t.Helper()
	dsn := os.Getenv("QC_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("QC_POSTGRES_DSN not set")
	}

	s, err := New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestScansAndChecklists(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()
	serial := "T" + uuid.NewString()[:8]
	ts := time.Now().UTC().Truncate(time.Microsecond)

	_, err := s.InsertScan(ctx, storage.ProductionScan{SerialNumber: serial, Timestamp: ts, ScanDate: "2025-03-10"})
	require.NoError(t, err)

	_, err = s.InsertScan(ctx, storage.ProductionScan{SerialNumber: serial, Timestamp: ts, ScanDate: "2025-03-10"})
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	scans, err := s.ScansBetween(ctx, serial, ts.Add(-time.Minute), ts.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.True(t, scans[0].Timestamp.Equal(ts))

	batchID := uuid.NewString()
	require.NoError(t, s.InsertChecklistBatch(ctx, []storage.ChecklistEntry{
		{BatchID: batchID, SerialNumber: serial, Item: "Etiqueta", Status: storage.StatusConforming, Timestamp: ts},
		{BatchID: batchID, SerialNumber: serial, Item: "Solda", Status: storage.StatusNonConforming, Timestamp: ts, Rejected: true},
	}))

	exists, err := s.HasInitialChecklist(ctx, serial)
	require.NoError(t, err)
	assert.True(t, exists)

	err = s.InsertChecklistBatch(ctx, []storage.ChecklistEntry{
		{BatchID: uuid.NewString(), SerialNumber: serial, Item: "Solda", Status: storage.StatusConforming, Timestamp: ts.Add(time.Hour)},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicate)
}
