package dashboard

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"qc-line/internal/production"
	"qc-line/internal/storage"
	"qc-line/internal/storage/memory"
)

var day0 = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func clock(h, m int) time.Time {
	return day0.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func checklist(serial string, ts time.Time, reinspection bool, statuses map[string]storage.Status) []storage.ChecklistEntry {
	rejected := false
	for _, st := range statuses {
		if st == storage.StatusNonConforming {
			rejected = true
		}
	}
	var rows []storage.ChecklistEntry
	for _, item := range []string{"Solda", "Pintura"} {
		rows = append(rows, storage.ChecklistEntry{
			SerialNumber: serial,
			Item:         item,
			Status:       statuses[item],
			Timestamp:    ts,
			Rejected:     storage.YesNo(rejected),
			Reinspection: storage.YesNo(reinspection),
		})
	}
	return rows
}

var (
	conf    = storage.StatusConforming
	nonConf = storage.StatusNonConforming
)

func seed(t *testing.T) *memory.Storage {
	t.Helper()
	store := memory.New()
	ctx := context.Background()

	insertScan := func(serial, productionType string, ts time.Time) {
		_, err := store.InsertScan(ctx, storage.ProductionScan{
			SerialNumber:   serial,
			Timestamp:      ts,
			ScanDate:       ts.Format("2006-01-02"),
			ProductionType: productionType,
		})
		require.NoError(t, err)
	}

	insertScan("OLD", "A", clock(-2, 0))
	for i := 0; i < 7; i++ {
		productionType := "A"
		if i >= 6 {
			productionType = "B"
		}
		insertScan(fmt.Sprintf("S%d", i), productionType, clock(7, i*8))
	}
	insertScan("S7", "B", clock(8, 10))
	insertScan("S8", "B", clock(8, 40))
	insertScan("S9", "B", clock(9, 10))

	batches := [][]storage.ChecklistEntry{
		checklist("S0", clock(8, 0), false, map[string]storage.Status{"Solda": conf, "Pintura": conf}),
		checklist("S1", clock(8, 5), false, map[string]storage.Status{"Solda": nonConf, "Pintura": conf}),
		checklist("S2", clock(8, 6), false, map[string]storage.Status{"Solda": nonConf, "Pintura": nonConf}),
		checklist("S2", clock(9, 0), true, map[string]storage.Status{"Solda": conf, "Pintura": conf}),
	}
	for _, b := range batches {
		require.NoError(t, store.InsertChecklistBatch(ctx, b))
	}
	return store
}

func newTestService(t *testing.T, store Storage, now time.Time) *Service {
	t.Helper()
	table, err := production.ParseTargetTable(map[string]int{"07:00": 18, "09:00": 0})
	require.NoError(t, err)

	s := NewService(store, table, production.ClosingAfterHour, time.UTC)
	s.now = func() time.Time { return now }
	return s
}

func TestProduction(t *testing.T) {
	s := newTestService(t, seed(t), clock(9, 30))

	got, err := s.Production(context.Background(), production.DayOf(day0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "2025-03-10", got.Date)
	assert.Equal(t, 10, got.TotalProduced)
	assert.Equal(t, map[string]int{"A": 6, "B": 4}, got.ByProductionType)
	assert.Equal(t, 3, got.InspectedSerials)
	assert.Equal(t, 2, got.ApprovedSerials)
	assert.True(t, got.ApprovalPercent.Equal(decimal.RequireFromString("66.67")), got.ApprovalPercent.String())
	assert.Equal(t, 18, got.AccumulatedTarget)
	assert.Equal(t, 8, got.Shortfall)
	assert.False(t, got.OnTarget)
	assert.Equal(t, []production.HourRow{
		{Start: "07:00", Target: 18, Actual: 7},
		{Start: "09:00", Target: 0, Actual: 1},
	}, got.Hourly)
}

func TestProduction_Shortfall(t *testing.T) {
	store := memory.New()
	for i := 0; i < 10; i++ {
		_, err := store.InsertScan(context.Background(), storage.ProductionScan{
			SerialNumber: fmt.Sprintf("%09d", i),
			Timestamp:    clock(7, i),
			ScanDate:     "2025-03-10",
		})
		require.NoError(t, err)
	}

	s := newTestService(t, store, clock(9, 30))
	got, err := s.Production(context.Background(), production.DayOf(day0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 18, got.AccumulatedTarget)
	assert.Equal(t, 8, got.Shortfall)
	assert.False(t, got.OnTarget)
	assert.True(t, got.ApprovalPercent.IsZero())
}

func TestProduction_PastAndFutureDays(t *testing.T) {
	s := newTestService(t, memory.New(), clock(9, 30))

	past, err := s.Production(context.Background(), production.DayOf(clock(-12, 0), time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 18, past.AccumulatedTarget)
	assert.Equal(t, 18, past.Shortfall)

	future, err := s.Production(context.Background(), production.DayOf(clock(36, 0), time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, future.AccumulatedTarget)
	assert.True(t, future.OnTarget)
}

func TestQuality(t *testing.T) {
	s := newTestService(t, seed(t), clock(9, 30))

	got, err := s.Quality(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, got.TotalInspected)
	assert.Equal(t, 2, got.Approved)
	assert.Equal(t, 1, got.Rejected)
	assert.True(t, got.ApprovalPercent.Equal(decimal.RequireFromString("66.67")))

	require.Len(t, got.Pareto, 2)
	assert.Equal(t, "Solda", got.Pareto[0].Item)
	assert.Equal(t, 2, got.Pareto[0].Count)
	assert.True(t, got.Pareto[0].CumulativePercent.Equal(decimal.RequireFromString("66.67")))
	assert.Equal(t, "Pintura", got.Pareto[1].Item)
	assert.True(t, got.Pareto[1].CumulativePercent.Equal(decimal.NewFromInt(100)))
}

func TestPareto_TiesOrderedByItem(t *testing.T) {
	entries := append(
		checklist("A", clock(8, 0), false, map[string]storage.Status{"Solda": nonConf, "Pintura": nonConf}),
		checklist("B", clock(8, 1), false, map[string]storage.Status{"Solda": conf, "Pintura": storage.StatusNotApplicable})...,
	)

	rows := Pareto(entries)

	require.Len(t, rows, 2)
	assert.Equal(t, "Pintura", rows[0].Item)
	assert.Equal(t, "Solda", rows[1].Item)
	assert.True(t, rows[0].CumulativePercent.Equal(decimal.NewFromInt(50)))
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) AllScans(ctx context.Context) ([]storage.ProductionScan, error) {
	args := m.Called(ctx)
	scans, _ := args.Get(0).([]storage.ProductionScan)
	return scans, args.Error(1)
}

func (m *MockStorage) AllChecklists(ctx context.Context) ([]storage.ChecklistEntry, error) {
	args := m.Called(ctx)
	entries, _ := args.Get(0).([]storage.ChecklistEntry)
	return entries, args.Error(1)
}

func TestProduction_StoreError(t *testing.T) {
	store := new(MockStorage)
	store.On("AllScans", mock.Anything).Return(nil, storage.ErrStoreUnavailable)
	store.On("AllChecklists", mock.Anything).Return(nil, nil).Maybe()

	s := newTestService(t, store, clock(9, 30))
	_, err := s.Production(context.Background(), production.DayOf(day0, time.UTC))

	assert.True(t, errors.Is(err, storage.ErrStoreUnavailable))
}
