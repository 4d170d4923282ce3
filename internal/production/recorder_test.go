package production

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"qc-line/internal/lib/serial"
	"qc-line/internal/storage"
	"qc-line/internal/storage/memory"
)

type MockScanStore struct {
	mock.Mock
}

func (m *MockScanStore) ScansBetween(ctx context.Context, serial string, from, to time.Time) ([]storage.ProductionScan, error) {
	args := m.Called(ctx, serial, from, to)
	scans, _ := args.Get(0).([]storage.ProductionScan)
	return scans, args.Error(1)
}

func (m *MockScanStore) InsertScan(ctx context.Context, scan storage.ProductionScan) (int64, error) {
	args := m.Called(ctx, scan)
	return args.Get(0).(int64), args.Error(1)
}

var brt = time.FixedZone("BRT", -3*60*60)

func newTestRecorder(store ScanStore, now time.Time) *Recorder {
	r := NewRecorder(slog.Default(), store, serial.Normalizer{Length: 9, Numeric: true}, brt)
	r.now = func() time.Time { return now }
	return r
}

func TestRecordScan(t *testing.T) {
	store := memory.New()
	now := time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)
	r := newTestRecorder(store, now)

	scan, err := r.RecordScan(context.Background(), ScanRequest{Serial: "12345", ProductionType: " Linha A ", OrderID: "OP-1"})
	require.NoError(t, err)

	assert.Equal(t, "000012345", scan.SerialNumber)
	assert.Equal(t, "2025-03-10", scan.ScanDate)
	assert.Equal(t, "Linha A", scan.ProductionType)
	assert.Equal(t, "OP-1", scan.OrderID)
	assert.NotZero(t, scan.ID)
	assert.True(t, scan.Timestamp.Equal(now))
}

func TestRecordScan_SameDayDuplicate(t *testing.T) {
	store := memory.New()
	r := newTestRecorder(store, time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC))

	_, err := r.RecordScan(context.Background(), ScanRequest{Serial: "000012345"})
	require.NoError(t, err)

	r.now = func() time.Time { return time.Date(2025, 3, 11, 2, 0, 0, 0, time.UTC) }
	_, err = r.RecordScan(context.Background(), ScanRequest{Serial: "12345"})
	assert.ErrorIs(t, err, ErrAlreadyScanned)

	// next local day
	r.now = func() time.Time { return time.Date(2025, 3, 11, 3, 0, 0, 0, time.UTC) }
	_, err = r.RecordScan(context.Background(), ScanRequest{Serial: "12345"})
	assert.NoError(t, err)

	scans, err := store.AllScans(context.Background())
	require.NoError(t, err)
	assert.Len(t, scans, 2)
}

func TestRecordScan_InvalidSerial(t *testing.T) {
	store := new(MockScanStore)
	r := newTestRecorder(store, time.Now())

	_, err := r.RecordScan(context.Background(), ScanRequest{Serial: "ABC"})

	assert.ErrorIs(t, err, serial.ErrInvalidSerial)
	store.AssertNotCalled(t, "ScansBetween", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordScan_UniqueViolationIsDuplicate(t *testing.T) {
	store := new(MockScanStore)
	store.On("ScansBetween", mock.Anything, "000000007", mock.Anything, mock.Anything).Return(nil, nil)
	store.On("InsertScan", mock.Anything, mock.Anything).Return(int64(0), fmt.Errorf("insert: %w", storage.ErrDuplicate))

	r := newTestRecorder(store, time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC))
	_, err := r.RecordScan(context.Background(), ScanRequest{Serial: "7"})

	assert.ErrorIs(t, err, ErrAlreadyScanned)
	store.AssertExpectations(t)
}

func TestRecordScan_StoreFailure(t *testing.T) {
	storeErr := fmt.Errorf("%w: timeout", storage.ErrStoreUnavailable)
	store := new(MockScanStore)
	store.On("ScansBetween", mock.Anything, "000000007", mock.Anything, mock.Anything).Return(nil, storeErr)

	r := newTestRecorder(store, time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC))
	_, err := r.RecordScan(context.Background(), ScanRequest{Serial: "7"})

	assert.True(t, errors.Is(err, storage.ErrStoreUnavailable))
	store.AssertNotCalled(t, "InsertScan", mock.Anything, mock.Anything)
}

func TestRecordScan_QueriesLocalDayBounds(t *testing.T) {
	store := new(MockScanStore)
	from := time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 11, 3, 0, 0, 0, time.UTC)
	store.On("ScansBetween", mock.Anything, "000000007", from, to).Return(nil, nil)
	store.On("InsertScan", mock.Anything, mock.Anything).Return(int64(1), nil)

	r := newTestRecorder(store, time.Date(2025, 3, 11, 1, 0, 0, 0, time.UTC))
	scan, err := r.RecordScan(context.Background(), ScanRequest{Serial: "7"})

	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", scan.ScanDate)
	store.AssertExpectations(t)
}
