package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishisetu/krishisetu/internal/modules/advisory"
	"github.com/krishisetu/krishisetu/internal/modules/alerts"
	"github.com/krishisetu/krishisetu/internal/modules/farmers"
	"github.com/krishisetu/krishisetu/internal/modules/market"
	"github.com/krishisetu/krishisetu/internal/modules/retailers"
)

var testLog = zerolog.New(nil).Level(zerolog.Disabled)

// MockFarmerDirectory is a mock implementation of FarmerDirectory
type MockFarmerDirectory struct {
	TargetsFunc func() ([]farmers.AdvisoryTarget, error)
	CropsFunc   func(farmerID int64) ([]farmers.Crop, error)
}

func (m *MockFarmerDirectory) ListAdvisoryTargets() ([]farmers.AdvisoryTarget, error) {
	if m.TargetsFunc != nil {
		return m.TargetsFunc()
	}
	return nil, nil
}

func (m *MockFarmerDirectory) ListCrops(farmerID int64) ([]farmers.Crop, error) {
	if m.CropsFunc != nil {
		return m.CropsFunc(farmerID)
	}
	return nil, nil
}

// MockAlertSink records every CreateBatch call
type MockAlertSink struct {
	CreateBatchFunc func(userID int64, drafts []alerts.NewAlert) ([]alerts.Alert, error)
	Calls           []struct {
		UserID int64
		Drafts []alerts.NewAlert
	}
}

func (m *MockAlertSink) CreateBatch(userID int64, drafts []alerts.NewAlert) ([]alerts.Alert, error) {
	m.Calls = append(m.Calls, struct {
		UserID int64
		Drafts []alerts.NewAlert
	}{userID, drafts})
	if m.CreateBatchFunc != nil {
		return m.CreateBatchFunc(userID, drafts)
	}
	stored := make([]alerts.Alert, len(drafts))
	for i, d := range drafts {
		stored[i] = alerts.Alert{ID: int64(i + 1), UserID: userID, Message: d.Message, Severity: d.Severity}
	}
	return stored, nil
}

// MockSnapshotStore records saved snapshots
type MockSnapshotStore struct {
	SaveFunc func(userID int64, snap *advisory.AnalysisSnapshot) error
	Saved    []*advisory.AnalysisSnapshot
}

func (m *MockSnapshotStore) Save(userID int64, snap *advisory.AnalysisSnapshot) error {
	m.Saved = append(m.Saved, snap)
	if m.SaveFunc != nil {
		return m.SaveFunc(userID, snap)
	}
	return nil
}

// MockShopDirectory is a mock implementation of ShopDirectory
type MockShopDirectory struct {
	ProfilesFunc func() ([]retailers.Profile, error)
	ItemsFunc    func(retailerID int64) ([]retailers.Item, error)
}

func (m *MockShopDirectory) ListProfiles() ([]retailers.Profile, error) {
	if m.ProfilesFunc != nil {
		return m.ProfilesFunc()
	}
	return nil, nil
}

func (m *MockShopDirectory) ListItems(retailerID int64) ([]retailers.Item, error) {
	if m.ItemsFunc != nil {
		return m.ItemsFunc(retailerID)
	}
	return nil, nil
}

// MockSupplyReader is a mock implementation of SupplyReader
type MockSupplyReader struct {
	TotalStockFunc func(itemName string) (float64, error)
}

func (m *MockSupplyReader) TotalStock(itemName string) (float64, error) {
	if m.TotalStockFunc != nil {
		return m.TotalStockFunc(itemName)
	}
	return 0, nil
}

func newAdvisoryJob(dir FarmerDirectory, sink AlertSink, store SnapshotStore) *FarmerAdvisoryJob {
	return NewFarmerAdvisoryJob(
		dir,
		market.NewService(testLog),
		advisory.NewService(nil, nil, testLog),
		sink,
		store,
		testLog,
	)
}

func TestFarmerAdvisoryJob_Name(t *testing.T) {
	job := newAdvisoryJob(&MockFarmerDirectory{}, &MockAlertSink{}, &MockSnapshotStore{})
	assert.Equal(t, "farmer_advisory", job.Name())
}

func TestFarmerAdvisoryJob_Run(t *testing.T) {
	dir := &MockFarmerDirectory{
		TargetsFunc: func() ([]farmers.AdvisoryTarget, error) {
			return []farmers.AdvisoryTarget{
				{FarmerID: 1, UserID: 10, Latitude: 12.97, Longitude: 77.59},
				{FarmerID: 2, UserID: 20},
			}, nil
		},
		CropsFunc: func(farmerID int64) ([]farmers.Crop, error) {
			if farmerID == 1 {
				return []farmers.Crop{
					{ID: 1, FarmerID: 1, Name: "tomato", QuantityKg: 100},
					{ID: 2, FarmerID: 1, Name: "onion", QuantityKg: 50},
				}, nil
			}
			return nil, nil
		},
	}
	sink := &MockAlertSink{}
	store := &MockSnapshotStore{}

	err := newAdvisoryJob(dir, sink, store).Run()
	require.NoError(t, err)

	require.Len(t, sink.Calls, 2, "one batch per analyzed crop")
	for _, call := range sink.Calls {
		assert.EqualValues(t, 10, call.UserID)
		assert.NotEmpty(t, call.Drafts, "every analysis yields at least the summary alert")
	}

	require.Len(t, store.Saved, 2)
	assert.Equal(t, "tomato", store.Saved[0].Crop)
	assert.Equal(t, "onion", store.Saved[1].Crop)
	assert.NotNil(t, store.Saved[0].Advisory)
	assert.Equal(t, advisory.SourceRules, store.Saved[0].Advisory.Source)
}

func TestFarmerAdvisoryJob_DirectoryError(t *testing.T) {
	dir := &MockFarmerDirectory{
		TargetsFunc: func() ([]farmers.AdvisoryTarget, error) {
			return nil, errors.New("db gone")
		},
	}
	err := newAdvisoryJob(dir, &MockAlertSink{}, &MockSnapshotStore{}).Run()
	assert.Error(t, err)
}

func TestFarmerAdvisoryJob_CropListErrorSkipsFarmer(t *testing.T) {
	dir := &MockFarmerDirectory{
		TargetsFunc: func() ([]farmers.AdvisoryTarget, error) {
			return []farmers.AdvisoryTarget{
				{FarmerID: 1, UserID: 10},
				{FarmerID: 2, UserID: 20},
			}, nil
		},
		CropsFunc: func(farmerID int64) ([]farmers.Crop, error) {
			if farmerID == 1 {
				return nil, errors.New("corrupt row")
			}
			return []farmers.Crop{{ID: 3, FarmerID: 2, Name: "potato", QuantityKg: 40}}, nil
		},
	}
	sink := &MockAlertSink{}
	store := &MockSnapshotStore{}

	err := newAdvisoryJob(dir, sink, store).Run()
	require.NoError(t, err)
	require.Len(t, sink.Calls, 1, "the failing farmer is skipped, not fatal")
	assert.EqualValues(t, 20, sink.Calls[0].UserID)
	require.Len(t, store.Saved, 1)
	assert.Equal(t, "potato", store.Saved[0].Crop)
}

func TestRetailerRestockJob_Name(t *testing.T) {
	job := NewRetailerRestockJob(&MockShopDirectory{}, &MockSupplyReader{}, &MockAlertSink{}, testLog)
	assert.Equal(t, "retailer_demand", job.Name())
}

func TestRetailerRestockJob_Run(t *testing.T) {
	shops := &MockShopDirectory{
		ProfilesFunc: func() ([]retailers.Profile, error) {
			return []retailers.Profile{{ID: 1, UserID: 30, ShopName: "Fresh Corner"}}, nil
		},
		ItemsFunc: func(retailerID int64) ([]retailers.Item, error) {
			return []retailers.Item{
				{ID: 1, RetailerID: 1, ItemName: "potato", QuantityKg: 10},
				{ID: 2, RetailerID: 1, ItemName: "tomato", QuantityKg: 80},
				{ID: 3, RetailerID: 1, ItemName: "onion", QuantityKg: 25},
			}, nil
		},
	}
	supply := &MockSupplyReader{
		TotalStockFunc: func(itemName string) (float64, error) {
			if itemName == "potato" {
				return 500, nil
			}
			return 0, nil
		},
	}
	sink := &MockAlertSink{}

	err := NewRetailerRestockJob(shops, supply, sink, testLog).Run()
	require.NoError(t, err)

	require.Len(t, sink.Calls, 1)
	call := sink.Calls[0]
	assert.EqualValues(t, 30, call.UserID)
	require.Len(t, call.Drafts, 2, "potato and onion are at or below the threshold")

	assert.Contains(t, call.Drafts[0].Message, "potato")
	assert.Contains(t, call.Drafts[0].Message, "500 kg")
	assert.Equal(t, alerts.SeverityWarning, call.Drafts[0].Severity)

	assert.Contains(t, call.Drafts[1].Message, "onion")
	assert.Contains(t, call.Drafts[1].Message, "no mandi stock")
}

func TestRetailerRestockJob_NoLowStock(t *testing.T) {
	shops := &MockShopDirectory{
		ProfilesFunc: func() ([]retailers.Profile, error) {
			return []retailers.Profile{{ID: 1, UserID: 30}}, nil
		},
		ItemsFunc: func(retailerID int64) ([]retailers.Item, error) {
			return []retailers.Item{{ID: 1, RetailerID: 1, ItemName: "tomato", QuantityKg: 200}}, nil
		},
	}
	sink := &MockAlertSink{}

	err := NewRetailerRestockJob(shops, &MockSupplyReader{}, sink, testLog).Run()
	require.NoError(t, err)
	assert.Empty(t, sink.Calls)
}

func TestRetailerRestockJob_ProfilesError(t *testing.T) {
	shops := &MockShopDirectory{
		ProfilesFunc: func() ([]retailers.Profile, error) {
			return nil, errors.New("db gone")
		},
	}
	err := NewRetailerRestockJob(shops, &MockSupplyReader{}, &MockAlertSink{}, testLog).Run()
	assert.Error(t, err)
}

// MockSessionReaper is a mock implementation of SessionReaper
type MockSessionReaper struct {
	ReapFunc func() (int64, error)
}

func (m *MockSessionReaper) ReapExpiredSessions() (int64, error) {
	if m.ReapFunc != nil {
		return m.ReapFunc()
	}
	return 0, nil
}

func TestSessionReaperJob_Run(t *testing.T) {
	reaper := &MockSessionReaper{ReapFunc: func() (int64, error) { return 3, nil }}
	job := NewSessionReaperJob(reaper, testLog)
	assert.Equal(t, "session_reaper", job.Name())
	assert.NoError(t, job.Run())

	reaper.ReapFunc = func() (int64, error) { return 0, errors.New("locked") }
	assert.Error(t, job.Run())
}

// MockCheckpointer records the requested checkpoint mode
type MockCheckpointer struct {
	Mode string
	Err  error
}

func (m *MockCheckpointer) WALCheckpoint(mode string) error {
	m.Mode = mode
	return m.Err
}

func TestWALCheckpointJob_Run(t *testing.T) {
	cp := &MockCheckpointer{}
	job := NewWALCheckpointJob(cp, testLog)
	assert.Equal(t, "wal_checkpoint", job.Name())
	require.NoError(t, job.Run())
	assert.Equal(t, "TRUNCATE", cp.Mode)

	cp.Err = errors.New("busy")
	assert.Error(t, job.Run())
}

// MockBackupRunner is a mock implementation of BackupRunner
type MockBackupRunner struct {
	BackupFunc func(ctx context.Context) (string, error)
	PruneFunc  func(ctx context.Context) (int, error)
}

func (m *MockBackupRunner) Backup(ctx context.Context) (string, error) {
	if m.BackupFunc != nil {
		return m.BackupFunc(ctx)
	}
	return "", nil
}

func (m *MockBackupRunner) Prune(ctx context.Context) (int, error) {
	if m.PruneFunc != nil {
		return m.PruneFunc(ctx)
	}
	return 0, nil
}

// MockMaintainer records the maintenance calls around a backup run
type MockMaintainer struct {
	HealthErr error
	VacuumErr error
	Checked   bool
	Vacuumed  bool
}

func (m *MockMaintainer) HealthCheck(ctx context.Context) error {
	m.Checked = true
	return m.HealthErr
}

func (m *MockMaintainer) Vacuum() error {
	m.Vacuumed = true
	return m.VacuumErr
}

func TestBackupJob_Run(t *testing.T) {
	runner := &MockBackupRunner{
		BackupFunc: func(ctx context.Context) (string, error) {
			return "backups/krishisetu-2026-08-25-020000.db", nil
		},
		PruneFunc: func(ctx context.Context) (int, error) { return 2, nil },
	}
	db := &MockMaintainer{}
	job := NewBackupJob(runner, db, testLog)
	assert.Equal(t, "db_backup", job.Name())
	assert.NoError(t, job.Run())
	assert.True(t, db.Checked)
	assert.True(t, db.Vacuumed)
}

func TestBackupJob_IntegrityFailureSkipsBackup(t *testing.T) {
	ran := false
	runner := &MockBackupRunner{
		BackupFunc: func(ctx context.Context) (string, error) {
			ran = true
			return "backups/x.db", nil
		},
	}
	db := &MockMaintainer{HealthErr: errors.New("integrity check failed: malformed")}
	assert.Error(t, NewBackupJob(runner, db, testLog).Run())
	assert.False(t, ran)
	assert.False(t, db.Vacuumed)
}

func TestBackupJob_BackupError(t *testing.T) {
	runner := &MockBackupRunner{
		BackupFunc: func(ctx context.Context) (string, error) {
			return "", errors.New("no bucket")
		},
	}
	assert.Error(t, NewBackupJob(runner, &MockMaintainer{}, testLog).Run())
}

func TestBackupJob_PruneErrorIsNotFatal(t *testing.T) {
	runner := &MockBackupRunner{
		BackupFunc: func(ctx context.Context) (string, error) { return "backups/x.db", nil },
		PruneFunc:  func(ctx context.Context) (int, error) { return 0, errors.New("list failed") },
	}
	db := &MockMaintainer{}
	assert.NoError(t, NewBackupJob(runner, db, testLog).Run())
	assert.True(t, db.Vacuumed)
}

func TestBackupJob_VacuumErrorIsNotFatal(t *testing.T) {
	runner := &MockBackupRunner{
		BackupFunc: func(ctx context.Context) (string, error) { return "backups/x.db", nil },
	}
	db := &MockMaintainer{VacuumErr: errors.New("database is locked")}
	assert.NoError(t, NewBackupJob(runner, db, testLog).Run())
}

func TestSchedulerAddJob(t *testing.T) {
	s := New(testLog)

	job := NewSessionReaperJob(&MockSessionReaper{}, testLog)
	require.NoError(t, s.AddJob("0 15 * * * *", job))
	assert.Equal(t, []string{"session_reaper"}, s.Jobs())

	assert.Error(t, s.AddJob("not a schedule", job))
	assert.Len(t, s.Jobs(), 1, "failed registrations are not recorded")
}

func TestSchedulerRunNow(t *testing.T) {
	s := New(testLog)

	ran := false
	reaper := &MockSessionReaper{ReapFunc: func() (int64, error) {
		ran = true
		return 1, nil
	}}
	require.NoError(t, s.RunNow(NewSessionReaperJob(reaper, testLog)))
	assert.True(t, ran)
}
