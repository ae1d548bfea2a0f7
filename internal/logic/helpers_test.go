package logic

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/GANESH4511/Dataverse/internal/chain"
	"github.com/GANESH4511/Dataverse/internal/database"
	"github.com/GANESH4511/Dataverse/internal/model"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// one connection keeps the in-memory database alive and serialises writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedWorker(t *testing.T, db *gorm.DB, address string, pending, locked int64) *model.Worker {
	t.Helper()
	w := &model.Worker{WalletAddress: address, Nonce: "1", PendingBalance: pending, LockedBalance: locked}
	if err := db.Create(w).Error; err != nil {
		t.Fatalf("seed worker: %v", err)
	}
	return w
}

func seedUser(t *testing.T, db *gorm.DB, address string) *model.User {
	t.Helper()
	u := &model.User{WalletAddress: address, Nonce: "1"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedTask(t *testing.T, db *gorm.DB, owner string, amount int64) *model.Task {
	t.Helper()
	task := &model.Task{
		Title:   "label images",
		Amount:  amount,
		FileURL: "https://cdn.example.com/uploads/t.zip",
		Status:  model.TaskStatusPending,
		UserID:  owner,
	}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}
	return task
}

func balanceOf(t *testing.T, db *gorm.DB, workerID string) (pending, locked int64) {
	t.Helper()
	var w model.Worker
	if err := db.First(&w, "id = ?", workerID).Error; err != nil {
		t.Fatalf("load worker: %v", err)
	}
	return w.PendingBalance, w.LockedBalance
}

// fakeTransferrer scripts chain outcomes.
type fakeTransferrer struct {
	mu           sync.Mutex
	prepareErr   error
	broadcastErr error
	awaitStatus  chain.TransferStatus
	awaitErr     error
	awaitDelay   time.Duration
	status       chain.TransferStatus
	prepared     int
	broadcasts   int
	sending      int  // prepared but not yet broadcast
	overlapped   bool // a Prepare ran while another transfer was unsent
}

func (f *fakeTransferrer) ValidateAddress(string) error { return nil }

func (f *fakeTransferrer) Prepare(_ context.Context, to string, amount int64) (*chain.Transfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.prepareErr != nil {
		return nil, f.prepareErr
	}
	f.prepared++
	if f.sending > 0 {
		f.overlapped = true
	}
	f.sending++
	return &chain.Transfer{Signature: "sig-" + to + "-" + time.Now().Format("150405.000000000"), LastValid: 100}, nil
}

func (f *fakeTransferrer) Broadcast(context.Context, *chain.Transfer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts++
	f.sending--
	return f.broadcastErr
}

func (f *fakeTransferrer) Await(ctx context.Context, _ string, _ uint64) (chain.TransferStatus, error) {
	if f.awaitDelay > 0 {
		time.Sleep(f.awaitDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.awaitStatus, f.awaitErr
}

func (f *fakeTransferrer) Status(context.Context, string, uint64) (chain.TransferStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

func (f *fakeTransferrer) setStatus(s chain.TransferStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = s
}
