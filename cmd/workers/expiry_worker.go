package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"docuvault/document-portal/document-portal-backend/internal/audit"
	"docuvault/document-portal/document-portal-backend/internal/config"
	"docuvault/document-portal/document-portal-backend/internal/db"
	"docuvault/document-portal/document-portal-backend/internal/documents"
)

// expiryStore is the slice of the workflow repository the scanner needs.
type expiryStore interface {
	ListNewlyExpired(ctx context.Context, since, until time.Time) ([]documents.Document, error)
	Record(ctx context.Context, entry audit.Entry) error
}

// expiryScanner records an audit observation for approved documents whose
// expiry date passed since the previous successful scan. Expiry stays a
// derived status; the scanner never mutates document state. Cron runs each
// tick in its own goroutine, so the watermark is mutex-guarded against a slow
// scan overlapping the next tick.
type expiryScanner struct {
	store  expiryStore
	logger *zap.Logger

	mu       sync.Mutex
	lastScan time.Time
}

func newExpiryScanner(store expiryStore, logger *zap.Logger) *expiryScanner {
	return &expiryScanner{store: store, logger: logger, lastScan: time.Now()}
}

func (s *expiryScanner) run(ctx context.Context) {
	s.mu.Lock()
	since := s.lastScan
	s.mu.Unlock()
	until := time.Now()

	if err := s.scan(ctx, since, until); err != nil {
		s.logger.Error("Expiry scan failed", zap.Error(err))
		return
	}

	// Advance only after a successful scan; a failed window is retried whole.
	s.mu.Lock()
	if until.After(s.lastScan) {
		s.lastScan = until
	}
	s.mu.Unlock()
}

func (s *expiryScanner) scan(ctx context.Context, since, until time.Time) error {
	expired, err := s.store.ListNewlyExpired(ctx, since, until)
	if err != nil {
		return err
	}
	for _, doc := range expired {
		if err := s.store.Record(ctx, audit.Entry{
			TenantID:   doc.TenantID,
			ActorID:    doc.CreatedBy,
			EntityType: "document",
			EntityID:   doc.ID,
			Action:     "document.expired",
			Details:    "approved document passed its expiry date",
		}); err != nil {
			return err
		}
	}
	if len(expired) > 0 {
		s.logger.Info("Recorded expired documents", zap.Int("count", len(expired)))
	}
	return nil
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	database, err := db.Connect(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	scanner := newExpiryScanner(documents.NewRepository(database), logger)

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Workers.ExpiryScanCron, func() {
		scanner.run(context.Background())
	})
	if err != nil {
		logger.Fatal("Invalid expiry scan schedule",
			zap.String("cron", cfg.Workers.ExpiryScanCron), zap.Error(err))
	}

	scheduler.Start()
	logger.Info("Expiry worker started", zap.String("cron", cfg.Workers.ExpiryScanCron))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx := scheduler.Stop()
	<-ctx.Done()
	logger.Info("Expiry worker exiting")
}
