package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"docuvault/document-portal/document-portal-backend/internal/audit"
	"docuvault/document-portal/document-portal-backend/internal/documents"
)

type fakeExpiryStore struct {
	docs    []documents.Document
	err     error
	windows [][2]time.Time
	entries []audit.Entry
}

func (f *fakeExpiryStore) ListNewlyExpired(ctx context.Context, since, until time.Time) ([]documents.Document, error) {
	f.windows = append(f.windows, [2]time.Time{since, until})
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

func (f *fakeExpiryStore) Record(ctx context.Context, entry audit.Entry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func TestExpiryScanRecordsOneEntryPerDocument(t *testing.T) {
	store := &fakeExpiryStore{docs: []documents.Document{
		{ID: uuid.New(), TenantID: uuid.New(), CreatedBy: uuid.New()},
		{ID: uuid.New(), TenantID: uuid.New(), CreatedBy: uuid.New()},
	}}
	scanner := newExpiryScanner(store, zap.NewNop())

	scanner.run(context.Background())

	if assert.Len(t, store.entries, 2) {
		for i, entry := range store.entries {
			assert.Equal(t, "document.expired", entry.Action)
			assert.Equal(t, store.docs[i].ID, entry.EntityID)
			assert.Equal(t, store.docs[i].TenantID, entry.TenantID)
		}
	}
}

func TestExpiryScanWatermarkAdvancesOnlyOnSuccess(t *testing.T) {
	store := &fakeExpiryStore{err: errors.New("connection reset")}
	scanner := newExpiryScanner(store, zap.NewNop())

	scanner.run(context.Background())
	store.err = nil
	scanner.run(context.Background())
	scanner.run(context.Background())

	if assert.Len(t, store.windows, 3) {
		// The failed window is retried whole.
		assert.True(t, store.windows[1][0].Equal(store.windows[0][0]))
		// After a successful scan the next window starts where it ended.
		assert.True(t, store.windows[2][0].Equal(store.windows[1][1]))
	}
}
