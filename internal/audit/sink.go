package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sink records audit entries. Implementations must be usable inside an open
// transaction so that a rolled-back operation leaves no audit trace.
type Sink interface {
	Record(ctx context.Context, entry Entry) error
}

type gormSink struct {
	db *gorm.DB
}

// NewSink returns a Sink writing to the given (possibly transactional) handle.
func NewSink(db *gorm.DB) Sink {
	return &gormSink{db: db}
}

func (s *gormSink) Record(ctx context.Context, entry Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}
