package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/supto/pharmacy-buddy/internal/domain/models"
)

// SaveDailyReport stores a nightly activity snapshot.
func (s *Store) SaveDailyReport(ctx context.Context, report models.DailyReport) error {
	report.CreatedAt = time.Now().UTC()

	if _, err := s.db.Collection(reportsColl).InsertOne(ctx, report); err != nil {
		return fmt.Errorf("insert daily report: %w", err)
	}
	return nil
}
