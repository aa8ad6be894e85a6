// services/archiver.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rps-arena/models"
)

// ArchiveService persists terminal rounds to Postgres. The tracker's history
// window is bounded and in-memory only; the archive is what survives restarts.
type ArchiveService struct {
	DB      *gorm.DB
	Tracker *Tracker
}

func NewArchiveService(db *gorm.DB, tracker *Tracker) *ArchiveService {
	return &ArchiveService{DB: db, Tracker: tracker}
}

// StartArchiveScheduler sweeps the tracker's terminal rounds into the archive
// every minute. Upserts keyed on round_id make the sweep idempotent.
func (s *ArchiveService) StartArchiveScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			if err := s.ArchiveTerminalRounds(); err != nil {
				log.Printf("[ARCHIVE] ❌ Sweep failed: %v", err)
			}
		}),
	)
}

// ArchiveTerminalRounds upserts every terminal round currently in the
// tracker's history window.
func (s *ArchiveService) ArchiveTerminalRounds() error {
	snap := s.Tracker.Snapshot()
	if len(snap.History) == 0 {
		return nil
	}

	records := make([]models.RoundRecord, 0, len(snap.History))
	for _, r := range snap.History {
		records = append(records, models.RecordFromRound(r))
	}

	err := s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "round_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"opponent", "phase", "outcome", "winner",
			"settlement_amount", "auto_resolved", "resolved_at", "updated_at",
		}),
	}).Create(&records).Error
	if err != nil {
		return err
	}

	log.Printf("✅ Archived %d terminal rounds", len(records))
	return nil
}

// RecentRecords returns archived rounds, newest first.
func (s *ArchiveService) RecentRecords(limit int) ([]models.RoundRecord, error) {
	var records []models.RoundRecord
	err := s.DB.Order("round_id DESC").Limit(limit).Find(&records).Error
	return records, err
}
