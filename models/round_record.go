// models/round_record.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// RoundRecord is the durable archive row for a terminal round. The in-memory
// tracker only keeps a bounded recent-history window; the archiver copies
// settled/cancelled rounds here so history survives restarts.
// Table name: round_archive
type RoundRecord struct {
	RoundID          uint64     `gorm:"primaryKey;autoIncrement:false" json:"round_id"`
	Creator          string     `gorm:"type:varchar(64);not null;index" json:"creator"`
	Opponent         string     `gorm:"type:varchar(64);index" json:"opponent"`
	Wager            string     `gorm:"type:numeric(78,0);not null" json:"wager"` // wei, as decimal string
	Phase            string     `gorm:"type:varchar(16);not null;index" json:"phase"`
	Outcome          string     `gorm:"type:varchar(16)" json:"outcome"`
	Winner           string     `gorm:"type:varchar(64)" json:"winner"`
	SettlementAmount string     `gorm:"type:numeric(78,0)" json:"settlement_amount"`
	AutoResolved     bool       `gorm:"not null" json:"auto_resolved"`
	CreatedOnChainAt time.Time  `json:"created_on_chain_at"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (RoundRecord) TableName() string { return "round_archive" }

// RecordFromRound flattens a terminal round into its archive row.
func RecordFromRound(r *Round) RoundRecord {
	rec := RoundRecord{
		RoundID:          r.ID,
		Creator:          r.Creator,
		Opponent:         r.Opponent,
		Phase:            string(r.Phase),
		Outcome:          string(r.Outcome),
		Winner:           r.Winner,
		AutoResolved:     r.AutoResolved,
		CreatedOnChainAt: r.CreatedAt,
	}
	if r.Wager != nil {
		rec.Wager = r.Wager.String()
	}
	if r.SettlementAmount != nil {
		rec.SettlementAmount = r.SettlementAmount.String()
	}
	if !r.ResolvedAt.IsZero() {
		t := r.ResolvedAt
		rec.ResolvedAt = &t
	}
	return rec
}
