// models/commitment.go
package models

import "time"

// PendingCommitment is the local-only record of a not-yet-revealed choice the
// current session made when creating a round. It exists so the reveal step is
// *possible* — the off-chain bot normally performs the reveal, not us.
// Discarded once the round reaches a terminal phase or is cancelled.
type PendingCommitment struct {
	RoundID    uint64    `json:"game_id"`
	Choice     Choice    `json:"choice"`
	Nonce      string    `json:"nonce"` // decimal string of the 256-bit nonce
	Account    string    `json:"account"`
	CommitHash string    `json:"hash"` // 0x-prefixed keccak commitment
	Relayed    bool      `json:"relayed"`
	CreatedAt  time.Time `json:"created_at"`
}

func (p *PendingCommitment) Clone() *PendingCommitment {
	cp := *p
	return &cp
}
