// models/stats.go
package models

import "math/big"

// PlayerStats mirrors the contract's per-player counters.
type PlayerStats struct {
	Played       uint64
	Won          uint64
	Tied         uint64
	TotalWagered *big.Int
	TotalWon     *big.Int
}

// WinRate in percent; 0 when no games were played.
func (s *PlayerStats) WinRate() float64 {
	if s.Played == 0 {
		return 0
	}
	return float64(s.Won) / float64(s.Played) * 100
}

// NetProfit = total winnings minus total wagered. Negative when down.
func (s *PlayerStats) NetProfit() *big.Int {
	wagered := s.TotalWagered
	won := s.TotalWon
	if wagered == nil {
		wagered = new(big.Int)
	}
	if won == nil {
		won = new(big.Int)
	}
	return new(big.Int).Sub(won, wagered)
}

func (s *PlayerStats) Clone() *PlayerStats {
	cp := *s
	if s.TotalWagered != nil {
		cp.TotalWagered = new(big.Int).Set(s.TotalWagered)
	}
	if s.TotalWon != nil {
		cp.TotalWon = new(big.Int).Set(s.TotalWon)
	}
	return &cp
}
