// models/round.go
package models

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

// WeiPerToken — the wager token uses 18 decimals, same as the native coin.
var WeiPerToken = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// TokensToWei converts a whole-token amount to its wei representation.
func TokensToWei(tokens uint64) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(tokens), WeiPerToken)
}

// Choice is one of the three moves, or None while hidden/unset.
type Choice uint8

const (
	ChoiceRock Choice = iota
	ChoicePaper
	ChoiceScissors
	ChoiceNone // commit not yet revealed, or opponent slot empty
)

func (c Choice) Valid() bool {
	return c == ChoiceRock || c == ChoicePaper || c == ChoiceScissors
}

func (c Choice) String() string {
	switch c {
	case ChoiceRock:
		return "rock"
	case ChoicePaper:
		return "paper"
	case ChoiceScissors:
		return "scissors"
	default:
		return "none"
	}
}

// ParseChoice accepts both the wire name and the on-chain numeric code.
func ParseChoice(s string) (Choice, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rock", "0":
		return ChoiceRock, nil
	case "paper", "1":
		return ChoicePaper, nil
	case "scissors", "2":
		return ChoiceScissors, nil
	}
	return ChoiceNone, fmt.Errorf("unknown choice %q", s)
}

// Phase is the round's position in its lifecycle.
type Phase string

const (
	PhaseOpen      Phase = "open"
	PhaseJoined    Phase = "joined"
	PhaseSettled   Phase = "settled"
	PhaseCancelled Phase = "cancelled"
)

// phaseRank orders phases along the lifecycle. Terminal phases share the top
// rank: once there, a round never moves again.
func phaseRank(p Phase) int {
	switch p {
	case PhaseOpen:
		return 0
	case PhaseJoined:
		return 1
	case PhaseSettled, PhaseCancelled:
		return 2
	}
	return -1
}

// CanTransition reports whether from→to is an edge of the round state machine:
// Open→Joined, Open→Cancelled, Joined→Settled, Joined→Cancelled.
func CanTransition(from, to Phase) bool {
	switch from {
	case PhaseOpen:
		return to == PhaseJoined || to == PhaseCancelled
	case PhaseJoined:
		return to == PhaseSettled || to == PhaseCancelled
	}
	return false
}

// Forward reports whether to is the same phase or later in the lifecycle than
// from. Detail refetches use this relaxed rule: the chain is authoritative and
// may be observed after skipping an intermediate phase, but it never regresses.
func Forward(from, to Phase) bool {
	return phaseRank(to) >= phaseRank(from)
}

func (p Phase) Terminal() bool {
	return p == PhaseSettled || p == PhaseCancelled
}

// Outcome of a settled round. Empty until Phase == Settled.
type Outcome string

const (
	OutcomeCreatorWon  Outcome = "creator_won"
	OutcomeOpponentWon Outcome = "opponent_won"
	OutcomeTied        Outcome = "tied"
)

// On-chain game state codes, as the contract encodes them.
const (
	ChainStateWaiting   uint8 = 0
	ChainStateJoined    uint8 = 1
	ChainStateDone      uint8 = 2
	ChainStateCancelled uint8 = 3
	ChainStateTied      uint8 = 4
)

// PhaseFromChainState maps a contract state code to the local phase. Tied is a
// settled phase on our side; the outcome field carries the tie.
func PhaseFromChainState(state uint8) (Phase, error) {
	switch state {
	case ChainStateWaiting:
		return PhaseOpen, nil
	case ChainStateJoined:
		return PhaseJoined, nil
	case ChainStateDone, ChainStateTied:
		return PhaseSettled, nil
	case ChainStateCancelled:
		return PhaseCancelled, nil
	}
	return "", fmt.Errorf("unknown chain game state %d", state)
}

// Round is the local mirror of one on-chain game.
type Round struct {
	ID       uint64
	Creator  string // lowercase hex address
	Opponent string // empty until joined
	Wager    *big.Int

	CreatorChoice  Choice // ChoiceNone until revealed
	OpponentChoice Choice // ChoiceNone until joined

	Phase   Phase
	Outcome Outcome // set iff Phase == Settled

	Winner           string   // empty for ties and non-settled rounds
	SettlementAmount *big.Int // set iff Phase == Settled
	AutoResolved     bool

	CreatedAt  time.Time
	ResolvedAt time.Time // zero until terminal
}

func (r *Round) Terminal() bool {
	return r.Phase.Terminal()
}

// Involves reports whether addr is one of the round's parties.
func (r *Round) Involves(addr string) bool {
	if addr == "" {
		return false
	}
	addr = strings.ToLower(addr)
	return strings.ToLower(r.Creator) == addr || strings.ToLower(r.Opponent) == addr
}

// Clone returns a deep copy safe to hand outside the tracker.
func (r *Round) Clone() *Round {
	cp := *r
	if r.Wager != nil {
		cp.Wager = new(big.Int).Set(r.Wager)
	}
	if r.SettlementAmount != nil {
		cp.SettlementAmount = new(big.Int).Set(r.SettlementAmount)
	}
	return &cp
}
