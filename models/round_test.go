package models

import (
	"math/big"
	"testing"
)

func TestCanTransitionEdges(t *testing.T) {
	cases := []struct {
		from, to Phase
		want     bool
	}{
		{PhaseOpen, PhaseJoined, true},
		{PhaseOpen, PhaseCancelled, true},
		{PhaseJoined, PhaseSettled, true},
		{PhaseJoined, PhaseCancelled, true},

		{PhaseOpen, PhaseSettled, false},
		{PhaseOpen, PhaseOpen, false},
		{PhaseJoined, PhaseOpen, false},
		{PhaseJoined, PhaseJoined, false},
		{PhaseSettled, PhaseOpen, false},
		{PhaseSettled, PhaseJoined, false},
		{PhaseSettled, PhaseCancelled, false},
		{PhaseCancelled, PhaseJoined, false},
		{PhaseCancelled, PhaseSettled, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestForwardNeverRegresses(t *testing.T) {
	order := []Phase{PhaseOpen, PhaseJoined, PhaseSettled}
	for i, from := range order {
		for j, to := range order {
			want := j >= i
			if got := Forward(from, to); got != want {
				t.Errorf("Forward(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}

	// Terminal phases share a rank: a settled fetch never "overwrites" a
	// cancellation or vice versa via regression, but same-rank passes.
	if !Forward(PhaseSettled, PhaseCancelled) {
		t.Error("terminal phases should be same-rank for Forward")
	}
	if Forward(PhaseCancelled, PhaseJoined) {
		t.Error("terminal phase must not move back to joined")
	}
}

func TestPhaseFromChainState(t *testing.T) {
	cases := []struct {
		state uint8
		want  Phase
	}{
		{ChainStateWaiting, PhaseOpen},
		{ChainStateJoined, PhaseJoined},
		{ChainStateDone, PhaseSettled},
		{ChainStateTied, PhaseSettled},
		{ChainStateCancelled, PhaseCancelled},
	}
	for _, tc := range cases {
		got, err := PhaseFromChainState(tc.state)
		if err != nil {
			t.Fatalf("PhaseFromChainState(%d): %v", tc.state, err)
		}
		if got != tc.want {
			t.Errorf("PhaseFromChainState(%d) = %s, want %s", tc.state, got, tc.want)
		}
	}

	if _, err := PhaseFromChainState(99); err == nil {
		t.Error("expected error for unknown chain state")
	}
}

func TestParseChoice(t *testing.T) {
	for _, s := range []string{"rock", "Rock", " ROCK ", "0"} {
		c, err := ParseChoice(s)
		if err != nil || c != ChoiceRock {
			t.Errorf("ParseChoice(%q) = %v, %v", s, c, err)
		}
	}
	if _, err := ParseChoice("lizard"); err == nil {
		t.Error("expected error for unknown choice")
	}
	if ChoiceNone.Valid() {
		t.Error("ChoiceNone must not be a valid move")
	}
}

func TestTokensToWei(t *testing.T) {
	want, _ := new(big.Int).SetString("5000000000000000000000", 10)
	if got := TokensToWei(5000); got.Cmp(want) != 0 {
		t.Errorf("TokensToWei(5000) = %s, want %s", got, want)
	}
}

func TestRoundInvolves(t *testing.T) {
	r := &Round{Creator: "0xaaa", Opponent: "0xBBB"}
	if !r.Involves("0xAAA") || !r.Involves("0xbbb") {
		t.Error("Involves must be case-insensitive for both parties")
	}
	if r.Involves("0xccc") || r.Involves("") {
		t.Error("Involves must reject outsiders and the empty address")
	}
}

func TestRoundCloneIsDeep(t *testing.T) {
	r := &Round{ID: 1, Wager: big.NewInt(100), SettlementAmount: big.NewInt(200)}
	cp := r.Clone()
	cp.Wager.SetInt64(999)
	cp.SettlementAmount.SetInt64(999)
	if r.Wager.Int64() != 100 || r.SettlementAmount.Int64() != 200 {
		t.Error("Clone must not share big.Int backing with the original")
	}
}

func TestPlayerStatsDerived(t *testing.T) {
	s := &PlayerStats{
		Played:       8,
		Won:          4,
		Tied:         1,
		TotalWagered: big.NewInt(1000),
		TotalWon:     big.NewInt(1600),
	}
	if got := s.WinRate(); got != 50 {
		t.Errorf("WinRate = %v, want 50", got)
	}
	if got := s.NetProfit(); got.Int64() != 600 {
		t.Errorf("NetProfit = %s, want 600", got)
	}

	empty := &PlayerStats{}
	if empty.WinRate() != 0 {
		t.Error("WinRate on zero games must be 0")
	}
	if empty.NetProfit().Sign() != 0 {
		t.Error("NetProfit with nil totals must be 0")
	}
}

func TestRecordFromRound(t *testing.T) {
	r := &Round{
		ID:               42,
		Creator:          "0xaaa",
		Opponent:         "0xbbb",
		Wager:            big.NewInt(5000),
		Phase:            PhaseSettled,
		Outcome:          OutcomeTied,
		SettlementAmount: big.NewInt(5000),
	}
	rec := RecordFromRound(r)
	if rec.RoundID != 42 || rec.Wager != "5000" || rec.SettlementAmount != "5000" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.Phase != string(PhaseSettled) || rec.Outcome != string(OutcomeTied) {
		t.Errorf("unexpected phase/outcome: %+v", rec)
	}
	if rec.ResolvedAt != nil {
		t.Error("zero ResolvedAt must map to nil")
	}
}
