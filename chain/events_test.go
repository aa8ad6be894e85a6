package chain

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"rps-arena/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(gameABI))
	if err != nil {
		t.Fatalf("failed to parse ABI: %v", err)
	}
	return &Client{parsed: parsed}
}

func packData(t *testing.T, c *Client, event string, args ...interface{}) []byte {
	t.Helper()
	data, err := c.parsed.Events[event].Inputs.NonIndexed().Pack(args...)
	if err != nil {
		t.Fatalf("failed to pack %s data: %v", event, err)
	}
	return data
}

func TestDecodeGameCreated(t *testing.T) {
	c := newTestClient(t)
	creator := common.HexToAddress("0x1111111111111111111111111111111111111111")
	wager := big.NewInt(5000)

	ev, err := c.decodeLog(types.Log{
		Topics: []common.Hash{
			c.parsed.Events["GameCreated"].ID,
			common.BigToHash(big.NewInt(42)),
			creator.Hash(),
		},
		Data: packData(t, c, "GameCreated", wager),
	})
	if err != nil {
		t.Fatalf("decodeLog: %v", err)
	}

	created, ok := ev.(RoundCreated)
	if !ok {
		t.Fatalf("expected RoundCreated, got %T", ev)
	}
	if created.ID != 42 {
		t.Errorf("ID = %d, want 42", created.ID)
	}
	if created.Creator != strings.ToLower(creator.Hex()) {
		t.Errorf("Creator = %s", created.Creator)
	}
	if created.Wager.Cmp(wager) != 0 {
		t.Errorf("Wager = %s, want %s", created.Wager, wager)
	}
}

func TestDecodePlayerJoined(t *testing.T) {
	c := newTestClient(t)
	opponent := common.HexToAddress("0x2222222222222222222222222222222222222222")

	ev, err := c.decodeLog(types.Log{
		Topics: []common.Hash{
			c.parsed.Events["PlayerJoined"].ID,
			common.BigToHash(big.NewInt(7)),
			opponent.Hash(),
		},
	})
	if err != nil {
		t.Fatalf("decodeLog: %v", err)
	}

	joined, ok := ev.(RoundJoined)
	if !ok {
		t.Fatalf("expected RoundJoined, got %T", ev)
	}
	if joined.ID != 7 || joined.Opponent != strings.ToLower(opponent.Hex()) {
		t.Errorf("unexpected event: %+v", joined)
	}
}

func TestDecodeGameAutoResolved(t *testing.T) {
	c := newTestClient(t)
	winner := common.HexToAddress("0x3333333333333333333333333333333333333333")
	payout := big.NewInt(9800)

	ev, err := c.decodeLog(types.Log{
		Topics: []common.Hash{
			c.parsed.Events["GameAutoResolved"].ID,
			common.BigToHash(big.NewInt(9)),
			winner.Hash(),
		},
		Data: packData(t, c, "GameAutoResolved", payout),
	})
	if err != nil {
		t.Fatalf("decodeLog: %v", err)
	}

	resolved, ok := ev.(RoundResolved)
	if !ok {
		t.Fatalf("expected RoundResolved, got %T", ev)
	}
	if resolved.IsTie {
		t.Error("auto-resolve must not be a tie")
	}
	if resolved.Winner != strings.ToLower(winner.Hex()) || resolved.Payout.Cmp(payout) != 0 {
		t.Errorf("unexpected event: %+v", resolved)
	}
}

func TestDecodeGameTied(t *testing.T) {
	c := newTestClient(t)
	refund := big.NewInt(5000)

	ev, err := c.decodeLog(types.Log{
		Topics: []common.Hash{
			c.parsed.Events["GameTied"].ID,
			common.BigToHash(big.NewInt(11)),
		},
		Data: packData(t, c, "GameTied", refund),
	})
	if err != nil {
		t.Fatalf("decodeLog: %v", err)
	}

	resolved, ok := ev.(RoundResolved)
	if !ok {
		t.Fatalf("expected RoundResolved, got %T", ev)
	}
	if !resolved.IsTie || resolved.Winner != "" {
		t.Errorf("tie must carry no winner: %+v", resolved)
	}
	if resolved.Payout.Cmp(refund) != 0 {
		t.Errorf("Payout = %s, want %s", resolved.Payout, refund)
	}
}

func TestDecodeGameCancelled(t *testing.T) {
	c := newTestClient(t)

	ev, err := c.decodeLog(types.Log{
		Topics: []common.Hash{
			c.parsed.Events["GameCancelled"].ID,
			common.BigToHash(big.NewInt(13)),
		},
	})
	if err != nil {
		t.Fatalf("decodeLog: %v", err)
	}
	if cancelled, ok := ev.(RoundCancelled); !ok || cancelled.ID != 13 {
		t.Errorf("unexpected event: %#v", ev)
	}
}

func TestDecodeChoiceRevealed(t *testing.T) {
	c := newTestClient(t)
	player := common.HexToAddress("0x4444444444444444444444444444444444444444")

	ev, err := c.decodeLog(types.Log{
		Topics: []common.Hash{
			c.parsed.Events["ChoiceRevealed"].ID,
			common.BigToHash(big.NewInt(5)),
			player.Hash(),
		},
		Data: packData(t, c, "ChoiceRevealed", uint8(models.ChoicePaper)),
	})
	if err != nil {
		t.Fatalf("decodeLog: %v", err)
	}

	revealed, ok := ev.(ChoiceRevealed)
	if !ok {
		t.Fatalf("expected ChoiceRevealed, got %T", ev)
	}
	if revealed.Choice != models.ChoicePaper {
		t.Errorf("Choice = %s, want paper", revealed.Choice)
	}
}

func TestDecodeRejectsMalformedLogs(t *testing.T) {
	c := newTestClient(t)

	if _, err := c.decodeLog(types.Log{}); err == nil {
		t.Error("expected error for log without topics")
	}

	// Unknown event signature.
	if _, err := c.decodeLog(types.Log{
		Topics: []common.Hash{common.HexToHash("0xdeadbeef")},
	}); err == nil {
		t.Error("expected error for unknown topic")
	}

	// Right signature, wrong topic count.
	if _, err := c.decodeLog(types.Log{
		Topics: []common.Hash{c.parsed.Events["GameCreated"].ID},
	}); err == nil {
		t.Error("expected error for missing indexed topics")
	}

	// Out-of-range choice value.
	player := common.HexToAddress("0x4444444444444444444444444444444444444444")
	if _, err := c.decodeLog(types.Log{
		Topics: []common.Hash{
			c.parsed.Events["ChoiceRevealed"].ID,
			common.BigToHash(big.NewInt(5)),
			player.Hash(),
		},
		Data: packData(t, c, "ChoiceRevealed", uint8(9)),
	}); err == nil {
		t.Error("expected error for invalid revealed choice")
	}
}
