// chain/events.go
package chain

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"rps-arena/models"
)

// Watch subscribes to the game contract's logs and forwards them as decoded
// events, in arrival order. Malformed or unknown logs are dropped with a log
// line — they never reach the consumer. The returned channel closes when ctx
// is cancelled or the subscription dies; the caller decides whether to
// re-attach.
func (c *Client) Watch(ctx context.Context) (<-chan Event, error) {
	if c.ws == nil {
		return nil, fmt.Errorf("no WS RPC configured — event subscription unavailable")
	}

	query := ethereum.FilterQuery{
		Addresses: []common.Address{c.gameAddr},
	}
	logs := make(chan types.Log, 64)
	sub, err := c.ws.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to contract logs: %w", err)
	}

	out := make(chan Event, 64)
	go func() {
		defer close(out)
		defer sub.Unsubscribe()
		log.Printf("[CHAIN] 📡 Listening for game events on %s", c.gameAddr.Hex())
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-sub.Err():
				log.Printf("[CHAIN] ❌ Event subscription error: %v", err)
				return
			case vLog := <-logs:
				ev, err := c.decodeLog(vLog)
				if err != nil {
					log.Printf("[CHAIN] ⚠️ Dropping undecodable log (tx=%s): %v", vLog.TxHash.Hex(), err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// decodeLog validates one raw log at the boundary and turns it into a tagged
// event variant.
func (c *Client) decodeLog(l types.Log) (Event, error) {
	if len(l.Topics) == 0 {
		return nil, fmt.Errorf("log without topics")
	}

	switch l.Topics[0] {
	case c.parsed.Events["GameCreated"].ID:
		if len(l.Topics) != 3 {
			return nil, fmt.Errorf("GameCreated: want 3 topics, got %d", len(l.Topics))
		}
		vals, err := c.parsed.Unpack("GameCreated", l.Data)
		if err != nil {
			return nil, fmt.Errorf("GameCreated data: %w", err)
		}
		return RoundCreated{
			ID:      topicUint64(l.Topics[1]),
			Creator: topicAddress(l.Topics[2]),
			Wager:   vals[0].(*big.Int),
		}, nil

	case c.parsed.Events["PlayerJoined"].ID:
		if len(l.Topics) != 3 {
			return nil, fmt.Errorf("PlayerJoined: want 3 topics, got %d", len(l.Topics))
		}
		return RoundJoined{
			ID:       topicUint64(l.Topics[1]),
			Opponent: topicAddress(l.Topics[2]),
		}, nil

	case c.parsed.Events["GameAutoResolved"].ID:
		if len(l.Topics) != 3 {
			return nil, fmt.Errorf("GameAutoResolved: want 3 topics, got %d", len(l.Topics))
		}
		vals, err := c.parsed.Unpack("GameAutoResolved", l.Data)
		if err != nil {
			return nil, fmt.Errorf("GameAutoResolved data: %w", err)
		}
		return RoundResolved{
			ID:     topicUint64(l.Topics[1]),
			Winner: topicAddress(l.Topics[2]),
			Payout: vals[0].(*big.Int),
		}, nil

	case c.parsed.Events["GameTied"].ID:
		if len(l.Topics) != 2 {
			return nil, fmt.Errorf("GameTied: want 2 topics, got %d", len(l.Topics))
		}
		vals, err := c.parsed.Unpack("GameTied", l.Data)
		if err != nil {
			return nil, fmt.Errorf("GameTied data: %w", err)
		}
		return RoundResolved{
			ID:     topicUint64(l.Topics[1]),
			Payout: vals[0].(*big.Int),
			IsTie:  true,
		}, nil

	case c.parsed.Events["GameCancelled"].ID:
		if len(l.Topics) != 2 {
			return nil, fmt.Errorf("GameCancelled: want 2 topics, got %d", len(l.Topics))
		}
		return RoundCancelled{ID: topicUint64(l.Topics[1])}, nil

	case c.parsed.Events["ChoiceRevealed"].ID:
		if len(l.Topics) != 3 {
			return nil, fmt.Errorf("ChoiceRevealed: want 3 topics, got %d", len(l.Topics))
		}
		vals, err := c.parsed.Unpack("ChoiceRevealed", l.Data)
		if err != nil {
			return nil, fmt.Errorf("ChoiceRevealed data: %w", err)
		}
		choice := models.Choice(vals[0].(uint8))
		if !choice.Valid() {
			return nil, fmt.Errorf("ChoiceRevealed: invalid choice %d", uint8(choice))
		}
		return ChoiceRevealed{
			ID:     topicUint64(l.Topics[1]),
			Player: topicAddress(l.Topics[2]),
			Choice: choice,
		}, nil
	}

	return nil, fmt.Errorf("unknown event topic %s", l.Topics[0].Hex())
}

func topicUint64(t common.Hash) uint64 {
	return new(big.Int).SetBytes(t.Bytes()).Uint64()
}

func topicAddress(t common.Hash) string {
	return strings.ToLower(common.BytesToAddress(t.Bytes()).Hex())
}
