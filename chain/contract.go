// chain/contract.go
package chain

import (
	"context"
	"math/big"

	"rps-arena/models"
)

// The tracker consumes the contract through these interfaces so tests can run
// against fakes. chain.Client implements all of them.

// RoundReader is the read-only view surface of the game contract.
type RoundReader interface {
	ListActiveRoundIDs(ctx context.Context) ([]uint64, error)
	GetRoundDetail(ctx context.Context, id uint64) (*models.Round, error)
	ListRecentFinishedRoundIDs(ctx context.Context, limit uint64) ([]uint64, error)
	GetPlayerStats(ctx context.Context, player string) (*models.PlayerStats, error)
	// CommitHash asks the contract's pure hash(choice, nonce, player) so the
	// commitment is bit-identical to what the reveal path will verify.
	CommitHash(ctx context.Context, choice models.Choice, nonce *big.Int, player string) ([32]byte, error)
}

// RoundSubmitter sends signed game transactions and waits until they are
// mined. A call returning nil means submitted AND confirmed.
type RoundSubmitter interface {
	// SubmitCreate returns the round id assigned by the contract, read from
	// the GameCreated log of the confirmed receipt.
	SubmitCreate(ctx context.Context, wager *big.Int, commitment [32]byte) (uint64, error)
	SubmitJoin(ctx context.Context, id uint64, choice models.Choice) error
	SubmitCancel(ctx context.Context, id uint64) error
}

// TokenClient covers the ERC-20 pre-authorization gate.
type TokenClient interface {
	BalanceOf(ctx context.Context, owner string) (*big.Int, error)
	Allowance(ctx context.Context, owner string) (*big.Int, error)
	Approve(ctx context.Context, amount *big.Int) error
}

// EventSource delivers decoded contract events in arrival order. The channel
// is closed when ctx is cancelled or the underlying subscription dies.
type EventSource interface {
	Watch(ctx context.Context) (<-chan Event, error)
}

// Event is a tagged variant decoded from one contract log. Raw logs are
// validated at the decoding boundary; consumers only ever see these types.
type Event interface {
	RoundID() uint64
	Kind() string
}

type RoundCreated struct {
	ID      uint64
	Creator string
	Wager   *big.Int
}

func (e RoundCreated) RoundID() uint64 { return e.ID }
func (e RoundCreated) Kind() string    { return "created" }

type RoundJoined struct {
	ID       uint64
	Opponent string
}

func (e RoundJoined) RoundID() uint64 { return e.ID }
func (e RoundJoined) Kind() string    { return "joined" }

// RoundResolved covers both GameAutoResolved and GameTied: a tie is a
// resolution with no winner and the wager refunded in full.
type RoundResolved struct {
	ID     uint64
	Winner string // empty when IsTie
	Payout *big.Int
	IsTie  bool
}

func (e RoundResolved) RoundID() uint64 { return e.ID }
func (e RoundResolved) Kind() string    { return "resolved" }

type RoundCancelled struct {
	ID uint64
}

func (e RoundCancelled) RoundID() uint64 { return e.ID }
func (e RoundCancelled) Kind() string    { return "cancelled" }

// ChoiceRevealed fires when the creator's committed choice becomes public.
type ChoiceRevealed struct {
	ID     uint64
	Player string
	Choice models.Choice
}

func (e ChoiceRevealed) RoundID() uint64 { return e.ID }
func (e ChoiceRevealed) Kind() string    { return "revealed" }
