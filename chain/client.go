// chain/client.go
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"rps-arena/models"
)

// gameABI is the single supported contract interface (auto-reveal variant,
// ERC-20 wagers). Earlier reveal-by-creator deployments are not supported.
const gameABI = `[
	{"type":"function","name":"getActive","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256[]"}]},
	{"type":"function","name":"getFinished","stateMutability":"view","inputs":[{"name":"_limit","type":"uint256"}],"outputs":[{"name":"","type":"uint256[]"}]},
	{"type":"function","name":"getGame","stateMutability":"view","inputs":[{"name":"_id","type":"uint256"}],"outputs":[
		{"name":"game","type":"tuple","components":[
			{"name":"p1","type":"address"},
			{"name":"p2","type":"address"},
			{"name":"bet","type":"uint256"},
			{"name":"p1CommitHash","type":"bytes32"},
			{"name":"p2Choice","type":"uint8"},
			{"name":"state","type":"uint8"},
			{"name":"created","type":"uint256"},
			{"name":"joinedAt","type":"uint256"},
			{"name":"winner","type":"address"},
			{"name":"p1Choice","type":"uint8"},
			{"name":"autoResolved","type":"bool"}
		]},
		{"name":"deadline","type":"uint256"}
	]},
	{"type":"function","name":"getStats","stateMutability":"view","inputs":[{"name":"_player","type":"address"}],"outputs":[
		{"name":"stats","type":"tuple","components":[
			{"name":"played","type":"uint256"},
			{"name":"won","type":"uint256"},
			{"name":"bet","type":"uint256"},
			{"name":"winnings","type":"uint256"},
			{"name":"ties","type":"uint256"}
		]}
	]},
	{"type":"function","name":"hash","stateMutability":"pure","inputs":[{"name":"_choice","type":"uint8"},{"name":"_nonce","type":"uint256"},{"name":"_player","type":"address"}],"outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"createGame","stateMutability":"nonpayable","inputs":[{"name":"_bet","type":"uint256"},{"name":"_commitHash","type":"bytes32"}],"outputs":[]},
	{"type":"function","name":"joinGame","stateMutability":"nonpayable","inputs":[{"name":"_id","type":"uint256"},{"name":"_choice","type":"uint8"}],"outputs":[]},
	{"type":"function","name":"cancel","stateMutability":"nonpayable","inputs":[{"name":"_id","type":"uint256"}],"outputs":[]},
	{"type":"event","name":"GameCreated","anonymous":false,"inputs":[{"indexed":true,"name":"id","type":"uint256"},{"indexed":true,"name":"p1","type":"address"},{"indexed":false,"name":"bet","type":"uint256"}]},
	{"type":"event","name":"PlayerJoined","anonymous":false,"inputs":[{"indexed":true,"name":"id","type":"uint256"},{"indexed":true,"name":"p2","type":"address"}]},
	{"type":"event","name":"GameAutoResolved","anonymous":false,"inputs":[{"indexed":true,"name":"id","type":"uint256"},{"indexed":true,"name":"winner","type":"address"},{"indexed":false,"name":"winnings","type":"uint256"}]},
	{"type":"event","name":"GameTied","anonymous":false,"inputs":[{"indexed":true,"name":"id","type":"uint256"},{"indexed":false,"name":"refundAmount","type":"uint256"}]},
	{"type":"event","name":"GameCancelled","anonymous":false,"inputs":[{"indexed":true,"name":"id","type":"uint256"}]},
	{"type":"event","name":"ChoiceRevealed","anonymous":false,"inputs":[{"indexed":true,"name":"id","type":"uint256"},{"indexed":true,"name":"p1","type":"address"},{"indexed":false,"name":"choice","type":"uint8"}]}
]`

const erc20ABI = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

type Config struct {
	RPCURL          string
	WSRPCURL        string // optional — event subscription disabled when empty
	ContractAddress string
	TokenAddress    string
	ChainID         int64
	OperatorKey     string // hex private key, optional — read-only mode when empty
}

// Client talks to the deployed game + token contracts. It implements
// RoundReader, RoundSubmitter, TokenClient and EventSource.
type Client struct {
	eth *ethclient.Client
	ws  *ethclient.Client // nil without WSRPCURL

	gameAddr  common.Address
	tokenAddr common.Address
	game      *bind.BoundContract
	token     *bind.BoundContract
	parsed    abi.ABI

	chainID  *big.Int
	key      *ecdsa.PrivateKey // nil in read-only mode
	operator common.Address
}

func Dial(cfg Config) (*Client, error) {
	eth, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC node %s: %w", cfg.RPCURL, err)
	}

	var ws *ethclient.Client
	if cfg.WSRPCURL != "" {
		ws, err = ethclient.Dial(cfg.WSRPCURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to WS RPC node %s: %w", cfg.WSRPCURL, err)
		}
	}

	parsed, err := abi.JSON(strings.NewReader(gameABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse game ABI: %w", err)
	}
	erc20, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}

	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.ContractAddress)
	}
	if !common.IsHexAddress(cfg.TokenAddress) {
		return nil, fmt.Errorf("invalid token address %q", cfg.TokenAddress)
	}

	c := &Client{
		eth:       eth,
		ws:        ws,
		gameAddr:  common.HexToAddress(cfg.ContractAddress),
		tokenAddr: common.HexToAddress(cfg.TokenAddress),
		parsed:    parsed,
		chainID:   big.NewInt(cfg.ChainID),
	}
	c.game = bind.NewBoundContract(c.gameAddr, parsed, eth, eth, eth)
	c.token = bind.NewBoundContract(c.tokenAddr, erc20, eth, eth, eth)

	if cfg.OperatorKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.OperatorKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid operator private key: %w", err)
		}
		c.key = key
		c.operator = crypto.PubkeyToAddress(key.PublicKey)
	}

	return c, nil
}

// Operator returns the signing address, or "" in read-only mode.
func (c *Client) Operator() string {
	if c.key == nil {
		return ""
	}
	return strings.ToLower(c.operator.Hex())
}

// rawGame matches the getGame tuple layout.
type rawGame struct {
	P1           common.Address
	P2           common.Address
	Bet          *big.Int
	P1CommitHash [32]byte
	P2Choice     uint8
	State        uint8
	Created      *big.Int
	JoinedAt     *big.Int
	Winner       common.Address
	P1Choice     uint8
	AutoResolved bool
}

type rawStats struct {
	Played   *big.Int
	Won      *big.Int
	Bet      *big.Int
	Winnings *big.Int
	Ties     *big.Int
}

func (c *Client) ListActiveRoundIDs(ctx context.Context) ([]uint64, error) {
	var out []interface{}
	if err := c.game.Call(&bind.CallOpts{Context: ctx}, &out, "getActive"); err != nil {
		return nil, fmt.Errorf("getActive call failed: %w", err)
	}
	return toIDs(out[0]), nil
}

func (c *Client) ListRecentFinishedRoundIDs(ctx context.Context, limit uint64) ([]uint64, error) {
	var out []interface{}
	if err := c.game.Call(&bind.CallOpts{Context: ctx}, &out, "getFinished", new(big.Int).SetUint64(limit)); err != nil {
		return nil, fmt.Errorf("getFinished call failed: %w", err)
	}
	return toIDs(out[0]), nil
}

func toIDs(v interface{}) []uint64 {
	raw := *abi.ConvertType(v, new([]*big.Int)).(*[]*big.Int)
	ids := make([]uint64, 0, len(raw))
	for _, b := range raw {
		ids = append(ids, b.Uint64())
	}
	return ids
}

func (c *Client) GetRoundDetail(ctx context.Context, id uint64) (*models.Round, error) {
	var out []interface{}
	if err := c.game.Call(&bind.CallOpts{Context: ctx}, &out, "getGame", new(big.Int).SetUint64(id)); err != nil {
		return nil, fmt.Errorf("getGame(%d) call failed: %w", id, err)
	}
	g := *abi.ConvertType(out[0], new(rawGame)).(*rawGame)

	phase, err := models.PhaseFromChainState(g.State)
	if err != nil {
		return nil, fmt.Errorf("getGame(%d): %w", id, err)
	}

	r := &models.Round{
		ID:             id,
		Creator:        strings.ToLower(g.P1.Hex()),
		Wager:          g.Bet,
		CreatorChoice:  models.Choice(g.P1Choice),
		OpponentChoice: models.Choice(g.P2Choice),
		Phase:          phase,
		AutoResolved:   g.AutoResolved,
	}
	if g.P2 != (common.Address{}) {
		r.Opponent = strings.ToLower(g.P2.Hex())
	}
	if g.Created != nil && g.Created.Sign() > 0 {
		r.CreatedAt = time.Unix(g.Created.Int64(), 0).UTC()
	}

	switch g.State {
	case models.ChainStateDone:
		if g.Winner != (common.Address{}) {
			r.Winner = strings.ToLower(g.Winner.Hex())
			if r.Winner == r.Creator {
				r.Outcome = models.OutcomeCreatorWon
			} else {
				r.Outcome = models.OutcomeOpponentWon
			}
		}
		// Winner payout is only carried by the resolution event; the view
		// leaves SettlementAmount nil and the tracker keeps the event value.
	case models.ChainStateTied:
		r.Outcome = models.OutcomeTied
		r.SettlementAmount = new(big.Int).Set(g.Bet) // full refund, no fee
	}

	return r, nil
}

func (c *Client) GetPlayerStats(ctx context.Context, player string) (*models.PlayerStats, error) {
	if !common.IsHexAddress(player) {
		return nil, fmt.Errorf("invalid player address %q", player)
	}
	var out []interface{}
	if err := c.game.Call(&bind.CallOpts{Context: ctx}, &out, "getStats", common.HexToAddress(player)); err != nil {
		return nil, fmt.Errorf("getStats call failed: %w", err)
	}
	s := *abi.ConvertType(out[0], new(rawStats)).(*rawStats)
	return &models.PlayerStats{
		Played:       s.Played.Uint64(),
		Won:          s.Won.Uint64(),
		Tied:         s.Ties.Uint64(),
		TotalWagered: s.Bet,
		TotalWon:     s.Winnings,
	}, nil
}

func (c *Client) CommitHash(ctx context.Context, choice models.Choice, nonce *big.Int, player string) ([32]byte, error) {
	var out []interface{}
	if err := c.game.Call(&bind.CallOpts{Context: ctx}, &out, "hash", uint8(choice), nonce, common.HexToAddress(player)); err != nil {
		return [32]byte{}, fmt.Errorf("hash call failed: %w", err)
	}
	return *abi.ConvertType(out[0], new([32]byte)).(*[32]byte), nil
}

func (c *Client) transactor(ctx context.Context) (*bind.TransactOpts, error) {
	if c.key == nil {
		return nil, fmt.Errorf("no operator key configured — client is read-only")
	}
	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to build transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

func (c *Client) waitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return nil, fmt.Errorf("waiting for tx %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("tx %s reverted on-chain", tx.Hash().Hex())
	}
	return receipt, nil
}

func (c *Client) SubmitCreate(ctx context.Context, wager *big.Int, commitment [32]byte) (uint64, error) {
	opts, err := c.transactor(ctx)
	if err != nil {
		return 0, err
	}
	tx, err := c.game.Transact(opts, "createGame", wager, commitment)
	if err != nil {
		return 0, fmt.Errorf("createGame submission failed: %w", err)
	}
	receipt, err := c.waitMined(ctx, tx)
	if err != nil {
		return 0, err
	}
	// The contract assigns the id; read it back from the GameCreated log.
	for _, l := range receipt.Logs {
		ev, err := c.decodeLog(*l)
		if err != nil {
			continue
		}
		if created, ok := ev.(RoundCreated); ok {
			return created.ID, nil
		}
	}
	return 0, fmt.Errorf("tx %s confirmed but GameCreated log missing", tx.Hash().Hex())
}

func (c *Client) SubmitJoin(ctx context.Context, id uint64, choice models.Choice) error {
	opts, err := c.transactor(ctx)
	if err != nil {
		return err
	}
	tx, err := c.game.Transact(opts, "joinGame", new(big.Int).SetUint64(id), uint8(choice))
	if err != nil {
		return fmt.Errorf("joinGame(%d) submission failed: %w", id, err)
	}
	_, err = c.waitMined(ctx, tx)
	return err
}

func (c *Client) SubmitCancel(ctx context.Context, id uint64) error {
	opts, err := c.transactor(ctx)
	if err != nil {
		return err
	}
	tx, err := c.game.Transact(opts, "cancel", new(big.Int).SetUint64(id))
	if err != nil {
		return fmt.Errorf("cancel(%d) submission failed: %w", id, err)
	}
	_, err = c.waitMined(ctx, tx)
	return err
}

func (c *Client) BalanceOf(ctx context.Context, owner string) (*big.Int, error) {
	var out []interface{}
	if err := c.token.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", common.HexToAddress(owner)); err != nil {
		return nil, fmt.Errorf("balanceOf call failed: %w", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (c *Client) Allowance(ctx context.Context, owner string) (*big.Int, error) {
	var out []interface{}
	if err := c.token.Call(&bind.CallOpts{Context: ctx}, &out, "allowance", common.HexToAddress(owner), c.gameAddr); err != nil {
		return nil, fmt.Errorf("allowance call failed: %w", err)
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Approve authorizes the game contract to spend amount of the wager token.
func (c *Client) Approve(ctx context.Context, amount *big.Int) error {
	opts, err := c.transactor(ctx)
	if err != nil {
		return err
	}
	tx, err := c.token.Transact(opts, "approve", c.gameAddr, amount)
	if err != nil {
		return fmt.Errorf("approve submission failed: %w", err)
	}
	_, err = c.waitMined(ctx, tx)
	return err
}
