// services/tracker.go
package services

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"rps-arena/chain"
	"rps-arena/models"
	"rps-arena/utils"
)

const (
	// DefaultMinWagerTokens is the house floor, checked locally before any
	// network call.
	DefaultMinWagerTokens = 5000
	DefaultHistoryLimit   = 20
	// DefaultEventRefetchDelay: an event can be observed before the node's
	// queryable state reflects it; a short fixed delay before the reconciling
	// detail fetch is a simple mitigation, not a correctness guarantee.
	DefaultEventRefetchDelay = 1500 * time.Millisecond
)

type TrackerConfig struct {
	MinWager          *big.Int // in wei; defaults to 5000 whole tokens
	HistoryLimit      int
	EventRefetchDelay time.Duration
	Clock             clockwork.Clock
}

// Tracker keeps a local mirror of the on-chain round set consistent with the
// authoritative contract state: an initial bulk fetch, low-frequency polling
// (driven by workers.PollRounds), and event-driven incremental updates once a
// session is attached. The presentation layer only ever sees immutable
// snapshots; the cache is owned exclusively by the tracker.
type Tracker struct {
	reader    chain.RoundReader
	submitter chain.RoundSubmitter
	token     chain.TokenClient
	events    chain.EventSource // may be nil (poll-only mode)
	relay     *RelayClient      // may be nil
	reveals   *utils.RevealStore // may be nil

	cfg   TrackerConfig
	clock clockwork.Clock

	rootCtx    context.Context
	rootCancel context.CancelFunc

	mu         sync.RWMutex
	rounds     map[uint64]*models.Round // active (non-terminal) set
	history    []*models.Round          // terminal rounds, newest first, bounded
	pending    map[uint64]*models.PendingCommitment
	stats      *models.PlayerStats
	balance    *big.Int
	allowance  *big.Int
	session    string // lowercase player address, "" when detached
	sessionCtx context.Context
	sessionEnd context.CancelFunc
	generation uint64 // bumped on attach/detach; stale async work checks it
}

func NewTracker(reader chain.RoundReader, submitter chain.RoundSubmitter, token chain.TokenClient, events chain.EventSource, relay *RelayClient, reveals *utils.RevealStore, cfg TrackerConfig) *Tracker {
	if cfg.MinWager == nil {
		cfg.MinWager = models.TokensToWei(DefaultMinWagerTokens)
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if cfg.EventRefetchDelay <= 0 {
		cfg.EventRefetchDelay = DefaultEventRefetchDelay
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		reader:     reader,
		submitter:  submitter,
		token:      token,
		events:     events,
		relay:      relay,
		reveals:    reveals,
		cfg:        cfg,
		clock:      cfg.Clock,
		rootCtx:    ctx,
		rootCancel: cancel,
		rounds:     make(map[uint64]*models.Round),
		pending:    make(map[uint64]*models.PendingCommitment),
		sessionCtx: ctx,
	}
}

// SessionAddress returns the attached player address, or "" in public mode.
func (t *Tracker) SessionAddress() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.session
}

// Close tears the tracker down; in-flight fetches that complete afterwards
// are discarded by the generation check.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.generation++
	if t.sessionEnd != nil {
		t.sessionEnd()
		t.sessionEnd = nil
	}
	t.session = ""
	t.mu.Unlock()
	t.rootCancel()
}

// --- bulk fetch / polling ---------------------------------------------------

// Bootstrap populates the cache from the read-only path: the full active list
// plus the recent-finished window. A single round's detail fetch failing is
// logged and skipped, never aborts the batch. No session required.
func (t *Tracker) Bootstrap(ctx context.Context) error {
	ids, err := t.reader.ListActiveRoundIDs(ctx)
	if err != nil {
		return &models.SyncError{Op: "list-active", Err: err}
	}

	// Also reconcile cached non-terminal rounds the contract no longer lists
	// as active (settled or cancelled while we were not watching).
	listed := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		listed[id] = true
	}
	t.mu.RLock()
	for id := range t.rounds {
		if !listed[id] {
			ids = append(ids, id)
		}
	}
	gen := t.generation
	t.mu.RUnlock()

	for _, id := range ids {
		t.fetchAndApply(ctx, gen, id)
	}

	finished, err := t.reader.ListRecentFinishedRoundIDs(ctx, uint64(t.cfg.HistoryLimit))
	if err != nil {
		// History is cosmetic; the active set above is what matters.
		log.Printf("[TRACKER] ⚠️ %v", &models.SyncError{Op: "list-finished", Err: err})
		return nil
	}
	for _, id := range finished {
		t.fetchAndApply(ctx, gen, id)
	}
	return nil
}

// RefreshSession re-fetches rounds plus the attached identity's balances,
// allowance and stats. Per-item failures stay internal (SyncError semantics).
func (t *Tracker) RefreshSession(ctx context.Context) error {
	if err := t.Bootstrap(ctx); err != nil {
		return err
	}

	t.mu.RLock()
	player := t.session
	gen := t.generation
	t.mu.RUnlock()
	if player == "" {
		return nil
	}

	stats, err := t.reader.GetPlayerStats(ctx, player)
	if err != nil {
		log.Printf("[TRACKER] ⚠️ %v", &models.SyncError{Op: "stats", Err: err})
	}
	balance, err := t.token.BalanceOf(ctx, player)
	if err != nil {
		log.Printf("[TRACKER] ⚠️ %v", &models.SyncError{Op: "balance", Err: err})
	}
	allowance, err := t.token.Allowance(ctx, player)
	if err != nil {
		log.Printf("[TRACKER] ⚠️ %v", &models.SyncError{Op: "allowance", Err: err})
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.generation != gen {
		return nil // session changed while we were fetching
	}
	if stats != nil {
		t.stats = stats
	}
	if balance != nil {
		t.balance = balance
	}
	if allowance != nil {
		t.allowance = allowance
	}
	return nil
}

func (t *Tracker) fetchAndApply(ctx context.Context, gen uint64, id uint64) {
	detail, err := t.reader.GetRoundDetail(ctx, id)
	if err != nil {
		log.Printf("[TRACKER] ⚠️ %v", &models.SyncError{Op: fmt.Sprintf("detail(%d)", id), Err: err})
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.generation != gen {
		return // torn down while the fetch was in flight; discard
	}
	t.applyDetailLocked(detail)
}

// --- session lifecycle ------------------------------------------------------

// AttachSession switches the tracker into authenticated mode for player.
// Idempotent: the same address is a no-op; a different address tears down the
// previous subscription first, so exactly one subscription is ever live.
func (t *Tracker) AttachSession(ctx context.Context, player string) error {
	player = strings.ToLower(strings.TrimSpace(player))
	if player == "" {
		return models.NewValidationError("player address required")
	}

	t.mu.Lock()
	if t.session == player {
		t.mu.Unlock()
		return nil
	}
	if t.sessionEnd != nil {
		t.sessionEnd()
		t.sessionEnd = nil
	}
	t.generation++
	gen := t.generation
	t.session = player
	t.stats = nil
	t.balance = nil
	t.allowance = nil
	sctx, cancel := context.WithCancel(t.rootCtx)
	t.sessionCtx = sctx
	t.sessionEnd = cancel
	t.mu.Unlock()

	log.Printf("[TRACKER] 👤 Session attached: %s", player)

	if t.events != nil {
		ch, err := t.events.Watch(sctx)
		if err != nil {
			// Poll-only fallback; the sync worker keeps us converging.
			log.Printf("[TRACKER] ⚠️ Event subscription unavailable, staying on polling: %v", err)
		} else {
			go t.dispatch(sctx, gen, ch)
		}
	}

	go t.flushStoredReveals(sctx)

	return t.RefreshSession(ctx)
}

// DetachSession drops back to the public read-only path.
func (t *Tracker) DetachSession() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == "" {
		return
	}
	log.Printf("[TRACKER] 👋 Session detached: %s", t.session)
	if t.sessionEnd != nil {
		t.sessionEnd()
		t.sessionEnd = nil
	}
	t.generation++
	t.session = ""
	t.sessionCtx = t.rootCtx
	t.stats = nil
	t.balance = nil
	t.allowance = nil
}

// dispatch drains the event channel in arrival order. A single consumer per
// subscription preserves the per-round ordering guarantee.
func (t *Tracker) dispatch(ctx context.Context, gen uint64, ch <-chan chain.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			t.handleEvent(gen, ev)
		}
	}
}

// flushStoredReveals retries disk-stored reveal payloads against the relay.
func (t *Tracker) flushStoredReveals(ctx context.Context) {
	if t.relay == nil || t.reveals == nil {
		return
	}
	stored, err := t.reveals.List()
	if err != nil {
		log.Printf("[TRACKER] ⚠️ Failed to list stored reveals: %v", err)
		return
	}
	for _, pc := range stored {
		if err := t.relay.StoreReveal(ctx, pc); err != nil {
			log.Printf("[TRACKER] ⚠️ Re-relay of round %d reveal failed, keeping on disk: %v", pc.RoundID, err)
			continue
		}
		_ = t.reveals.Delete(pc.RoundID)
	}
}

// --- events -----------------------------------------------------------------

// OnEvent applies one decoded chain event against the current cache.
func (t *Tracker) OnEvent(ev chain.Event) {
	t.mu.RLock()
	gen := t.generation
	t.mu.RUnlock()
	t.handleEvent(gen, ev)
}

func (t *Tracker) handleEvent(gen uint64, ev chain.Event) {
	t.mu.Lock()

	if t.generation != gen {
		t.mu.Unlock()
		return
	}

	id := ev.RoundID()
	r := t.rounds[id]
	duplicate := false

	switch e := ev.(type) {
	case chain.RoundCreated:
		if r != nil || t.historyByID(id) != nil {
			duplicate = true
			break
		}
		t.rounds[id] = &models.Round{
			ID:             id,
			Creator:        strings.ToLower(e.Creator),
			Wager:          e.Wager,
			CreatorChoice:  models.ChoiceNone,
			OpponentChoice: models.ChoiceNone,
			Phase:          models.PhaseOpen,
			CreatedAt:      t.clock.Now().UTC(),
		}

	case chain.RoundJoined:
		if r == nil {
			break // unknown round: the refetch below reconciles
		}
		if r.Phase == models.PhaseJoined && strings.EqualFold(r.Opponent, e.Opponent) {
			duplicate = true
			break
		}
		if !models.CanTransition(r.Phase, models.PhaseJoined) {
			log.Printf("[TRACKER] ⚠️ Dropping out-of-order joined event for round %d (phase=%s)", id, r.Phase)
			duplicate = true
			break
		}
		r.Phase = models.PhaseJoined
		r.Opponent = strings.ToLower(e.Opponent)

	case chain.RoundResolved:
		if r == nil {
			if t.historyByID(id) != nil {
				duplicate = true // already settled — idempotent redelivery
			}
			break
		}
		if r.Phase == models.PhaseSettled {
			duplicate = true
			break
		}
		if !models.CanTransition(r.Phase, models.PhaseSettled) {
			log.Printf("[TRACKER] ⚠️ Dropping out-of-order resolved event for round %d (phase=%s)", id, r.Phase)
			duplicate = true
			break
		}
		r.Phase = models.PhaseSettled
		r.ResolvedAt = t.clock.Now().UTC()
		if e.IsTie {
			r.Outcome = models.OutcomeTied
			r.Winner = ""
			// A tie refunds the full wager to each side, no fee.
			if r.Wager != nil {
				r.SettlementAmount = new(big.Int).Set(r.Wager)
			} else {
				r.SettlementAmount = e.Payout
			}
		} else {
			r.Winner = strings.ToLower(e.Winner)
			if r.Winner == strings.ToLower(r.Creator) {
				r.Outcome = models.OutcomeCreatorWon
			} else {
				r.Outcome = models.OutcomeOpponentWon
			}
			r.SettlementAmount = e.Payout
			r.AutoResolved = true
		}
		t.retireLocked(r)

	case chain.RoundCancelled:
		if r == nil {
			if t.historyByID(id) != nil {
				duplicate = true
			}
			break
		}
		if r.Phase == models.PhaseCancelled {
			duplicate = true
			break
		}
		if !models.CanTransition(r.Phase, models.PhaseCancelled) {
			duplicate = true
			break
		}
		r.Phase = models.PhaseCancelled
		r.ResolvedAt = t.clock.Now().UTC()
		t.retireLocked(r)

	case chain.ChoiceRevealed:
		if r == nil {
			break
		}
		r.CreatorChoice = e.Choice // equal-phase field update

	default:
		log.Printf("[TRACKER] ⚠️ Unknown event kind %q for round %d", ev.Kind(), id)
		duplicate = true
	}

	ctx := t.sessionCtx
	t.mu.Unlock()

	// Events carry only a subset of fields; a delayed detail fetch reconciles
	// the rest once the node's queryable state has caught up.
	if !duplicate {
		t.scheduleRefetch(ctx, gen, id)
	}
}

func (t *Tracker) scheduleRefetch(ctx context.Context, gen uint64, id uint64) {
	go func() {
		select {
		case <-t.clock.After(t.cfg.EventRefetchDelay):
		case <-ctx.Done():
			return
		}
		t.fetchAndApply(ctx, gen, id)
	}()
}

// --- cache mutation (callers hold t.mu) -------------------------------------

func (t *Tracker) historyByID(id uint64) *models.Round {
	for _, h := range t.history {
		if h.ID == id {
			return h
		}
	}
	return nil
}

// applyDetailLocked merges an authoritative detail fetch into the cache.
// Phases only move forward; a stale fetch that would regress is discarded.
func (t *Tracker) applyDetailLocked(d *models.Round) {
	existing := t.rounds[d.ID]
	if existing == nil {
		if h := t.historyByID(d.ID); h != nil {
			existing = h
		}
	}

	if existing != nil {
		if !models.Forward(existing.Phase, d.Phase) {
			log.Printf("[TRACKER] ⚠️ Discarding stale detail for round %d (%s → %s)", d.ID, existing.Phase, d.Phase)
			return
		}
		// The view doesn't carry everything the events told us; keep the
		// richer value where the fetch came back empty.
		if d.SettlementAmount == nil {
			d.SettlementAmount = existing.SettlementAmount
		}
		if d.ResolvedAt.IsZero() {
			d.ResolvedAt = existing.ResolvedAt
		}
		if d.CreatedAt.IsZero() {
			d.CreatedAt = existing.CreatedAt
		}
		if existing.AutoResolved {
			d.AutoResolved = true
		}
	}

	if d.Terminal() {
		if d.ResolvedAt.IsZero() {
			d.ResolvedAt = t.clock.Now().UTC()
		}
		t.retireLocked(d)
		return
	}

	t.rounds[d.ID] = d
}

// retireLocked moves a terminal round from the active set into history and
// discards any pending commitment held for it.
func (t *Tracker) retireLocked(r *models.Round) {
	delete(t.rounds, r.ID)

	if h := t.historyByID(r.ID); h != nil {
		*h = *r
	} else {
		t.history = append([]*models.Round{r}, t.history...)
		if len(t.history) > t.cfg.HistoryLimit {
			t.history = t.history[:t.cfg.HistoryLimit]
		}
	}

	if _, held := t.pending[r.ID]; held {
		delete(t.pending, r.ID)
		if t.reveals != nil {
			_ = t.reveals.Delete(r.ID)
		}
	}
}

// --- user-initiated operations ----------------------------------------------

// CreateRound validates locally, submits the creation and waits for
// confirmation, then records the pending commitment so the reveal stays
// possible — whether we, or the bot relay, end up performing it.
func (t *Tracker) CreateRound(ctx context.Context, wager *big.Int, choice models.Choice) (uint64, error) {
	if !choice.Valid() {
		return 0, models.NewValidationError("please select your move")
	}
	if wager == nil || wager.Sign() <= 0 {
		return 0, models.NewValidationError("please enter a valid bet amount")
	}
	if wager.Cmp(t.cfg.MinWager) < 0 {
		min := new(big.Int).Div(t.cfg.MinWager, models.WeiPerToken)
		return 0, models.NewValidationError("minimum bet amount is %s tokens", min.String())
	}

	t.mu.RLock()
	player := t.session
	gen := t.generation
	t.mu.RUnlock()
	if player == "" {
		return 0, models.NewPreconditionError("no session attached — connect a wallet first")
	}

	nonce, err := randomNonce()
	if err != nil {
		return 0, fmt.Errorf("failed to generate nonce: %w", err)
	}

	commitment, err := t.reader.CommitHash(ctx, choice, nonce, player)
	if err != nil {
		return 0, &models.TransactionError{Op: "create", Fallback: "Failed to create game", Err: err}
	}

	if err := t.ensureAllowance(ctx, gen, wager); err != nil {
		return 0, err
	}

	id, err := t.submitter.SubmitCreate(ctx, wager, commitment)
	if err != nil {
		return 0, &models.TransactionError{Op: "create", Fallback: "Failed to create game", Err: err}
	}

	pc := &models.PendingCommitment{
		RoundID:    id,
		Choice:     choice,
		Nonce:      nonce.String(),
		Account:    player,
		CommitHash: "0x" + hex.EncodeToString(commitment[:]),
		CreatedAt:  t.clock.Now().UTC(),
	}

	// Hand the reveal payload to the bot; fall back to disk when it is down.
	if t.relay != nil {
		if err := t.relay.StoreReveal(ctx, pc); err != nil {
			log.Printf("[TRACKER] ⚠️ Relay handoff for round %d failed, storing locally: %v", id, err)
			if t.reveals != nil {
				if serr := t.reveals.Save(pc); serr != nil {
					log.Printf("[TRACKER] ❌ Local reveal store failed for round %d: %v", id, serr)
				}
			}
		} else {
			pc.Relayed = true
		}
	} else if t.reveals != nil {
		if serr := t.reveals.Save(pc); serr != nil {
			log.Printf("[TRACKER] ❌ Local reveal store failed for round %d: %v", id, serr)
		}
	}

	t.mu.Lock()
	if t.generation == gen {
		t.pending[id] = pc
	}
	t.mu.Unlock()

	log.Printf("[TRACKER] ✅ Round %d created (wager=%s wei)", id, wager.String())
	t.fetchAndApply(ctx, gen, id)
	return id, nil
}

// JoinRound validates against the cache (the chain stays the final authority)
// and submits the join with the caller's choice.
func (t *Tracker) JoinRound(ctx context.Context, id uint64, choice models.Choice) error {
	if !choice.Valid() {
		return models.NewValidationError("please select your move")
	}

	t.mu.RLock()
	player := t.session
	gen := t.generation
	var cached *models.Round
	if r := t.rounds[id]; r != nil {
		cached = r.Clone()
	}
	balance := t.balance
	t.mu.RUnlock()

	if player == "" {
		return models.NewPreconditionError("no session attached — connect a wallet first")
	}
	if cached == nil {
		return models.NewValidationError("unknown round %d", id)
	}
	if strings.EqualFold(cached.Creator, player) {
		return models.NewValidationError("you cannot join your own game")
	}
	if cached.Phase != models.PhaseOpen {
		return models.NewPreconditionError("round %d is not open for joining", id)
	}
	// Checked against the most recently cached balance; staleness is fine,
	// the call simply fails on-chain if reality disagrees.
	if balance != nil && cached.Wager != nil && balance.Cmp(cached.Wager) < 0 {
		return models.NewPreconditionError("insufficient balance: joining needs %s wei", cached.Wager.String())
	}

	if err := t.ensureAllowance(ctx, gen, cached.Wager); err != nil {
		return err
	}

	if err := t.submitter.SubmitJoin(ctx, id, choice); err != nil {
		return &models.TransactionError{Op: "join", Fallback: "Failed to join game", Err: err}
	}

	log.Printf("[TRACKER] ✅ Joined round %d as %s", id, choice)
	t.fetchAndApply(ctx, gen, id)
	return nil
}

// CancelRound is only valid while the round is Open and the caller created it.
func (t *Tracker) CancelRound(ctx context.Context, id uint64) error {
	t.mu.RLock()
	player := t.session
	gen := t.generation
	var cached *models.Round
	if r := t.rounds[id]; r != nil {
		cached = r.Clone()
	}
	t.mu.RUnlock()

	if player == "" {
		return models.NewPreconditionError("no session attached — connect a wallet first")
	}
	if cached == nil {
		return models.NewValidationError("unknown round %d", id)
	}
	if !strings.EqualFold(cached.Creator, player) {
		return models.NewValidationError("only the creator can cancel a game")
	}
	if cached.Phase != models.PhaseOpen {
		return models.NewPreconditionError("round %d can no longer be cancelled", id)
	}

	if err := t.submitter.SubmitCancel(ctx, id); err != nil {
		return &models.TransactionError{Op: "cancel", Fallback: "Failed to cancel game", Err: err}
	}

	t.mu.Lock()
	if t.generation == gen {
		delete(t.pending, id)
	}
	t.mu.Unlock()
	if t.reveals != nil {
		_ = t.reveals.Delete(id)
	}

	log.Printf("[TRACKER] ✅ Round %d cancelled", id)
	t.fetchAndApply(ctx, gen, id)
	return nil
}

// ensureAllowance tops up the ERC-20 allowance when the cached value is short.
// The contract pulls the wager via transferFrom, so the approval must land
// before create/join.
func (t *Tracker) ensureAllowance(ctx context.Context, gen uint64, needed *big.Int) error {
	if needed == nil {
		return nil
	}
	t.mu.RLock()
	current := t.allowance
	player := t.session
	t.mu.RUnlock()

	if current != nil && current.Cmp(needed) >= 0 {
		return nil
	}

	if err := t.token.Approve(ctx, needed); err != nil {
		return &models.TransactionError{Op: "approve", Fallback: "Failed to approve token spend", Err: err}
	}

	fresh, err := t.token.Allowance(ctx, player)
	if err != nil {
		log.Printf("[TRACKER] ⚠️ %v", &models.SyncError{Op: "allowance", Err: err})
		return nil
	}
	t.mu.Lock()
	if t.generation == gen {
		t.allowance = fresh
	}
	t.mu.Unlock()
	return nil
}

func randomNonce() (*big.Int, error) {
	var buf [32]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(buf[:]), nil
}

// --- read model -------------------------------------------------------------

// Snapshot is the immutable read model handed to the presentation layer.
type Snapshot struct {
	Session      string
	ActiveRounds []*models.Round // newest first
	History      []*models.Round // newest first, bounded window
	Pending      []*models.PendingCommitment
	Stats        *models.PlayerStats
	Balance      *big.Int
	Allowance    *big.Int
}

// Snapshot never blocks on the network: it returns the latest cache contents
// even while a refresh is in flight.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := Snapshot{Session: t.session}

	snap.ActiveRounds = make([]*models.Round, 0, len(t.rounds))
	for _, r := range t.rounds {
		snap.ActiveRounds = append(snap.ActiveRounds, r.Clone())
	}
	sort.Slice(snap.ActiveRounds, func(i, j int) bool {
		return snap.ActiveRounds[i].ID > snap.ActiveRounds[j].ID
	})

	snap.History = make([]*models.Round, 0, len(t.history))
	for _, r := range t.history {
		snap.History = append(snap.History, r.Clone())
	}

	snap.Pending = make([]*models.PendingCommitment, 0, len(t.pending))
	for _, pc := range t.pending {
		snap.Pending = append(snap.Pending, pc.Clone())
	}
	sort.Slice(snap.Pending, func(i, j int) bool {
		return snap.Pending[i].RoundID > snap.Pending[j].RoundID
	})

	if t.stats != nil {
		snap.Stats = t.stats.Clone()
	}
	if t.balance != nil {
		snap.Balance = new(big.Int).Set(t.balance)
	}
	if t.allowance != nil {
		snap.Allowance = new(big.Int).Set(t.allowance)
	}
	return snap
}
