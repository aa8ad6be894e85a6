// services/http_api.go
package services

import (
	"errors"
	"log"
	"math/big"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"rps-arena/models"
)

type ApiService struct {
	Tracker *Tracker
	Archive *ArchiveService // may be nil when no database is configured
	Relay   *RelayClient    // may be nil
}

func NewApiService(tracker *Tracker, archive *ArchiveService, relay *RelayClient) *ApiService {
	return &ApiService{Tracker: tracker, Archive: archive, Relay: relay}
}

// RoundView is the wire shape of one round. Big integers go out as decimal
// strings — JSON numbers cannot carry 18-decimal wei amounts.
type RoundView struct {
	ID               uint64 `json:"id"`
	Creator          string `json:"creator"`
	Opponent         string `json:"opponent,omitempty"`
	Wager            string `json:"wager"`
	CreatorChoice    string `json:"creator_choice"`
	OpponentChoice   string `json:"opponent_choice"`
	Phase            string `json:"phase"`
	Outcome          string `json:"outcome,omitempty"`
	Winner           string `json:"winner,omitempty"`
	SettlementAmount string `json:"settlement_amount,omitempty"`
	AutoResolved     bool   `json:"auto_resolved,omitempty"`
	CreatedAt        string `json:"created_at,omitempty"`
	ResolvedAt       string `json:"resolved_at,omitempty"`
}

func viewOfRound(r *models.Round) RoundView {
	v := RoundView{
		ID:             r.ID,
		Creator:        r.Creator,
		Opponent:       r.Opponent,
		Wager:          bigString(r.Wager),
		CreatorChoice:  r.CreatorChoice.String(),
		OpponentChoice: r.OpponentChoice.String(),
		Phase:          string(r.Phase),
		Outcome:        string(r.Outcome),
		Winner:         r.Winner,
		AutoResolved:   r.AutoResolved,
	}
	if r.SettlementAmount != nil {
		v.SettlementAmount = r.SettlementAmount.String()
	}
	if !r.CreatedAt.IsZero() {
		v.CreatedAt = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !r.ResolvedAt.IsZero() {
		v.ResolvedAt = r.ResolvedAt.UTC().Format(time.RFC3339)
	}
	return v
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// apiError maps the domain error taxonomy to HTTP statuses. Transaction
// failures keep the provider message verbatim next to the stable fallback.
func apiError(c *fiber.Ctx, err error) error {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": verr.Reason})
	}
	var perr *models.PreconditionError
	if errors.As(err, &perr) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": perr.Reason})
	}
	var terr *models.TransactionError
	if errors.As(err, &terr) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":    terr.Err.Error(),
			"fallback": terr.Fallback,
		})
	}
	log.Printf("[API] ❌ Unexpected error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}

// GetActiveRounds lists the active set: open rounds for everyone, joined
// rounds only for their participants.
func (s *ApiService) GetActiveRounds(c *fiber.Ctx) error {
	snap := s.Tracker.Snapshot()
	viewer, _ := c.Locals("player").(string)
	if viewer == "" {
		viewer = snap.Session
	}

	out := make([]RoundView, 0, len(snap.ActiveRounds))
	for _, r := range snap.ActiveRounds {
		if r.Phase == models.PhaseJoined && !r.Involves(viewer) {
			continue
		}
		out = append(out, viewOfRound(r))
	}
	return c.JSON(fiber.Map{"rounds": out, "count": len(out)})
}

// GetRoundHistory returns the in-memory recent-terminal window, newest first.
func (s *ApiService) GetRoundHistory(c *fiber.Ctx) error {
	snap := s.Tracker.Snapshot()
	out := make([]RoundView, 0, len(snap.History))
	for _, r := range snap.History {
		out = append(out, viewOfRound(r))
	}
	return c.JSON(fiber.Map{"rounds": out, "count": len(out)})
}

// GetRoundArchive serves the durable archive, which reaches further back than
// the bounded in-memory window.
func (s *ApiService) GetRoundArchive(c *fiber.Ctx) error {
	if s.Archive == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "archive not configured"})
	}
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	records, err := s.Archive.RecentRecords(limit)
	if err != nil {
		log.Printf("[API] ❌ Archive query failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load archive"})
	}
	return c.JSON(fiber.Map{"rounds": records, "count": len(records)})
}

// GetPlayerStats proxies the contract's per-player counters plus the two
// derived values the leaderboard widgets need.
func (s *ApiService) GetPlayerStats(c *fiber.Ctx) error {
	address := c.Params("address")
	stats, err := s.Tracker.reader.GetPlayerStats(c.Context(), address)
	if err != nil {
		return apiError(c, &models.TransactionError{Op: "stats", Fallback: "Failed to load player stats", Err: err})
	}
	return c.JSON(fiber.Map{
		"address":       address,
		"played":        stats.Played,
		"won":           stats.Won,
		"tied":          stats.Tied,
		"total_wagered": bigString(stats.TotalWagered),
		"total_won":     bigString(stats.TotalWon),
		"win_rate":      stats.WinRate(),
		"net_profit":    stats.NetProfit().String(),
	})
}

type createRoundRequest struct {
	Wager  string `json:"wager"` // wei, decimal string
	Choice string `json:"choice"`
}

func (s *ApiService) CreateRound(c *fiber.Ctx) error {
	var req createRoundRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	choice, err := models.ParseChoice(req.Choice)
	if err != nil {
		return apiError(c, models.NewValidationError("please select your move"))
	}
	wager, ok := new(big.Int).SetString(req.Wager, 10)
	if !ok {
		return apiError(c, models.NewValidationError("please enter a valid bet amount"))
	}

	id, err := s.Tracker.CreateRound(c.Context(), wager, choice)
	if err != nil {
		return apiError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

type joinRoundRequest struct {
	Choice string `json:"choice"`
}

func (s *ApiService) JoinRound(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid round id"})
	}

	var req joinRoundRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	choice, err := models.ParseChoice(req.Choice)
	if err != nil {
		return apiError(c, models.NewValidationError("please select your move"))
	}

	if err := s.Tracker.JoinRound(c.Context(), id, choice); err != nil {
		return apiError(c, err)
	}
	return c.JSON(fiber.Map{"id": id, "joined": true})
}

func (s *ApiService) CancelRound(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid round id"})
	}
	if err := s.Tracker.CancelRound(c.Context(), id); err != nil {
		return apiError(c, err)
	}
	return c.JSON(fiber.Map{"id": id, "cancelled": true})
}

// GetSession reports the attached identity and its cached balances/stats.
func (s *ApiService) GetSession(c *fiber.Ctx) error {
	snap := s.Tracker.Snapshot()
	if snap.Session == "" {
		return c.JSON(fiber.Map{"attached": false})
	}
	resp := fiber.Map{
		"attached": true,
		"address":  snap.Session,
	}
	if snap.Balance != nil {
		resp["balance"] = snap.Balance.String()
	}
	if snap.Allowance != nil {
		resp["allowance"] = snap.Allowance.String()
	}
	if snap.Stats != nil {
		resp["stats"] = fiber.Map{
			"played":     snap.Stats.Played,
			"won":        snap.Stats.Won,
			"tied":       snap.Stats.Tied,
			"win_rate":   snap.Stats.WinRate(),
			"net_profit": snap.Stats.NetProfit().String(),
		}
	}
	pending := make([]fiber.Map, 0, len(snap.Pending))
	for _, pc := range snap.Pending {
		pending = append(pending, fiber.Map{
			"round_id": pc.RoundID,
			"relayed":  pc.Relayed,
		})
	}
	resp["pending_commitments"] = pending
	return c.JSON(resp)
}

// AttachSession binds the caller's address (from the player middleware) as the
// tracked identity and kicks off the session refresh + event subscription.
func (s *ApiService) AttachSession(c *fiber.Ctx) error {
	player, _ := c.Locals("player").(string)
	if player == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "player address required"})
	}
	if err := s.Tracker.AttachSession(c.Context(), player); err != nil {
		return apiError(c, err)
	}
	return c.JSON(fiber.Map{"attached": true, "address": s.Tracker.SessionAddress()})
}

func (s *ApiService) DetachSession(c *fiber.Ctx) error {
	s.Tracker.DetachSession()
	return c.JSON(fiber.Map{"attached": false})
}

// RelayHealth surfaces the bot relay's reachability for the status banner.
func (s *ApiService) RelayHealth(c *fiber.Ctx) error {
	if s.Relay == nil {
		return c.JSON(fiber.Map{"healthy": false, "configured": false})
	}
	if err := s.Relay.Health(c.Context()); err != nil {
		return c.JSON(fiber.Map{"healthy": false, "configured": true, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"healthy": true, "configured": true})
}
