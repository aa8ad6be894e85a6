// handlers/rounds.go
package handlers

import (
	"rps-arena/middleware"
	"rps-arena/services"

	"github.com/gofiber/fiber/v2"
)

func SetupRoundRoutes(app *fiber.App, api *services.ApiService) {
	// 🔓 Public routes — viewer-aware when X-Player-Address is present
	public := app.Group("/", middleware.PlayerContextMiddleware(false))

	public.Get("/rounds", api.GetActiveRounds)
	public.Get("/rounds/history", api.GetRoundHistory)
	public.Get("/rounds/archive", api.GetRoundArchive)
	public.Get("/players/:address/stats", api.GetPlayerStats)
	public.Get("/relay/health", api.RelayHealth)
	public.Get("/session", api.GetSession)

	// 🔐 Secured routes — wallet address required
	secured := app.Group("/", middleware.PlayerContextMiddleware(true))

	secured.Post("/session", api.AttachSession)
	secured.Delete("/session", api.DetachSession)
	secured.Post("/rounds", api.CreateRound)
	secured.Post("/rounds/:id/join", api.JoinRound)
	secured.Post("/rounds/:id/cancel", api.CancelRound)
}
