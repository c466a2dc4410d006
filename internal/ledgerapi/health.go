package ledgerapi

import (
	"github.com/labstack/echo/v4"
	"github.com/talkincode/toughledger/internal/webserver"
)

type pingResponse struct {
	Pong bool `json:"pong"`
}

func (h *handlers) registerHealthRoutes(s *webserver.Server) {
	s.ApiGET("/health/ping", ping)
}

// @Summary liveness probe
// @Tags Health
// @Success 200 {object} pingResponse
// @Router /api/health/ping [get]
func ping(c echo.Context) error {
	return ok(c, pingResponse{Pong: true})
}
