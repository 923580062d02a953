package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/arenaops/scoreboard/internal/application"
	"github.com/arenaops/scoreboard/internal/domain"
)

// BattleHandler handles squad battle HTTP requests.
type BattleHandler struct {
	battleUseCase *application.BattleScoreUseCase
}

// NewBattleHandler creates a new BattleHandler.
func NewBattleHandler(battleUseCase *application.BattleScoreUseCase) *BattleHandler {
	return &BattleHandler{battleUseCase: battleUseCase}
}

// RegisterRoutes registers the battle routes on the given group.
func (h *BattleHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/battle", h.BattleScore)
	g.POST("/battle/adjustments", h.AddAdjustment)
}

// BattleSideResponse is one squad's side of the arena view.
type BattleSideResponse struct {
	Squad        string  `json:"squad"`
	Total        float64 `json:"total"`
	ActiveMember float64 `json:"active_member"`
	Reactivation float64 `json:"reactivation"`
	Recommend    float64 `json:"recommend"`
	Adjustments  float64 `json:"adjustments"`
}

// BattleResponse is the squad-vs-squad scoring view.
type BattleResponse struct {
	Month  string             `json:"month"`
	Cycle  string             `json:"cycle"`
	Window string             `json:"window"`
	SquadA BattleSideResponse `json:"squad_a"`
	SquadB BattleSideResponse `json:"squad_b"`
}

// AddAdjustmentRequest is the request body for recording an adjustment.
type AddAdjustmentRequest struct {
	Squad  string  `json:"squad"`
	Month  string  `json:"month"`
	Delta  float64 `json:"delta"`
	Reason string  `json:"reason"`
}

// AdjustmentResponse is the recorded adjustment entry.
type AdjustmentResponse struct {
	ID     string  `json:"id"`
	Squad  string  `json:"squad"`
	Month  string  `json:"month"`
	Delta  float64 `json:"delta"`
	Reason string  `json:"reason"`
}

// BattleScore handles GET /api/v1/battle
// computes the squad-vs-squad score for a month and cycle.
//
// @Summary Squad battle score
// @Description Computes the two-squad competitive score including opponent effects and manual adjustments
// @Tags battle
// @Produce json
// @Param month query string true "Month in YYYY-MM form"
// @Param cycle query string false "Cycle selector (Cycle 1..Cycle 4, default All)"
// @Success 200 {object} BattleResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/battle [get]
func (h *BattleHandler) BattleScore(c echo.Context) error {
	output, err := h.battleUseCase.Execute(c.Request().Context(), application.BattleScoreInput{
		Month: c.QueryParam("month"),
		Cycle: c.QueryParam("cycle"),
	})
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, BattleResponse{
		Month:  output.Month.String(),
		Cycle:  output.Cycle.String(),
		Window: output.Window.String(),
		SquadA: toBattleSideResponse(output.Result.SquadA),
		SquadB: toBattleSideResponse(output.Result.SquadB),
	})
}

// AddAdjustment handles POST /api/v1/battle/adjustments
// records a manual score delta. requires an admin token.
//
// @Summary Record a battle adjustment
// @Description Appends a manual per-squad, per-month score delta to the adjustment log
// @Tags battle
// @Accept json
// @Produce json
// @Param request body AddAdjustmentRequest true "Adjustment details"
// @Success 201 {object} AdjustmentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/v1/battle/adjustments [post]
// @Security BearerAuth
func (h *BattleHandler) AddAdjustment(c echo.Context) error {
	claims, err := RequireAuth(c)
	if err != nil {
		return err
	}
	if !claims.IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, "admin role required")
	}

	var req AddAdjustmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	entry, err := h.battleUseCase.AddAdjustment(c.Request().Context(), application.AddAdjustmentInput{
		Squad:  req.Squad,
		Month:  req.Month,
		Delta:  req.Delta,
		Reason: req.Reason,
	})
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusCreated, AdjustmentResponse{
		ID:     entry.ID.String(),
		Squad:  entry.Squad.String(),
		Month:  entry.Month.String(),
		Delta:  entry.Delta,
		Reason: entry.Reason,
	})
}

func toBattleSideResponse(side domain.BattleSide) BattleSideResponse {
	return BattleSideResponse{
		Squad:        side.Squad.String(),
		Total:        side.Total,
		ActiveMember: side.Breakdown.ActiveMember,
		Reactivation: side.Breakdown.Reactivation,
		Recommend:    side.Breakdown.Recommend,
		Adjustments:  side.Breakdown.Adjustment,
	}
}
