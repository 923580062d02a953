package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/arenaops/scoreboard/internal/application"
	"github.com/arenaops/scoreboard/internal/domain"
)

// ScoreHandler handles operator scoring HTTP requests.
type ScoreHandler struct {
	scoreUseCase *application.ScoreOperatorUseCase
}

// NewScoreHandler creates a new ScoreHandler.
func NewScoreHandler(scoreUseCase *application.ScoreOperatorUseCase) *ScoreHandler {
	return &ScoreHandler{scoreUseCase: scoreUseCase}
}

// RegisterRoutes registers the scoring routes on the given group.
func (h *ScoreHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/scores", h.ScoreOperator)
}

// ScoreBreakdownResponse is the per-component view of a score.
type ScoreBreakdownResponse struct {
	Deposit    float64 `json:"deposit"`
	Retention  float64 `json:"retention"`
	Activation float64 `json:"activation"`
	Referral   float64 `json:"referral"`
	Days4to7   float64 `json:"days_4_7"`
	Days8to11  float64 `json:"days_8_11"`
	Days12to15 float64 `json:"days_12_15"`
	Days16to19 float64 `json:"days_16_19"`
	Days20Plus float64 `json:"days_20_more"`
}

// ScoreCountsResponse echoes the raw inputs behind a score.
type ScoreCountsResponse struct {
	DepositTotal       string `json:"deposit_total"`
	RetentionActive    int    `json:"retention_active"`
	ReactivationActive int    `json:"reactivation_active"`
	RecommendActive    int    `json:"recommend_active"`
	Days4to7           int    `json:"days_4_7"`
	Days8to11          int    `json:"days_8_11"`
	Days12to15         int    `json:"days_12_15"`
	Days16to19         int    `json:"days_16_19"`
	Days20Plus         int    `json:"days_20_more"`
}

// ScoreResponse is the response for a single operator score.
type ScoreResponse struct {
	Handler         string                 `json:"handler"`
	Brand           string                 `json:"brand"`
	Month           string                 `json:"month"`
	Cycle           string                 `json:"cycle"`
	Window          string                 `json:"window"`
	Total           float64                `json:"total"`
	Breakdown       ScoreBreakdownResponse `json:"breakdown"`
	Counts          ScoreCountsResponse    `json:"counts"`
	DegradedSources []string               `json:"degraded_sources,omitempty"`
}

// ScoreOperator handles GET /api/v1/scores
// computes one operator's score for a month and cycle.
//
// @Summary Score an operator
// @Description Computes the weighted score for one handler and brand over a scoring window
// @Tags scores
// @Produce json
// @Param handler query string true "Handler name"
// @Param brand query string true "Brand name"
// @Param month query string true "Month in YYYY-MM form"
// @Param cycle query string false "Cycle selector (Cycle 1..Cycle 4, default All)"
// @Success 200 {object} ScoreResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/scores [get]
func (h *ScoreHandler) ScoreOperator(c echo.Context) error {
	input := application.ScoreOperatorInput{
		Handler: c.QueryParam("handler"),
		Brand:   c.QueryParam("brand"),
		Month:   c.QueryParam("month"),
		Cycle:   c.QueryParam("cycle"),
	}

	output, err := h.scoreUseCase.Execute(c.Request().Context(), input)
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, ScoreResponse{
		Handler:         output.Operator.Handler.String(),
		Brand:           output.Operator.Brand.String(),
		Month:           output.Month.String(),
		Cycle:           output.Cycle.String(),
		Window:          output.Window.String(),
		Total:           output.Result.Total,
		Breakdown:       toBreakdownResponse(output.Result.Breakdown),
		Counts:          toCountsResponse(output.Result.RawCounts),
		DegradedSources: output.DegradedSources,
	})
}

func toBreakdownResponse(b domain.ScoreBreakdown) ScoreBreakdownResponse {
	return ScoreBreakdownResponse{
		Deposit:    b.Deposit,
		Retention:  b.Retention,
		Activation: b.Activation,
		Referral:   b.Referral,
		Days4to7:   b.Days4to7,
		Days8to11:  b.Days8to11,
		Days12to15: b.Days12to15,
		Days16to19: b.Days16to19,
		Days20Plus: b.Days20Plus,
	}
}

func toCountsResponse(c domain.ScoreCounts) ScoreCountsResponse {
	return ScoreCountsResponse{
		DepositTotal:       c.DepositTotal.String(),
		RetentionActive:    c.RetentionActive,
		ReactivationActive: c.ReactivationActive,
		RecommendActive:    c.RecommendActive,
		Days4to7:           c.Buckets.Days4to7,
		Days8to11:          c.Buckets.Days8to11,
		Days12to15:         c.Buckets.Days12to15,
		Days16to19:         c.Buckets.Days16to19,
		Days20Plus:         c.Buckets.Days20Plus,
	}
}

// mapDomainError translates domain errors into HTTP errors.
func mapDomainError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidWindow),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrHandlerEmpty),
		errors.Is(err, domain.ErrBrandEmpty),
		errors.Is(err, domain.ErrInvalidMonth),
		errors.Is(err, domain.ErrSquadEmpty):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrSourceFetch):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
