package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/arenaops/scoreboard/internal/application"
	"github.com/arenaops/scoreboard/internal/infrastructure/cache"
)

// LeaderboardHandler handles leaderboard HTTP requests.
type LeaderboardHandler struct {
	leaderboardUseCase *application.LeaderboardUseCase
	rankings           *cache.RedisClient
}

// NewLeaderboardHandler creates a new LeaderboardHandler.
func NewLeaderboardHandler(leaderboardUseCase *application.LeaderboardUseCase) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardUseCase: leaderboardUseCase}
}

// WithRankings wires the redis-backed ranking reads. nil leaves the
// cheap read endpoints serving from a fresh computation instead.
func (h *LeaderboardHandler) WithRankings(rankings *cache.RedisClient) *LeaderboardHandler {
	h.rankings = rankings
	return h
}

// RegisterRoutes registers the leaderboard routes on the given group.
func (h *LeaderboardHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/leaderboard", h.Leaderboard)
	g.GET("/leaderboard/podium", h.Podium)
	g.GET("/leaderboard/rank", h.Rank)
	g.DELETE("/leaderboard/brands/:brand", h.RemoveBrand)
}

// OperatorRowResponse is one ranked operator row.
type OperatorRowResponse struct {
	Handler string  `json:"handler"`
	Brand   string  `json:"brand"`
	Total   float64 `json:"total"`
}

// BrandRowResponse is one brand rollup row.
type BrandRowResponse struct {
	Brand string  `json:"brand"`
	Total float64 `json:"total"`
}

// LeaderboardResponse is the full leaderboard view for one pass.
type LeaderboardResponse struct {
	Month     string                `json:"month"`
	Cycle     string                `json:"cycle"`
	Operators []OperatorRowResponse `json:"operators"`
	Brands    []BrandRowResponse    `json:"brands"`
	Podium    []BrandRowResponse    `json:"podium"`
	Processed int                   `json:"processed"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
}

// Leaderboard handles GET /api/v1/leaderboard
// scores every operator in a month and rolls up per brand.
//
// @Summary Month leaderboard
// @Description Scores all operators with assignments in a month and returns per-brand rollups and the podium
// @Tags leaderboard
// @Produce json
// @Param month query string true "Month in YYYY-MM form"
// @Param cycle query string false "Cycle selector (Cycle 1..Cycle 4, default All)"
// @Success 200 {object} LeaderboardResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/leaderboard [get]
func (h *LeaderboardHandler) Leaderboard(c echo.Context) error {
	output, err := h.leaderboardUseCase.Execute(c.Request().Context(), application.LeaderboardInput{
		Month: c.QueryParam("month"),
		Cycle: c.QueryParam("cycle"),
	})
	if err != nil {
		return mapDomainError(err)
	}

	response := LeaderboardResponse{
		Month:     output.Month.String(),
		Cycle:     output.Cycle.String(),
		Operators: make([]OperatorRowResponse, 0, len(output.Rows)),
		Brands:    make([]BrandRowResponse, 0, len(output.Brands)),
		Podium:    make([]BrandRowResponse, 0, len(output.Podium)),
		Processed: output.Processed,
		Succeeded: output.Succeeded,
		Failed:    output.Failed,
	}

	for _, row := range output.Rows {
		response.Operators = append(response.Operators, OperatorRowResponse{
			Handler: row.Operator.Handler.String(),
			Brand:   row.Operator.Brand.String(),
			Total:   row.Result.Total,
		})
	}
	for _, brand := range output.Brands {
		response.Brands = append(response.Brands, BrandRowResponse{
			Brand: brand.Brand.String(),
			Total: brand.Result.Total,
		})
	}
	for _, brand := range output.Podium {
		response.Podium = append(response.Podium, BrandRowResponse{
			Brand: brand.Brand.String(),
			Total: brand.Result.Total,
		})
	}

	return c.JSON(http.StatusOK, response)
}

// PodiumResponse is the cheap podium read.
type PodiumResponse struct {
	Month  string             `json:"month"`
	Podium []BrandRowResponse `json:"podium"`
	Ranked int64              `json:"ranked"`
	Source string             `json:"source"`
}

// Podium handles GET /api/v1/leaderboard/podium
// serves the podium from the redis sorted set when populated, falling
// back to a full computation when the cache is cold or disabled.
//
// @Summary Podium read
// @Description Returns the month's top brands from the ranking cache
// @Tags leaderboard
// @Produce json
// @Param month query string true "Month in YYYY-MM form"
// @Param limit query int false "Number of podium entries (default 3)"
// @Success 200 {object} PodiumResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/leaderboard/podium [get]
func (h *LeaderboardHandler) Podium(c echo.Context) error {
	month := c.QueryParam("month")
	limit := int64(3)
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}

	if h.rankings != nil {
		ranked, err := h.rankings.TopBrandsWithScores(c.Request().Context(), month, limit, 0)
		if err == nil {
			size, sizeErr := h.rankings.LeaderboardSize(c.Request().Context(), month)
			if sizeErr != nil {
				size = int64(len(ranked))
			}

			response := PodiumResponse{
				Month:  month,
				Podium: make([]BrandRowResponse, 0, len(ranked)),
				Ranked: size,
				Source: "cache",
			}
			for _, entry := range ranked {
				brand, _ := entry.Member.(string)
				response.Podium = append(response.Podium, BrandRowResponse{
					Brand: brand,
					Total: entry.Score,
				})
			}
			return c.JSON(http.StatusOK, response)
		}
		if !errors.Is(err, cache.ErrRedisEmpty) && !errors.Is(err, cache.ErrRedisNotConnected) {
			return mapDomainError(err)
		}
	}

	// cold cache: compute and serve from the authoritative store
	output, err := h.leaderboardUseCase.Execute(c.Request().Context(), application.LeaderboardInput{Month: month})
	if err != nil {
		return mapDomainError(err)
	}

	response := PodiumResponse{
		Month:  output.Month.String(),
		Podium: make([]BrandRowResponse, 0, len(output.Podium)),
		Ranked: int64(len(output.Brands)),
		Source: "computed",
	}
	for _, brand := range output.Podium {
		response.Podium = append(response.Podium, BrandRowResponse{
			Brand: brand.Brand.String(),
			Total: brand.Result.Total,
		})
	}
	return c.JSON(http.StatusOK, response)
}

// RankResponse is one brand's leaderboard position.
type RankResponse struct {
	Month  string `json:"month"`
	Brand  string `json:"brand"`
	Rank   int64  `json:"rank"`
	Ranked bool   `json:"ranked"`
}

// Rank handles GET /api/v1/leaderboard/rank
// returns a brand's 1-based position in the month's ranking cache.
//
// @Summary Brand rank
// @Description Returns one brand's position in the month's leaderboard
// @Tags leaderboard
// @Produce json
// @Param month query string true "Month in YYYY-MM form"
// @Param brand query string true "Brand name"
// @Success 200 {object} RankResponse
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/v1/leaderboard/rank [get]
func (h *LeaderboardHandler) Rank(c echo.Context) error {
	month := c.QueryParam("month")
	brand := c.QueryParam("brand")
	if month == "" || brand == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "month and brand are required")
	}

	if h.rankings == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "ranking cache is disabled")
	}

	rank, err := h.rankings.BrandRank(c.Request().Context(), month, brand)
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, RankResponse{
		Month:  month,
		Brand:  brand,
		Rank:   rank + 1,
		Ranked: rank >= 0,
	})
}

// RemoveBrand handles DELETE /api/v1/leaderboard/brands/:brand
// purges a brand from a month's ranking cache. used when a brand is
// renamed or decommissioned mid-month. requires an admin token.
//
// @Summary Remove a brand from the ranking cache
// @Description Deletes one brand's entry from the month's sorted set
// @Tags leaderboard
// @Produce json
// @Param brand path string true "Brand name"
// @Param month query string true "Month in YYYY-MM form"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/v1/leaderboard/brands/{brand} [delete]
// @Security BearerAuth
func (h *LeaderboardHandler) RemoveBrand(c echo.Context) error {
	claims, err := RequireAuth(c)
	if err != nil {
		return err
	}
	if !claims.IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, "admin role required")
	}

	month := c.QueryParam("month")
	brand := c.Param("brand")
	if month == "" || brand == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "month and brand are required")
	}

	if h.rankings == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "ranking cache is disabled")
	}

	if err := h.rankings.RemoveBrand(c.Request().Context(), month, brand); err != nil {
		return mapDomainError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
