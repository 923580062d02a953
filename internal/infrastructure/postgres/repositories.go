package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/arenaops/scoreboard/internal/domain"
)

// AssignmentRepository implements domain.AssignmentRepository using Postgres.
type AssignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository creates a new AssignmentRepository.
func NewAssignmentRepository(pool *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

// ListByCategory retrieves one category's records for an exact
// (handler, brand, month) match. matching is exact on purpose: customer
// codes are normalized downstream, handler and brand names are not.
func (r *AssignmentRepository) ListByCategory(ctx context.Context, handler domain.Handler, brand domain.Brand, month domain.Month, category domain.Category) ([]domain.AssignmentRecord, error) {
	const query = `
		SELECT customer_code, brand, handler, category, month
		FROM scoreboard.assignments
		WHERE month = $1 AND handler = $2 AND brand = $3 AND category = $4
	`

	rows, err := r.pool.Query(ctx, query, month.String(), handler.String(), brand.String(), category.String())
	if err != nil {
		return nil, fmt.Errorf("querying assignments: %w", err)
	}
	defer rows.Close()

	return r.scanRecords(rows)
}

// ListByMonth retrieves every assignment record for a month across all
// handlers, brands and categories.
func (r *AssignmentRepository) ListByMonth(ctx context.Context, month domain.Month) ([]domain.AssignmentRecord, error) {
	const query = `
		SELECT customer_code, brand, handler, category, month
		FROM scoreboard.assignments
		WHERE month = $1
	`

	rows, err := r.pool.Query(ctx, query, month.String())
	if err != nil {
		return nil, fmt.Errorf("querying month assignments: %w", err)
	}
	defer rows.Close()

	return r.scanRecords(rows)
}

// ListOperators returns the distinct (handler, brand) pairs with
// assignments in a month, ordered for stable leaderboard passes.
func (r *AssignmentRepository) ListOperators(ctx context.Context, month domain.Month) ([]domain.Operator, error) {
	const query = `
		SELECT DISTINCT handler, brand
		FROM scoreboard.assignments
		WHERE month = $1
		ORDER BY brand, handler
	`

	rows, err := r.pool.Query(ctx, query, month.String())
	if err != nil {
		return nil, fmt.Errorf("querying operators: %w", err)
	}
	defer rows.Close()

	var operators []domain.Operator
	for rows.Next() {
		var handler, brand string
		if err := rows.Scan(&handler, &brand); err != nil {
			return nil, fmt.Errorf("scanning operator row: %w", err)
		}
		operators = append(operators, domain.Operator{
			Handler: domain.HandlerFromTrusted(handler),
			Brand:   domain.BrandFromTrusted(brand),
		})
	}

	return operators, rows.Err()
}

func (r *AssignmentRepository) scanRecords(rows pgx.Rows) ([]domain.AssignmentRecord, error) {
	var records []domain.AssignmentRecord

	for rows.Next() {
		var (
			customerCode string
			brand        string
			handler      string
			category     string
			month        string
		)

		if err := rows.Scan(&customerCode, &brand, &handler, &category, &month); err != nil {
			return nil, fmt.Errorf("scanning assignment row: %w", err)
		}

		// database stores trusted data, but we still validate for safety
		categoryParsed, err := domain.ParseCategory(category)
		if err != nil {
			return nil, fmt.Errorf("corrupted category in database: %w", err)
		}

		monthParsed, err := domain.ParseMonth(month)
		if err != nil {
			return nil, fmt.Errorf("corrupted month in database: %w", err)
		}

		records = append(records, domain.AssignmentRecord{
			CustomerCode: customerCode,
			Brand:        domain.BrandFromTrusted(brand),
			Handler:      domain.HandlerFromTrusted(handler),
			Category:     categoryParsed,
			Month:        monthParsed,
		})
	}

	return records, rows.Err()
}

// DepositEventRepository implements domain.DepositEventRepository using Postgres.
type DepositEventRepository struct {
	pool *pgxpool.Pool
}

// NewDepositEventRepository creates a new DepositEventRepository.
func NewDepositEventRepository(pool *pgxpool.Pool) *DepositEventRepository {
	return &DepositEventRepository{pool: pool}
}

// FindQualifying retrieves qualifying events for the given normalized
// codes, brand and window in a single bulk query. the feed stores codes
// with inconsistent case and padding, so the match normalizes in SQL the
// same way NormalizeCode does in Go.
func (r *DepositEventRepository) FindQualifying(ctx context.Context, codes []string, brand domain.Brand, window domain.DateWindow) ([]domain.DepositEvent, error) {
	if len(codes) == 0 {
		return []domain.DepositEvent{}, nil
	}

	const query = `
		SELECT customer_code, brand, day, amount::text, cases
		FROM scoreboard.deposit_events
		WHERE upper(trim(customer_code)) = ANY($1)
		  AND brand = $2
		  AND day >= $3 AND day <= $4
		  AND cases > 0
	`

	rows, err := r.pool.Query(ctx, query, codes, brand.String(), window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("querying deposit events: %w", err)
	}
	defer rows.Close()

	return r.scanEvents(rows)
}

// FindQualifyingByMonth retrieves every qualifying event of a month
// across all brands. feeds the monthly snapshot.
func (r *DepositEventRepository) FindQualifyingByMonth(ctx context.Context, month domain.Month) ([]domain.DepositEvent, error) {
	const query = `
		SELECT customer_code, brand, day, amount::text, cases
		FROM scoreboard.deposit_events
		WHERE day >= $1 AND day <= $2
		  AND cases > 0
	`

	rows, err := r.pool.Query(ctx, query, month.FirstDay(), month.LastDay())
	if err != nil {
		return nil, fmt.Errorf("querying month deposit events: %w", err)
	}
	defer rows.Close()

	return r.scanEvents(rows)
}

// FindQualifyingByBrands retrieves qualifying events for a set of brands
// inside a window. used by battle scoring.
func (r *DepositEventRepository) FindQualifyingByBrands(ctx context.Context, brands []domain.Brand, window domain.DateWindow) ([]domain.DepositEvent, error) {
	if len(brands) == 0 {
		return []domain.DepositEvent{}, nil
	}

	names := make([]string, len(brands))
	for i, brand := range brands {
		names[i] = brand.String()
	}

	const query = `
		SELECT customer_code, brand, day, amount::text, cases
		FROM scoreboard.deposit_events
		WHERE brand = ANY($1)
		  AND day >= $2 AND day <= $3
		  AND cases > 0
	`

	rows, err := r.pool.Query(ctx, query, names, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("querying brand deposit events: %w", err)
	}
	defer rows.Close()

	return r.scanEvents(rows)
}

func (r *DepositEventRepository) scanEvents(rows pgx.Rows) ([]domain.DepositEvent, error) {
	var events []domain.DepositEvent

	for rows.Next() {
		var (
			customerCode string
			brand        string
			day          time.Time
			amount       string
			cases        int
		)

		if err := rows.Scan(&customerCode, &brand, &day, &amount, &cases); err != nil {
			return nil, fmt.Errorf("scanning deposit event row: %w", err)
		}

		// amounts travel as text so no float conversion ever touches them
		amountParsed, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("corrupted amount in database: %w", err)
		}

		events = append(events, domain.DepositEvent{
			CustomerCode: customerCode,
			Brand:        domain.BrandFromTrusted(brand),
			Day:          day,
			Amount:       amountParsed,
			Cases:        cases,
		})
	}

	return events, rows.Err()
}

// WeightRepository implements domain.WeightRepository using Postgres.
type WeightRepository struct {
	pool *pgxpool.Pool
}

// NewWeightRepository creates a new WeightRepository.
func NewWeightRepository(pool *pgxpool.Pool) *WeightRepository {
	return &WeightRepository{pool: pool}
}

// FindByMonth retrieves the weight vector for a month.
// returns domain.ErrNotFound when no row exists.
func (r *WeightRepository) FindByMonth(ctx context.Context, month domain.Month) (domain.WeightVector, error) {
	const query = `
		SELECT deposit_amount, retention, reactivation, recommend,
		       days_4_7, days_8_11, days_12_15, days_16_19, days_20_more
		FROM scoreboard.weight_vectors
		WHERE month = $1
	`

	var w domain.WeightVector
	err := r.pool.QueryRow(ctx, query, month.String()).Scan(
		&w.DepositAmount, &w.Retention, &w.Reactivation, &w.Recommend,
		&w.Days4to7, &w.Days8to11, &w.Days12to15, &w.Days16to19, &w.Days20Plus,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.WeightVector{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.WeightVector{}, fmt.Errorf("scanning weight vector: %w", err)
	}

	return w, nil
}

// SquadRepository implements domain.SquadRepository using Postgres.
type SquadRepository struct {
	pool *pgxpool.Pool
}

// NewSquadRepository creates a new SquadRepository.
func NewSquadRepository(pool *pgxpool.Pool) *SquadRepository {
	return &SquadRepository{pool: pool}
}

// BrandMappings returns the many-to-one brand to squad mapping.
func (r *SquadRepository) BrandMappings(ctx context.Context) (map[string]domain.Squad, error) {
	const query = `SELECT brand, squad FROM scoreboard.squad_brands`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying squad mappings: %w", err)
	}
	defer rows.Close()

	mappings := make(map[string]domain.Squad)
	for rows.Next() {
		var brand, squad string
		if err := rows.Scan(&brand, &squad); err != nil {
			return nil, fmt.Errorf("scanning squad mapping row: %w", err)
		}
		mappings[brand] = domain.SquadFromTrusted(squad)
	}

	return mappings, rows.Err()
}

// ListAdjustments returns the manual adjustment entries for a month,
// oldest first.
func (r *SquadRepository) ListAdjustments(ctx context.Context, month domain.Month) ([]domain.AdjustmentEntry, error) {
	const query = `
		SELECT id, squad, month, delta, reason, created_at
		FROM scoreboard.adjustments
		WHERE month = $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, month.String())
	if err != nil {
		return nil, fmt.Errorf("querying adjustments: %w", err)
	}
	defer rows.Close()

	var entries []domain.AdjustmentEntry
	for rows.Next() {
		var (
			id        uuid.UUID
			squad     string
			monthRaw  string
			delta     float64
			reason    string
			createdAt time.Time
		)

		if err := rows.Scan(&id, &squad, &monthRaw, &delta, &reason, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning adjustment row: %w", err)
		}

		monthParsed, err := domain.ParseMonth(monthRaw)
		if err != nil {
			return nil, fmt.Errorf("corrupted month in database: %w", err)
		}

		entries = append(entries, domain.AdjustmentEntry{
			ID:        id,
			Squad:     domain.SquadFromTrusted(squad),
			Month:     monthParsed,
			Delta:     delta,
			Reason:    reason,
			CreatedAt: createdAt,
		})
	}

	return entries, rows.Err()
}

// SaveAdjustment appends an entry to the adjustment log.
func (r *SquadRepository) SaveAdjustment(ctx context.Context, entry *domain.AdjustmentEntry) error {
	const query = `
		INSERT INTO scoreboard.adjustments (id, squad, month, delta, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.Squad.String(),
		entry.Month.String(),
		entry.Delta,
		entry.Reason,
		entry.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("saving adjustment: %w", err)
	}
	return nil
}
