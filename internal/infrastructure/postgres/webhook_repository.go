package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arenaops/scoreboard/internal/domain"
)

// WebhookSubscriptionRepository implements domain.WebhookSubscriptionRepository using Postgres.
type WebhookSubscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewWebhookSubscriptionRepository creates a new WebhookSubscriptionRepository.
func NewWebhookSubscriptionRepository(pool *pgxpool.Pool) *WebhookSubscriptionRepository {
	return &WebhookSubscriptionRepository{pool: pool}
}

// Save persists a webhook subscription (insert or update).
func (r *WebhookSubscriptionRepository) Save(ctx context.Context, sub *domain.WebhookSubscription) error {
	const query = `
		INSERT INTO scoreboard.webhook_subscriptions (id, brand, target_url, secret, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			target_url = EXCLUDED.target_url,
			secret = EXCLUDED.secret,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		sub.ID(),
		sub.Brand().String(),
		sub.TargetURL(),
		sub.Secret(),
		sub.IsActive(),
		sub.CreatedAt(),
		sub.UpdatedAt(),
	)
	return err
}

// FindByBrand retrieves all active subscriptions for a brand.
func (r *WebhookSubscriptionRepository) FindByBrand(ctx context.Context, brand domain.Brand) ([]*domain.WebhookSubscription, error) {
	const query = `
		SELECT id, brand, target_url, secret, is_active, created_at, updated_at
		FROM scoreboard.webhook_subscriptions
		WHERE brand = $1 AND is_active = true
	`

	rows, err := r.pool.Query(ctx, query, brand.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanSubscriptions(rows)
}

// Delete removes a subscription.
func (r *WebhookSubscriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM scoreboard.webhook_subscriptions WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// scanSubscriptions scans multiple rows into subscription slice.
func (r *WebhookSubscriptionRepository) scanSubscriptions(rows pgx.Rows) ([]*domain.WebhookSubscription, error) {
	var subs []*domain.WebhookSubscription

	for rows.Next() {
		var (
			id        uuid.UUID
			brand     string
			targetURL string
			secret    string
			isActive  bool
			createdAt time.Time
			updatedAt time.Time
		)

		err := rows.Scan(&id, &brand, &targetURL, &secret, &isActive, &createdAt, &updatedAt)
		if err != nil {
			return nil, err
		}

		subs = append(subs, domain.ReconstructWebhookSubscription(
			id,
			domain.BrandFromTrusted(brand),
			targetURL,
			secret,
			isActive,
			createdAt,
			updatedAt,
		))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return subs, nil
}
