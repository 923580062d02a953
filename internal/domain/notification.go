package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// WebhookSubscription represents a subscription to podium-change
// notifications for one brand's leaderboard position.
type WebhookSubscription struct {
	id        uuid.UUID
	brand     Brand
	targetURL string
	secret    string
	isActive  bool
	createdAt time.Time
	updatedAt time.Time
}

// NewWebhookSubscription creates a new webhook subscription.
func NewWebhookSubscription(brand Brand, targetURL, secret string) (*WebhookSubscription, error) {
	if brand.IsZero() {
		return nil, ErrBrandEmpty
	}
	if targetURL == "" || secret == "" {
		return nil, ErrInvalidInput
	}

	now := time.Now().UTC()
	return &WebhookSubscription{
		id:        uuid.New(),
		brand:     brand,
		targetURL: targetURL,
		secret:    secret,
		isActive:  true,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructWebhookSubscription rebuilds a subscription from persistence.
// bypasses validation for trusted data from database.
func ReconstructWebhookSubscription(
	id uuid.UUID,
	brand Brand,
	targetURL string,
	secret string,
	isActive bool,
	createdAt time.Time,
	updatedAt time.Time,
) *WebhookSubscription {
	return &WebhookSubscription{
		id:        id,
		brand:     brand,
		targetURL: targetURL,
		secret:    secret,
		isActive:  isActive,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// Getters

func (s *WebhookSubscription) ID() uuid.UUID        { return s.id }
func (s *WebhookSubscription) Brand() Brand         { return s.brand }
func (s *WebhookSubscription) TargetURL() string    { return s.targetURL }
func (s *WebhookSubscription) Secret() string       { return s.secret }
func (s *WebhookSubscription) IsActive() bool       { return s.isActive }
func (s *WebhookSubscription) CreatedAt() time.Time { return s.createdAt }
func (s *WebhookSubscription) UpdatedAt() time.Time { return s.updatedAt }

// Deactivate disables the subscription without deleting it.
func (s *WebhookSubscription) Deactivate() {
	s.isActive = false
	s.updatedAt = time.Now().UTC()
}

// WebhookSubscriptionRepository defines persistence for webhook
// subscriptions.
type WebhookSubscriptionRepository interface {
	// Save persists a webhook subscription (insert or update).
	Save(ctx context.Context, sub *WebhookSubscription) error

	// FindByBrand retrieves all active subscriptions for a brand.
	FindByBrand(ctx context.Context, brand Brand) ([]*WebhookSubscription, error)

	// Delete removes a subscription.
	Delete(ctx context.Context, id uuid.UUID) error
}

// PodiumChange describes a brand entering, leaving or moving within the
// leaderboard top three after a refresh.
type PodiumChange struct {
	Brand     Brand
	Month     Month
	OldRank   int // 0 = not on podium
	NewRank   int // 0 = not on podium
	Total     float64
	Timestamp time.Time
}

// PodiumNotifier defines the interface for dispatching podium-change
// notifications. implementations handle delivery (webhooks, etc).
type PodiumNotifier interface {
	// NotifyPodiumChange queues notifications for a podium change.
	// returns the number of notifications queued.
	NotifyPodiumChange(ctx context.Context, change PodiumChange) (int, error)
}

// DiffPodium compares two podium orderings and returns one change per
// brand whose rank differs. ranks are 1-based; 0 means off the podium.
func DiffPodium(month Month, previous, current []BrandScore, now time.Time) []PodiumChange {
	prevRanks := make(map[string]int, len(previous))
	for i, bs := range previous {
		prevRanks[bs.Brand.String()] = i + 1
	}

	var changes []PodiumChange
	seen := make(map[string]bool, len(current))

	for i, bs := range current {
		seen[bs.Brand.String()] = true
		oldRank := prevRanks[bs.Brand.String()]
		if oldRank == i+1 {
			continue
		}
		changes = append(changes, PodiumChange{
			Brand:     bs.Brand,
			Month:     month,
			OldRank:   oldRank,
			NewRank:   i + 1,
			Total:     bs.Result.Total,
			Timestamp: now,
		})
	}

	// brands that dropped off entirely
	for i, bs := range previous {
		if !seen[bs.Brand.String()] {
			changes = append(changes, PodiumChange{
				Brand:     bs.Brand,
				Month:     month,
				OldRank:   i + 1,
				NewRank:   0,
				Total:     0,
				Timestamp: now,
			})
		}
	}

	return changes
}
