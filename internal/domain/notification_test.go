package domain

import (
	"testing"
	"time"
)

func brandScore(name string, total float64) BrandScore {
	return BrandScore{Brand: BrandFromTrusted(name), Result: ScoreResult{Total: total}}
}

func TestDiffPodium_NoChanges(t *testing.T) {
	month := mustMonth(t, "2024-02")
	podium := []BrandScore{brandScore("Alpha", 300), brandScore("Beta", 200)}

	changes := DiffPodium(month, podium, podium, time.Now())
	if len(changes) != 0 {
		t.Errorf("expected no changes, got %d", len(changes))
	}
}

func TestDiffPodium_RankSwap(t *testing.T) {
	month := mustMonth(t, "2024-02")
	previous := []BrandScore{brandScore("Alpha", 300), brandScore("Beta", 200)}
	current := []BrandScore{brandScore("Beta", 400), brandScore("Alpha", 300)}

	changes := DiffPodium(month, previous, current, time.Now())

	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}

	byBrand := make(map[string]PodiumChange)
	for _, c := range changes {
		byBrand[c.Brand.String()] = c
	}

	beta := byBrand["Beta"]
	if beta.OldRank != 2 || beta.NewRank != 1 {
		t.Errorf("Beta ranks = %d -> %d, expected 2 -> 1", beta.OldRank, beta.NewRank)
	}
	if beta.Total != 400 {
		t.Errorf("Beta total = %f, expected 400", beta.Total)
	}

	alpha := byBrand["Alpha"]
	if alpha.OldRank != 1 || alpha.NewRank != 2 {
		t.Errorf("Alpha ranks = %d -> %d, expected 1 -> 2", alpha.OldRank, alpha.NewRank)
	}
}

func TestDiffPodium_NewEntrantAndDropOff(t *testing.T) {
	month := mustMonth(t, "2024-02")
	previous := []BrandScore{brandScore("Alpha", 300), brandScore("Beta", 200), brandScore("Gamma", 100)}
	current := []BrandScore{brandScore("Alpha", 300), brandScore("Beta", 200), brandScore("Delta", 150)}

	changes := DiffPodium(month, previous, current, time.Now())

	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}

	byBrand := make(map[string]PodiumChange)
	for _, c := range changes {
		byBrand[c.Brand.String()] = c
	}

	delta := byBrand["Delta"]
	if delta.OldRank != 0 || delta.NewRank != 3 {
		t.Errorf("Delta ranks = %d -> %d, expected 0 -> 3", delta.OldRank, delta.NewRank)
	}

	gamma := byBrand["Gamma"]
	if gamma.OldRank != 3 || gamma.NewRank != 0 {
		t.Errorf("Gamma ranks = %d -> %d, expected 3 -> 0", gamma.OldRank, gamma.NewRank)
	}
}

func TestDiffPodium_EmptyPrevious(t *testing.T) {
	month := mustMonth(t, "2024-02")
	current := []BrandScore{brandScore("Alpha", 300)}

	changes := DiffPodium(month, nil, current, time.Now())

	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	if changes[0].OldRank != 0 || changes[0].NewRank != 1 {
		t.Errorf("ranks = %d -> %d, expected 0 -> 1", changes[0].OldRank, changes[0].NewRank)
	}
}

func TestNewWebhookSubscription_Validation(t *testing.T) {
	brand := BrandFromTrusted("Alpha")

	sub, err := NewWebhookSubscription(brand, "https://example.com/hook", "s3cret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sub.IsActive() {
		t.Error("new subscription should start active")
	}

	if _, err := NewWebhookSubscription(Brand{}, "https://example.com/hook", "s3cret"); err == nil {
		t.Error("expected error for empty brand")
	}
	if _, err := NewWebhookSubscription(brand, "", "s3cret"); err == nil {
		t.Error("expected error for empty target URL")
	}
	if _, err := NewWebhookSubscription(brand, "https://example.com/hook", ""); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestWebhookSubscription_Deactivate(t *testing.T) {
	sub, err := NewWebhookSubscription(BrandFromTrusted("Alpha"), "https://example.com/hook", "s3cret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub.Deactivate()
	if sub.IsActive() {
		t.Error("expected subscription to be inactive")
	}
}
