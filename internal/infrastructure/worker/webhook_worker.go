package worker

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/arenaops/scoreboard/internal/domain"
	"github.com/arenaops/scoreboard/internal/infrastructure/logging"
)

// WebhookWorkerConfig holds configuration for the webhook dispatcher.
type WebhookWorkerConfig struct {
	// BufferSize is the size of the notification channel buffer.
	BufferSize int

	// WorkerCount is the number of concurrent workers dispatching webhooks.
	WorkerCount int

	// RequestTimeout is the max time to wait for each outgoing HTTP request.
	RequestTimeout time.Duration
}

// DefaultWebhookWorkerConfig returns sensible defaults.
func DefaultWebhookWorkerConfig() WebhookWorkerConfig {
	return WebhookWorkerConfig{
		BufferSize:     1000,
		WorkerCount:    2,
		RequestTimeout: 5 * time.Second,
	}
}

// QueueMetrics abstracts the pending-notification gauge.
type QueueMetrics interface {
	SetWebhookQueueSize(size int)
}

// WebhookWorker dispatches webhook notifications for podium changes.
// implements domain.PodiumNotifier.
type WebhookWorker struct {
	changeChan chan domain.PodiumChange
	subRepo    domain.WebhookSubscriptionRepository
	httpClient *http.Client
	config     WebhookWorkerConfig
	logger     *logging.Logger
	metrics    QueueMetrics

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
}

// NewWebhookWorker creates a new webhook worker.
func NewWebhookWorker(
	subRepo domain.WebhookSubscriptionRepository,
	config WebhookWorkerConfig,
	logger *logging.Logger,
) *WebhookWorker {
	return &WebhookWorker{
		changeChan: make(chan domain.PodiumChange, config.BufferSize),
		subRepo:    subRepo,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
		config:  config,
		logger:  logger.WithComponent("webhook_worker"),
		stopped: make(chan struct{}),
	}
}

// WithMetrics sets the queue size recorder.
func (w *WebhookWorker) WithMetrics(m QueueMetrics) *WebhookWorker {
	w.metrics = m
	return w
}

// Start begins the worker goroutines.
func (w *WebhookWorker) Start(ctx context.Context) {
	w.logger.Info("webhook worker starting",
		"buffer_size", w.config.BufferSize,
		"worker_count", w.config.WorkerCount,
		"request_timeout", w.config.RequestTimeout.String(),
	)

	for i := 0; i < w.config.WorkerCount; i++ {
		w.wg.Add(1)
		go w.runWorker(ctx, i)
	}
}

// Stop gracefully shuts down the worker.
func (w *WebhookWorker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("webhook worker stopping, draining buffer...")
		close(w.changeChan)
		w.wg.Wait()
		close(w.stopped)
		w.logger.Info("webhook worker stopped")
	})
}

// Stopped returns a channel that closes when the worker has fully stopped.
func (w *WebhookWorker) Stopped() <-chan struct{} {
	return w.stopped
}

// NotifyPodiumChange queues a podium change for notification.
// implements domain.PodiumNotifier.
func (w *WebhookWorker) NotifyPodiumChange(ctx context.Context, change domain.PodiumChange) (int, error) {
	select {
	case w.changeChan <- change:
		w.logger.Debug("podium change queued for notification",
			"brand", change.Brand.String(),
			"old_rank", change.OldRank,
			"new_rank", change.NewRank,
		)
		w.recordQueueSize()
		// actual count is determined during dispatch; return 0 as it's async
		return 0, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
		// buffer full, log and drop
		w.logger.Warn("webhook buffer full, podium change dropped",
			"brand", change.Brand.String(),
		)
		return 0, nil
	}
}

// runWorker is the main worker loop.
func (w *WebhookWorker) runWorker(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case change, ok := <-w.changeChan:
			if !ok {
				w.logger.Debug("worker exiting after drain", "worker_id", workerID)
				return
			}
			w.dispatchChange(ctx, change, workerID)
			w.recordQueueSize()

		case <-ctx.Done():
			w.logger.Debug("worker exiting on context cancel", "worker_id", workerID)
			return
		}
	}
}

// dispatchChange sends webhook notifications for a podium change.
func (w *WebhookWorker) dispatchChange(ctx context.Context, change domain.PodiumChange, workerID int) {
	subs, err := w.subRepo.FindByBrand(ctx, change.Brand)
	if err != nil {
		w.logger.Error("failed to fetch subscriptions",
			"worker_id", workerID,
			"brand", change.Brand.String(),
			"error", err.Error(),
		)
		return
	}

	if len(subs) == 0 {
		w.logger.Debug("no subscriptions for brand",
			"brand", change.Brand.String(),
		)
		return
	}

	payload := WebhookPayload{
		Event:     "podium_change",
		Brand:     change.Brand.String(),
		Month:     change.Month.String(),
		OldRank:   change.OldRank,
		NewRank:   change.NewRank,
		Total:     change.Total,
		Timestamp: change.Timestamp.Format(time.RFC3339),
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		w.logger.Error("failed to marshal payload",
			"worker_id", workerID,
			"error", err.Error(),
		)
		return
	}

	var sent, failed int
	for _, sub := range subs {
		if w.sendWebhook(ctx, sub, payloadBytes, workerID) {
			sent++
		} else {
			failed++
		}
	}

	w.logger.Info("podium notifications dispatched",
		"worker_id", workerID,
		"brand", change.Brand.String(),
		"sent", sent,
		"failed", failed,
	)
}

// sendWebhook sends a single webhook notification.
func (w *WebhookWorker) sendWebhook(ctx context.Context, sub *domain.WebhookSubscription, payload []byte, workerID int) bool {
	signature := w.computeSignature(payload, sub.Secret())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.TargetURL(), bytes.NewReader(payload))
	if err != nil {
		w.logger.Error("failed to create request",
			"worker_id", workerID,
			"target_url", sub.TargetURL(),
			"error", err.Error(),
		)
		return false
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Scoreboard-Signature", signature)
	req.Header.Set("X-Scoreboard-Event", "podium_change")
	req.Header.Set("User-Agent", "Scoreboard-Webhook/1.0")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		w.logger.Warn("webhook request failed",
			"worker_id", workerID,
			"target_url", sub.TargetURL(),
			"error", err.Error(),
		)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		w.logger.Debug("webhook delivered",
			"target_url", sub.TargetURL(),
			"status", resp.StatusCode,
		)
		return true
	}

	w.logger.Warn("webhook returned non-success status",
		"worker_id", workerID,
		"target_url", sub.TargetURL(),
		"status", resp.StatusCode,
	)
	return false
}

// computeSignature generates HMAC-SHA256 signature.
func (w *WebhookWorker) computeSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return fmt.Sprintf("sha256=%s", hex.EncodeToString(mac.Sum(nil)))
}

func (w *WebhookWorker) recordQueueSize() {
	if w.metrics != nil {
		w.metrics.SetWebhookQueueSize(len(w.changeChan))
	}
}

// WebhookPayload is the JSON structure sent to webhook endpoints.
type WebhookPayload struct {
	Event     string  `json:"event"`
	Brand     string  `json:"brand"`
	Month     string  `json:"month"`
	OldRank   int     `json:"old_rank"`
	NewRank   int     `json:"new_rank"`
	Total     float64 `json:"total"`
	Timestamp string  `json:"timestamp"`
}
