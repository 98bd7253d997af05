// Package webhook delivers governance events to external HTTP endpoints.
// Deliveries are HMAC-signed, retried with backoff, and dead-lettered when
// the endpoint stays unreachable.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/retry"

	"github.com/harborview/governor/pkg/domain/events"
)

// Endpoint is one outbound webhook target. An empty EventFilters list means
// every event type is delivered.
type Endpoint struct {
	Name         string   `yaml:"name" json:"name"`
	URL          string   `yaml:"url" json:"url"`
	Secret       string   `yaml:"secret,omitempty" json:"secret,omitempty"`
	EventFilters []string `yaml:"event_filters,omitempty" json:"event_filters,omitempty"`
	Enabled      bool     `yaml:"enabled" json:"enabled"`
}

var deliverRetry = retry.Config{
	MaxAttempts:   3,
	InitialDelay:  500 * time.Millisecond,
	BackoffPolicy: retry.BackoffExponential,
}

// Notifier fans governance events out to configured endpoints.
type Notifier struct {
	endpoints  []Endpoint
	client     *http.Client
	deadLetter *DeadLetterStore
}

// NewNotifier creates a notifier. deadLetter may be nil; exhausted deliveries
// are then dropped.
func NewNotifier(endpoints []Endpoint, deadLetter *DeadLetterStore) *Notifier {
	return &Notifier{
		endpoints: endpoints,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		deadLetter: deadLetter,
	}
}

// Payload is the JSON body sent to endpoints.
type Payload struct {
	EventType   string                 `json:"event_type"`
	AggregateID string                 `json:"aggregate_id"`
	Timestamp   time.Time              `json:"timestamp"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// Handle implements the dispatcher handler contract. Delivery happens in the
// background so governed mutations never wait on an endpoint.
func (n *Notifier) Handle(ctx context.Context, event events.DomainEvent) error {
	base, ok := event.(events.BaseEvent)
	if !ok {
		return nil
	}
	payload := Payload{
		EventType:   base.Type,
		AggregateID: base.AggregateID(),
		Timestamp:   base.Timestamp,
		Data:        base.Payload,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	for _, ep := range n.endpoints {
		if !ep.Enabled || !matchesFilter(ep, base.Type) {
			continue
		}
		go n.deliver(context.WithoutCancel(ctx), ep, base.Type, body)
	}
	return nil
}

func matchesFilter(ep Endpoint, eventType string) bool {
	if len(ep.EventFilters) == 0 {
		return true
	}
	for _, f := range ep.EventFilters {
		if f == eventType {
			return true
		}
	}
	return false
}

func (n *Notifier) deliver(ctx context.Context, ep Endpoint, eventType string, body []byte) {
	retryer := retry.New[struct{}](deliverRetry)
	_, err := retryer.Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, n.send(ctx, ep, body)
	})
	if err == nil {
		return
	}

	if n.deadLetter != nil {
		dl := DeadLetter{
			Timestamp:    time.Now(),
			EndpointName: ep.Name,
			URL:          ep.URL,
			EventType:    eventType,
			Payload:      string(body),
			Error:        err.Error(),
			Attempts:     deliverRetry.MaxAttempts,
		}
		_ = n.deadLetter.Append(dl)
	}
}

func (n *Notifier) send(ctx context.Context, ep Endpoint, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Governor-Webhook/1.0")

	if ep.Secret != "" {
		req.Header.Set("X-Governor-Signature", sign(body, ep.Secret))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// sign computes HMAC-SHA256 of the payload using the secret.
func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
