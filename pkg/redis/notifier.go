package redis

import (
	"context"
	"encoding/json"
	"time"
)

// NotificationChannel is the pub/sub channel notification consumers subscribe
// to (dashboards, mailers). Delivery is best-effort.
const NotificationChannel = "escrow:notifications"

// Notification is the payload published for send_notification trigger actions
// and other caller-visible engine events.
type Notification struct {
	ContractID string    `json:"contractId"`
	Recipient  string    `json:"recipient,omitempty"`
	Kind       string    `json:"kind"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// Notifier publishes engine notifications over Redis pub/sub.
type Notifier struct{}

// NewNotifier creates a Notifier backed by the package client.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Notify publishes a notification. Errors are returned so the caller can log
// them, but notifications carry no transactional meaning.
func (n *Notifier) Notify(ctx context.Context, contractID, recipient, kind, message string) error {
	payload, err := json.Marshal(Notification{
		ContractID: contractID,
		Recipient:  recipient,
		Kind:       kind,
		Message:    message,
		Timestamp:  time.Now(),
	})
	if err != nil {
		return err
	}
	return Publish(ctx, NotificationChannel, payload)
}
