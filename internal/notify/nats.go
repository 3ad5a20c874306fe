package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
)

const subject = "notifications.user"

type event struct {
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NatsNotifier publishes notification events for the delivery service to pick
// up. Whether anyone is subscribed is not this subsystem's concern.
type NatsNotifier struct {
	conn *nats.Conn
}

func NewNatsNotifier(url string) (*NatsNotifier, error) {
	conn, err := nats.Connect(url, nats.Name("marketpay-notifier"))
	if err != nil {
		return nil, err
	}
	return &NatsNotifier{conn: conn}, nil
}

func (n *NatsNotifier) Notify(_ context.Context, userID, title, message, link string) error {
	data, err := json.Marshal(event{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Link:      link,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return err
	}
	return n.conn.Publish(subject, data)
}

func (n *NatsNotifier) Close() {
	n.conn.Close()
}
