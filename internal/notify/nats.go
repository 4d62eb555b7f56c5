package notify

import (
	"context"
	"encoding/json"
	"time"

	"bazaar/backend/pkg/logger"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const subjectPrefix = "notify."

// Publisher is the part of *nats.Conn the notifier needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATS publishes every notification as JSON on notify.<userId>.
type NATS struct {
	Conn Publisher
}

func NewNATS(conn Publisher) *NATS {
	return &NATS{Conn: conn}
}

// Subject returns the subject notifications for userID are published on.
func Subject(userID string) string { return subjectPrefix + userID }

func (p *NATS) Notify(_ context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return errors.Wrap(p.Conn.Publish(Subject(n.UserID), payload), "nats publish")
}

// ConnectNATS opens a connection that keeps reconnecting in the background.
func ConnectNATS(url string, log *logger.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("bazaar-backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "connect nats")
	}
	return nc, nil
}
