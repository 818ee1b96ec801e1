package events

import (
	"encoding/json"
	"time"

	"smartbin-backend/internal/logger"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Subject suffixes appended to the configured prefix
const (
	SubjectBinStatus           = "bins.status"
	SubjectNotificationCreated = "notifications.created"
)

// BinStatusEvent is published for every bin whose status was set by an ingested reading
type BinStatusEvent struct {
	Reference string    `json:"reference"`
	Statut    string    `json:"statut"`
	FillLevel float64   `json:"fill_level"`
	At        time.Time `json:"at"`
}

// Publisher fans committed changes out to subscribers.
// Publishing is best effort and never fails the calling request.
type Publisher interface {
	Publish(subject string, payload interface{})
}

// NATSPublisher publishes JSON payloads on a NATS connection
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
}

func NewNATSPublisher(conn *nats.Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: prefix}
}

// Connect dials NATS with reconnect handlers that log through logrus
func Connect(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("smartbin-backend"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Log.WithError(err).Warn("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Log.WithField("url", nc.ConnectedUrl()).Info("nats reconnected")
		}),
	)
}

func (p *NATSPublisher) Publish(subject string, payload interface{}) {
	full := subject
	if p.prefix != "" {
		full = p.prefix + "." + subject
	}

	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.WithError(err).WithField("subject", full).Error("failed to encode event")
		return
	}
	if err := p.conn.Publish(full, data); err != nil {
		logger.Log.WithFields(logrus.Fields{"subject": full}).WithError(err).Warn("failed to publish event")
	}
}

// Nop discards every event
type Nop struct{}

func (Nop) Publish(string, interface{}) {}
