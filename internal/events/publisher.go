// Package events publishes committed ledger entries to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/nats-io/nats.go"
	"github.com/pigpay/backend/internal/ledger"
	"github.com/pigpay/backend/internal/logging"
	"github.com/pigpay/backend/internal/models"
	"github.com/sirupsen/logrus"
)

// Publisher delivers one committed entry.
type Publisher interface {
	Publish(ctx context.Context, entry *models.LedgerEntry) error
}

// Message is the wire form of a published entry.
type Message struct {
	Event string             `json:"event"`
	Entry models.LedgerEntry `json:"entry"`
}

func encode(entry *models.LedgerEntry) ([]byte, error) {
	return json.Marshal(Message{Event: "ledger.entry.committed", Entry: *entry})
}

// RedisPublisher appends entries to a Redis list.
type RedisPublisher struct {
	client *redis.Client
	list   string
}

func NewRedisPublisher(client *redis.Client, list string) *RedisPublisher {
	return &RedisPublisher{client: client, list: list}
}

func (p *RedisPublisher) Publish(ctx context.Context, entry *models.LedgerEntry) error {
	data, err := encode(entry)
	if err != nil {
		return err
	}
	return p.client.RPush(ctx, p.list, string(data)).Err()
}

type natsConn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes entries on a NATS subject.
type NATSPublisher struct {
	conn    natsConn
	subject string
}

func NewNATSPublisher(nc *nats.Conn, subject string) *NATSPublisher {
	return &NATSPublisher{conn: nc, subject: subject}
}

func (p *NATSPublisher) Publish(ctx context.Context, entry *models.LedgerEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encode(entry)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.subject, data)
}

// ConnectNATS dials the NATS server used by NATSPublisher.
func ConnectNATS(url string) (*nats.Conn, error) {
	log := logging.For("events")
	nc, err := nats.Connect(url,
		nats.Name("pigpay-ledger"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Warn("[EVENTS] NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("url", nc.ConnectedUrl()).Info("[EVENTS] NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, *models.LedgerEntry) error { return nil }

// Nop discards every entry.
func Nop() Publisher { return nopPublisher{} }

// Observer publishes committed entries in the background. A publish failure
// is logged and never affects the committed operation.
type Observer struct {
	pub     Publisher
	timeout time.Duration
	log     *logrus.Entry
}

func NewObserver(pub Publisher, timeout time.Duration) *Observer {
	return &Observer{pub: pub, timeout: timeout, log: logging.For("events")}
}

func (o *Observer) Observe(ev ledger.Event) {
	if ev.State != ledger.StateCommitted || ev.Entry == nil {
		return
	}
	entry := *ev.Entry
	go o.publish(&entry)
}

func (o *Observer) publish(entry *models.LedgerEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()
	if err := o.pub.Publish(ctx, entry); err != nil {
		o.log.WithError(err).WithField("entry_id", entry.ID).Error("[EVENTS] Failed to publish ledger entry")
	}
}
