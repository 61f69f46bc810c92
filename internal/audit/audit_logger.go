package audit

import (
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/pigpay/backend/internal/ledger"
	"github.com/pigpay/backend/internal/logging"
	"github.com/sirupsen/logrus"
)

type AuditEvent struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	EntryID   string    `json:"entry_id,omitempty"`
	Username  string    `json:"username"`
	Amount    int64     `json:"amount,omitempty"`
	Fee       int64     `json:"fee,omitempty"`
	Status    string    `json:"status"`
	Details   any       `json:"details,omitempty"`
}

// AuditLogger writes one JSON line per audited event.
type AuditLogger struct {
	log *logrus.Entry
	now func() time.Time
}

func NewAuditLogger() *AuditLogger {
	return &AuditLogger{log: logging.For("audit"), now: time.Now}
}

// NewAuditLoggerTo writes audit lines to w instead of the shared logger.
func NewAuditLoggerTo(w io.Writer) *AuditLogger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableQuote: true})
	return &AuditLogger{log: logrus.NewEntry(l), now: time.Now}
}

// Observe records committed and rejected ledger operations.
func (a *AuditLogger) Observe(ev ledger.Event) {
	switch ev.State {
	case ledger.StateCommitted:
		e := ev.Entry
		details := map[string]string{
			"sender":   e.SenderUsername,
			"receiver": e.ReceiverUsername,
		}
		if e.ItemID != nil {
			details["item_id"] = *e.ItemID
		}
		a.write(AuditEvent{
			EventType: eventType(ev.Op),
			EntryID:   e.ID,
			Username:  ev.Actor,
			Amount:    e.Amount,
			Fee:       e.Fee,
			Status:    "SUCCESS",
			Details:   details,
		})
	case ledger.StateRejected:
		a.LogError(eventType(ev.Op), ev.Actor, ev.Err)
	}
}

func (a *AuditLogger) LogError(eventType, username string, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	a.write(AuditEvent{
		EventType: eventType,
		Username:  username,
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	})
}

func (a *AuditLogger) LogOperation(eventType, username, details string) {
	a.write(AuditEvent{
		EventType: eventType,
		Username:  username,
		Status:    "SUCCESS",
		Details:   map[string]string{"details": details},
	})
}

func eventType(op ledger.Operation) string {
	switch op {
	case ledger.OpPurchase:
		return "PURCHASE"
	default:
		return "TRANSFER"
	}
}

func (a *AuditLogger) write(event AuditEvent) {
	event.Timestamp = a.now()
	data, _ := json.Marshal(event)
	a.log.Info("AUDIT: " + string(data))
}
