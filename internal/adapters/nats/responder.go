package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/tzmonths/internal/core/domain"
	"github.com/samirrijal/tzmonths/internal/pkg/metrics"
)

// Default subject and queue group for month-start requests.
const (
	SubjectMonthStarts = "tzmonths.monthstarts"
	QueueGroup         = "tzmonths"
)

// MonthsHandler is the use case served over NATS.
type MonthsHandler interface {
	Handle(ctx context.Context, q domain.MonthsQuery) (domain.MonthStarts, error)
}

// Responder answers month-start requests over NATS request/reply. Request
// bodies are JSON objects with lon, lat, from and to string fields; replies
// carry the HTTP body plus a "status" field.
type Responder struct {
	conn    *nats.Conn
	svc     MonthsHandler
	timeout time.Duration
	sub     *nats.Subscription
}

// NewResponder creates a responder on an existing connection.
func NewResponder(conn *nats.Conn, svc MonthsHandler, timeout time.Duration) *Responder {
	return &Responder{conn: conn, svc: svc, timeout: timeout}
}

// Start subscribes in a queue group so several responders share the load.
func (r *Responder) Start(subject, queue string) error {
	sub, err := r.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		if err := msg.Respond(r.Reply(context.Background(), msg.Data)); err != nil {
			slog.Warn("nats respond", "subject", msg.Subject, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	r.sub = sub
	return nil
}

// Reply computes the encoded reply for one request body.
func (r *Responder) Reply(ctx context.Context, data []byte) []byte {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var q domain.MonthsQuery
	if err := json.Unmarshal(data, &q); err != nil {
		return encode(fmt.Errorf("%w: %v", domain.ErrInvalidParameters, err))
	}

	res, err := r.svc.Handle(ctx, q)
	if err != nil {
		return encode(err)
	}
	metrics.NATSRequests.WithLabelValues("200").Inc()
	out, _ := json.Marshal(map[string]any{"status": 200, "monthStarts": res.Starts})
	return out
}

func encode(err error) []byte {
	status, msg := domain.ErrorStatus(err)
	metrics.NATSRequests.WithLabelValues(strconv.Itoa(status)).Inc()
	out, _ := json.Marshal(map[string]any{"status": status, "error": msg})
	return out
}

// Close unsubscribes; the connection is owned by the caller.
func (r *Responder) Close() {
	if r.sub != nil {
		_ = r.sub.Drain()
	}
}

// Connect dials NATS with reconnects enabled.
func Connect(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}
