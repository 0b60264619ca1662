package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// SeatsLogFile is the audit file the consumer appends to inside its log
// directory.
const SeatsLogFile = "seats.log"

// StartSeatsConsumer connects to the broker at url, declares the
// seats.confirmed queue and appends one line per message to
// <logDir>/seats.log.  It reconnects with exponential backoff and only
// returns once ctx is cancelled.  Messages that cannot be handled are
// rejected without requeue so a poison message cannot spin the loop.
func StartSeatsConsumer(ctx context.Context, url, logDir string, logger *zap.Logger) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			logger.Warn("seats consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, logDir, logger)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("seats consumer: consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logDir string, logger *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Warn("seats consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(SeatsQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(SeatsQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := HandleMessage(logDir, d.Body); err != nil {
				logger.Error("seats consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one SeatsConfirmedEvent and appends its audit line.
func HandleMessage(logDir string, body []byte) error {
	var ev SeatsConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.SessionID == "" || ev.TripPlanID == "" {
		return errors.New("event is missing session or trip plan id")
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", logDir, err)
	}
	f, err := os.OpenFile(filepath.Join(logDir, SeatsLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as one human readable log line.
func FormatLine(ev SeatsConfirmedEvent) string {
	seats := fmt.Sprintf("[%s]", strings.Join(ev.Seats, ","))
	line := fmt.Sprintf("[%s] Seats confirmed | session_id=%s | plan_id=%s | owner=%s | service=%s | package=%q | target=%s",
		ev.ConfirmedAt, ev.SessionID, ev.TripPlanID, ev.OwnerID, ev.ServiceID, ev.PackageType, ev.Target)
	if ev.ScheduledDate != "" {
		line += " | date=" + ev.ScheduledDate
	}
	return line + fmt.Sprintf(" | base=%d cents | surcharge=%d cents | seats=%s\n", ev.BasePrice, ev.SurchargeCents, seats)
}
