package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// AuditConsumer drains both check-in queues into an append-only audit file,
// one human-readable line per message.
type AuditConsumer struct {
    URL  string
    Path string
    Log  logrus.FieldLogger

    mu sync.Mutex // serializes writes to Path
}

// Run connects to RabbitMQ, declares both queues (durable) and consumes
// until ctx is cancelled.  Broker failures are retried with backoff, so Run
// only returns ctx.Err().  Messages that cannot be handled are rejected
// without requeue to avoid tight loops.
func (a *AuditConsumer) Run(ctx context.Context) error {
    log := a.logger()
    backoff := time.Second
    for {
        conn, err := amqp.Dial(a.URL)
        if err != nil {
            log.WithError(err).Warnf("audit-consumer: failed to dial broker; retrying in %s", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = a.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.WithError(err).Warn("audit-consumer: consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (a *AuditConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        a.logger().WithError(err).Warn("audit-consumer: set QoS failed")
    }

    transitions, err := declareAndConsume(ch, TransitionQueue)
    if err != nil {
        return err
    }
    rejections, err := declareAndConsume(ch, RejectionQueue)
    if err != nil {
        return err
    }

    for {
        var (
            d     amqp.Delivery
            ok    bool
            queue string
        )
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok = <-transitions:
            queue = TransitionQueue
        case d, ok = <-rejections:
            queue = RejectionQueue
        }
        if !ok {
            return errors.New("deliveries channel closed")
        }
        if err := a.Handle(queue, d.Body); err != nil {
            a.logger().WithError(err).WithField("queue", queue).Error("audit-consumer: handle message failed")
            _ = d.Nack(false, false)
            continue
        }
        _ = d.Ack(false)
    }
}

func declareAndConsume(ch *amqp.Channel, name string) (<-chan amqp.Delivery, error) {
    if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
        return nil, fmt.Errorf("queue declare %s: %w", name, err)
    }
    msgs, err := ch.Consume(name, "", false, false, false, false, nil)
    if err != nil {
        return nil, fmt.Errorf("queue consume %s: %w", name, err)
    }
    return msgs, nil
}

// Handle appends the audit line for one message body from queue.
func (a *AuditConsumer) Handle(queue string, body []byte) error {
    line, err := FormatAuditLine(queue, body)
    if err != nil {
        return err
    }
    a.mu.Lock()
    defer a.mu.Unlock()

    if err := os.MkdirAll(filepath.Dir(a.Path), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(a.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatAuditLine renders a message as a single newline-terminated line.
func FormatAuditLine(queue string, body []byte) (string, error) {
    switch queue {
    case TransitionQueue:
        var ev TransitionEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal: %w", err)
        }
        if ev.ParticipantRef == "" || ev.To == "" {
            return "", errors.New("transition event without participant or status")
        }
        return fmt.Sprintf("[%s] Check-in %s | participant=%s | event=%s | name=%q | category=%q | method=%s | station=%s | id=%s\n",
            ev.OccurredAt, ev.To, ev.ParticipantRef, ev.EventRef, ev.DisplayName, ev.Category, orDash(ev.Method), orDash(ev.Station), ev.ID), nil
    case RejectionQueue:
        var ev RejectionEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal: %w", err)
        }
        return fmt.Sprintf("[%s] Credential rejected | reason=%q | claimed_participant=%q | claimed_event=%q | station_event=%s | station=%s | id=%s\n",
            ev.OccurredAt, ev.Reason, ev.ClaimedParticipantRef, ev.ClaimedEventRef, ev.StationEventRef, orDash(ev.Station), ev.ID), nil
    }
    return "", fmt.Errorf("unknown queue %q", queue)
}

func (a *AuditConsumer) logger() logrus.FieldLogger {
    if a.Log == nil {
        return logrus.StandardLogger()
    }
    return a.Log
}

func orDash(s string) string {
    if s == "" {
        return "-"
    }
    return s
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
