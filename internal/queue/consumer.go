package queue

import (
    "context"
    "errors"
    "fmt"
    "log/slog"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one message body.  Returning an error rejects the
// message without requeueing it.
type Handler func(body []byte) error

// StartConsumer consumes queue until ctx is cancelled, reconnecting with
// exponential backoff (capped at 30s) whenever the broker goes away.
func StartConsumer(ctx context.Context, url, queue string, handle Handler, logger *slog.Logger) error {
    if url == "" {
        url = DefaultURL
    }
    if logger == nil {
        logger = slog.Default()
    }
    logger = logger.With(slog.String("queue", queue))

    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            logger.Warn("consumer dial failed", slog.Any("error", err), slog.Duration("retry_in", backoff))
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = consumeLoop(ctx, conn, queue, handle, logger)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        logger.Warn("consume loop ended, reconnecting", slog.Any("error", err))
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queue string, handle Handler, logger *slog.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        logger.Warn("set QoS failed", slog.Any("error", err))
    }
    if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
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
            if err := handle(d.Body); err != nil {
                logger.Error("handle message failed", slog.Any("error", err))
                _ = d.Nack(false, false) // do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
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
