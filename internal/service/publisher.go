// Package service provides the outbound side of the message broker: it
// publishes domain events to RabbitMQ.  Errors are logged and returned so
// callers can ignore failures without interrupting the main request flow.
package service

import (
    "context"
    "encoding/json"
    "net"
    "time"

    "github.com/google/uuid"
    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/cinema-backoffice/internal/queue"
)

// Publisher sends events to the default exchange, routed by queue name.
// Each call dials its own connection; sign-up volume does not justify a
// long-lived channel.
type Publisher struct {
    url string
    log *logrus.Logger
}

func NewPublisher(url string, log *logrus.Logger) *Publisher {
    return &Publisher{url: url, log: log}
}

// NotifySignup publishes a CustomerRegisteredEvent to the
// "customer.registered" queue.  A missing EventID is filled with a UUID and
// also used as the AMQP message id, so consumers can drop duplicates.
func (p *Publisher) NotifySignup(ctx context.Context, ev queue.CustomerRegisteredEvent) error {
    pub, err := NewRegisteredPublishing(ev)
    if err != nil {
        p.log.WithError(err).Error("rabbitmq: marshal event failed")
        return err
    }

    conn, err := amqp.DialConfig(p.url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      dialContext(ctx),
    })
    if err != nil {
        p.log.WithError(err).Error("rabbitmq: dial failed")
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.log.WithError(err).Error("rabbitmq: channel open failed")
        return err
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        queue.CustomerRegisteredQueue, // name
        true,                          // durable
        false,                         // autoDelete
        false,                         // exclusive
        false,                         // noWait
        nil,                           // args
    ); err != nil {
        p.log.WithError(err).Error("rabbitmq: queue declare failed")
        return err
    }

    if err := ch.PublishWithContext(ctx,
        "",                            // default exchange
        queue.CustomerRegisteredQueue, // routing key = queue name
        false,                         // mandatory
        false,                         // immediate
        pub,
    ); err != nil {
        p.log.WithError(err).Error("rabbitmq: publish failed")
        return err
    }

    p.log.WithFields(logrus.Fields{"message_id": pub.MessageId, "customer_id": ev.CustomerID}).Debug("rabbitmq: signup published")
    return nil
}

// dialContext bounds both the TCP connect and the AMQP handshake by ctx.
func dialContext(ctx context.Context) func(network, addr string) (net.Conn, error) {
    return func(network, addr string) (net.Conn, error) {
        var d net.Dialer
        conn, err := d.DialContext(ctx, network, addr)
        if err != nil {
            return nil, err
        }
        if deadline, ok := ctx.Deadline(); ok {
            if err := conn.SetDeadline(deadline); err != nil {
                _ = conn.Close()
                return nil, err
            }
        }
        return conn, nil
    }
}

// NewRegisteredPublishing builds the persistent AMQP message for ev.
func NewRegisteredPublishing(ev queue.CustomerRegisteredEvent) (amqp.Publishing, error) {
    now := time.Now().UTC()
    if ev.EventID == "" {
        ev.EventID = uuid.NewString()
    }
    if ev.RegisteredAt == "" {
        ev.RegisteredAt = now.Format(time.RFC3339)
    }
    body, err := json.Marshal(ev)
    if err != nil {
        return amqp.Publishing{}, err
    }
    return amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        MessageId:    ev.EventID,
        Type:         queue.CustomerRegisteredQueue,
        Timestamp:    now,
        Body:         body,
    }, nil
}
