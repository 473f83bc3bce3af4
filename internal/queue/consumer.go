package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/url"
    "strconv"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// Mailer delivers the confirmation mail for a new customer.
type Mailer interface {
    SendConfirmation(ctx context.Context, ev CustomerRegisteredEvent) error
}

// LogMailer writes the confirmation link to the log instead of sending mail.
// It stands in for an SMTP relay in development.
type LogMailer struct {
    Log     *logrus.Logger
    BaseURL string
}

func (m LogMailer) SendConfirmation(_ context.Context, ev CustomerRegisteredEvent) error {
    m.Log.WithFields(logrus.Fields{
        "event_id":    ev.EventID,
        "customer_id": ev.CustomerID,
        "email":       ev.Email,
        "link":        ConfirmLink(m.BaseURL, ev.CustomerID, ev.ConfirmationCode),
    }).Info("confirmation mail")
    return nil
}

// ConfirmLink builds the verification URL mailed to a customer.
func ConfirmLink(base string, customerID uint64, code string) string {
    return strings.TrimRight(base, "/") + "/v1/customers/verify/" +
        strconv.FormatUint(customerID, 10) + "/" + url.PathEscape(code)
}

// Consumer reads the customer.registered queue and hands each event to the
// Mailer.  Run reconnects with exponential backoff until ctx is cancelled.
type Consumer struct {
    URL    string
    Mailer Mailer
    Log    *logrus.Logger
}

// Run blocks until ctx is cancelled and then returns nil.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Log.WithError(err).Warnf("mail-consumer: dial failed; retrying in %s", backoff)
            if !sleep(ctx, backoff) {
                return nil
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return nil
        }
        c.Log.WithError(err).Warn("mail-consumer: consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return nil
        }
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Log.WithError(err).Warn("mail-consumer: set QoS failed")
    }
    if _, err := ch.QueueDeclare(CustomerRegisteredQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(CustomerRegisteredQueue, "", false, false, false, false, nil)
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
            if err := c.Handle(ctx, d.Body); err != nil {
                c.Log.WithError(err).WithField("message_id", d.MessageId).Error("mail-consumer: handle message failed")
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// Handle decodes one message body and passes it to the Mailer.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
    var ev CustomerRegisteredEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.CustomerID == 0 || ev.ConfirmationCode == "" {
        return errors.New("event missing customer id or confirmation code")
    }
    return c.Mailer.SendConfirmation(ctx, ev)
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
