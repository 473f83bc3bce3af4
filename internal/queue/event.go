// Package queue defines message payloads exchanged over the message broker
// and the consumer that turns them into outgoing mail.
package queue

// CustomerRegisteredQueue carries one message per successful sign-up.
const CustomerRegisteredQueue = "customer.registered"

// CustomerRegisteredEvent is published after a customer signs up.  It holds
// everything the mailer needs, so consumers never query the primary database.
type CustomerRegisteredEvent struct {
    EventID          string `json:"event_id"`
    CustomerID       uint64 `json:"customer_id"`
    Account          string `json:"account"`
    Email            string `json:"email"`
    FullName         string `json:"full_name"`
    ConfirmationCode string `json:"confirmation_code"`
    RegisteredAt     string `json:"registered_at"`
}
