// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names.  Both queues are durable.
const (
    BookingRequestedQueue = "booking.requested"
    PasswordResetQueue    = "auth.password_reset"
)

// BookingRequestedEvent is published when a signed-in user sends a booking
// request.  It carries everything the provider needs to follow up without
// looking anything else up.
type BookingRequestedEvent struct {
    EventID        string `json:"event_id"`
    BookingID      string `json:"booking_id"`
    SkillID        int    `json:"skill_id"`
    SkillName      string `json:"skill_name"`
    ProviderName   string `json:"provider_name"`
    ProviderEmail  string `json:"provider_email"`
    RequesterName  string `json:"requester_name"`
    RequesterEmail string `json:"requester_email"`
    RequesterUID   string `json:"requester_uid,omitempty"`
    PreferredDate  string `json:"preferred_date"`
    RequestedAt    string `json:"requested_at"`
}

// PasswordResetEvent asks the mail worker to send a reset link.
type PasswordResetEvent struct {
    EventID   string `json:"event_id"`
    Email     string `json:"email"`
    Token     string `json:"token"`
    ExpiresAt string `json:"expires_at"`
}
