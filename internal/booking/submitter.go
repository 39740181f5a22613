package booking

import (
	"context"
	"time"

	"github.com/iliyamo/skillswap/internal/model"
	"github.com/iliyamo/skillswap/internal/queue"
)

// Submitter delivers a booking request.  Implementations may fail.
type Submitter interface {
	Submit(ctx context.Context, req model.BookingRequest) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, req model.BookingRequest) error

func (fn SubmitterFunc) Submit(ctx context.Context, req model.BookingRequest) error {
	return fn(ctx, req)
}

// DelaySubmitter accepts every request after a fixed delay.
type DelaySubmitter struct {
	Delay time.Duration
}

func (s DelaySubmitter) Submit(ctx context.Context, _ model.BookingRequest) error {
	if s.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// EventPublisher is implemented by queue.Publisher.
type EventPublisher interface {
	PublishBookingRequested(ctx context.Context, ev queue.BookingRequestedEvent) error
}

// QueueSubmitter hands requests to the broker.
type QueueSubmitter struct {
	Publisher EventPublisher
}

func (s QueueSubmitter) Submit(ctx context.Context, req model.BookingRequest) error {
	return s.Publisher.PublishBookingRequested(ctx, EventFor(req))
}

// EventFor converts a request into its broker event.
func EventFor(req model.BookingRequest) queue.BookingRequestedEvent {
	return queue.BookingRequestedEvent{
		BookingID:      req.ID,
		SkillID:        req.SkillID,
		SkillName:      req.SkillName,
		ProviderName:   req.ProviderName,
		ProviderEmail:  req.ProviderEmail,
		RequesterName:  req.Draft.RequesterName,
		RequesterEmail: req.Draft.RequesterEmail,
		RequesterUID:   req.RequesterUID,
		PreferredDate:  req.Draft.PreferredDate,
		RequestedAt:    req.RequestedAt.UTC().Format(time.RFC3339),
	}
}
