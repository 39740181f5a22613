// Package booking captures a booking attempt for one catalog offering and
// carries it across an authentication detour when the device has no
// session.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/skillswap/internal/devicestore"
	"github.com/iliyamo/skillswap/internal/model"
	"github.com/iliyamo/skillswap/internal/validate"
)

// LoginPath is where an unauthenticated device is sent to sign in.
const LoginPath = "/login"

// User-facing outcome messages.
const (
	MsgLoginRequired = "Please login to book a session"
	MsgSubmitted     = "Booking request sent successfully!"
)

var (
	// ErrSubmitFailed wraps a submitter failure.  The draft stays editable.
	ErrSubmitFailed = errors.New("booking submission failed")
	// ErrInvalidState is returned when an operation does not apply to the
	// flow's current state.
	ErrInvalidState = errors.New("booking: invalid state")
)

// State is a position in the booking state machine.
type State int

const (
	Idle State = iota
	Drafting
	AwaitingAuth
	Submitted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Drafting:
		return "drafting"
	case AwaitingAuth:
		return "awaiting_auth"
	case Submitted:
		return "submitted"
	}
	return "unknown"
}

// Resolver reports the user a device is acting as.
type Resolver interface {
	Resolve(ctx context.Context, device, token string) (model.SessionUser, bool, error)
}

// Store persists the pending draft and redirect target.
type Store interface {
	Set(ctx context.Context, device, key string, v any) error
}

// Outcome is the result of Submit.
type Outcome struct {
	State    State
	Redirect string                // set when State is AwaitingAuth
	Request  *model.BookingRequest // set when State is Submitted
	Message  string
}

// Flow is one booking attempt.  A Flow is not safe for concurrent use.
type Flow struct {
	skill     model.SkillOffering
	resolver  Resolver
	store     Store
	submitter Submitter
	now       func() time.Time

	state State
	draft model.BookingDraft
}

// NewFlow starts an Idle flow for skill.
func NewFlow(skill model.SkillOffering, resolver Resolver, store Store, submitter Submitter) *Flow {
	return &Flow{
		skill:     skill,
		resolver:  resolver,
		store:     store,
		submitter: submitter,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (f *Flow) State() State { return f.state }

// Draft records the form fields and moves the flow to Drafting.  Calling it
// again replaces the previous values.
func (f *Flow) Draft(name, email, date string) error {
	if f.state != Idle && f.state != Drafting {
		return fmt.Errorf("%w: draft in %s", ErrInvalidState, f.state)
	}
	f.draft = model.BookingDraft{
		RequesterName:   strings.TrimSpace(name),
		RequesterEmail:  strings.TrimSpace(email),
		PreferredDate:   strings.TrimSpace(date),
		TargetSkillName: f.skill.Name,
	}
	f.state = Drafting
	return nil
}

// Submit sends the draft.  Without a session the draft and location are
// saved to the device store and the flow waits for sign-in; no submission
// happens.  An empty location defaults to the offering's detail path.
func (f *Flow) Submit(ctx context.Context, device, token, location string) (Outcome, error) {
	if f.state != Drafting {
		return Outcome{State: f.state}, fmt.Errorf("%w: submit in %s", ErrInvalidState, f.state)
	}
	if err := f.validate(); err != nil {
		return Outcome{State: f.state}, err
	}

	user, ok, err := f.resolver.Resolve(ctx, device, token)
	if err != nil {
		return Outcome{State: f.state}, err
	}
	if !ok {
		if location == "" {
			location = DetailPath(f.skill.ID)
		}
		if err := f.store.Set(ctx, device, devicestore.KeyPendingBooking, f.draft); err != nil {
			return Outcome{State: f.state}, fmt.Errorf("save pending booking: %w", err)
		}
		if err := f.store.Set(ctx, device, devicestore.KeyPostLoginRedirect, location); err != nil {
			return Outcome{State: f.state}, fmt.Errorf("save login redirect: %w", err)
		}
		f.state = AwaitingAuth
		return Outcome{State: f.state, Redirect: LoginPath, Message: MsgLoginRequired}, nil
	}

	req := model.BookingRequest{
		ID:             uuid.NewString(),
		SkillID:        f.skill.ID,
		SkillName:      f.skill.Name,
		ProviderName:   f.skill.ProviderName,
		ProviderEmail:  f.skill.ProviderEmail,
		Draft:          f.draft,
		RequesterUID:   user.UID,
		RequesterEmail: user.Email,
		RequestedAt:    f.now(),
	}
	if err := f.submitter.Submit(ctx, req); err != nil {
		return Outcome{State: f.state}, fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}
	f.state = Submitted
	return Outcome{State: f.state, Request: &req, Message: MsgSubmitted}, nil
}

// Reset returns the flow to Idle and clears the draft.
func (f *Flow) Reset() {
	f.state = Idle
	f.draft = model.BookingDraft{}
}

func (f *Flow) validate() error {
	if err := validate.Required("name", f.draft.RequesterName, "Please enter your name"); err != nil {
		return err
	}
	if err := validate.Required("email", f.draft.RequesterEmail, "Please enter your email"); err != nil {
		return err
	}
	return validate.Required("date", f.draft.PreferredDate, "Please choose a preferred date")
}

// DetailPath is the client path of an offering's detail view.
func DetailPath(id int) string { return "/skill/" + strconv.Itoa(id) }
