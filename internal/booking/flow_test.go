package booking_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/iliyamo/skillswap/internal/booking"
	"github.com/iliyamo/skillswap/internal/devicestore"
	"github.com/iliyamo/skillswap/internal/model"
	"github.com/iliyamo/skillswap/internal/queue"
	"github.com/iliyamo/skillswap/internal/validate"
)

const device = "device-1"

var guitar = model.SkillOffering{
	ID: 1, Name: "Beginner Guitar Lessons", ProviderName: "Alex Martin",
	ProviderEmail: "alex@skillswap.com", Category: "Music",
}

type resolver struct {
	user model.SessionUser
	ok   bool
	err  error
}

func (r resolver) Resolve(context.Context, string, string) (model.SessionUser, bool, error) {
	return r.user, r.ok, r.err
}

type countingSubmitter struct {
	mu   sync.Mutex
	reqs []model.BookingRequest
	err  error
}

func (s *countingSubmitter) Submit(_ context.Context, req model.BookingRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	return s.err
}

func (s *countingSubmitter) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reqs)
}

func newStore(t *testing.T) *devicestore.Store {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return devicestore.New(rdb, "test", 0)
}

func TestFlow(t *testing.T) {
	Convey("Given a booking flow for the guitar offering", t, func() {
		store := newStore(t)
		sub := &countingSubmitter{}
		ctx := context.Background()

		Convey("When an unauthenticated device submits a complete draft", func() {
			f := booking.NewFlow(guitar, resolver{}, store, sub)
			So(f.Draft("Ada", "ada@example.com", "2026-11-02"), ShouldBeNil)
			out, err := f.Submit(ctx, device, "", "/skill/1")

			Convey("Then the draft and redirect are stored and the submitter is not called", func() {
				So(err, ShouldBeNil)
				So(out.State, ShouldEqual, booking.AwaitingAuth)
				So(out.Redirect, ShouldEqual, "/login")
				So(out.Message, ShouldEqual, booking.MsgLoginRequired)
				So(sub.calls(), ShouldEqual, 0)

				var draft model.BookingDraft
				So(store.Get(ctx, device, devicestore.KeyPendingBooking, &draft), ShouldBeNil)
				So(draft, ShouldResemble, model.BookingDraft{
					RequesterName: "Ada", RequesterEmail: "ada@example.com",
					PreferredDate: "2026-11-02", TargetSkillName: "Beginner Guitar Lessons",
				})
				var redirect string
				So(store.Get(ctx, device, devicestore.KeyPostLoginRedirect, &redirect), ShouldBeNil)
				So(redirect, ShouldEqual, "/skill/1")
			})
		})

		Convey("When a second unauthenticated attempt follows", func() {
			yoga := model.SkillOffering{ID: 4, Name: "Morning Yoga Flow"}
			first := booking.NewFlow(guitar, resolver{}, store, sub)
			So(first.Draft("Ada", "ada@example.com", "2026-11-02"), ShouldBeNil)
			_, err := first.Submit(ctx, device, "", "")
			So(err, ShouldBeNil)
			second := booking.NewFlow(yoga, resolver{}, store, sub)
			So(second.Draft("Ada", "ada@example.com", "2026-11-03"), ShouldBeNil)
			_, err = second.Submit(ctx, device, "", "")
			So(err, ShouldBeNil)

			Convey("Then the last write wins", func() {
				var draft model.BookingDraft
				So(store.Get(ctx, device, devicestore.KeyPendingBooking, &draft), ShouldBeNil)
				So(draft.TargetSkillName, ShouldEqual, "Morning Yoga Flow")
				var redirect string
				So(store.Get(ctx, device, devicestore.KeyPostLoginRedirect, &redirect), ShouldBeNil)
				So(redirect, ShouldEqual, "/skill/4")
			})
		})

		Convey("When a signed-in device submits", func() {
			user := model.LocalOnly(model.CachedUser{Email: "ada@example.com"})
			f := booking.NewFlow(guitar, resolver{user: user, ok: true}, store, sub)
			So(f.Draft(" Ada ", "ada@example.com", "2026-11-02"), ShouldBeNil)
			out, err := f.Submit(ctx, device, "", "")

			Convey("Then the request reaches the submitter and nothing is stored", func() {
				So(err, ShouldBeNil)
				So(out.State, ShouldEqual, booking.Submitted)
				So(f.State(), ShouldEqual, booking.Submitted)
				So(out.Request, ShouldNotBeNil)
				So(out.Request.ID, ShouldNotBeEmpty)
				So(out.Request.Draft.RequesterName, ShouldEqual, "Ada")
				So(out.Request.RequesterEmail, ShouldEqual, "ada@example.com")
				So(sub.calls(), ShouldEqual, 1)
				var draft model.BookingDraft
				So(errors.Is(store.Get(ctx, device, devicestore.KeyPendingBooking, &draft), devicestore.ErrNotFound), ShouldBeTrue)
			})

			Convey("Then a terminal flow resets to Idle", func() {
				f.Reset()
				So(f.State(), ShouldEqual, booking.Idle)
			})
		})

		Convey("When the submitter fails", func() {
			sub.err = errors.New("broker down")
			user := model.LocalOnly(model.CachedUser{Email: "ada@example.com"})
			f := booking.NewFlow(guitar, resolver{user: user, ok: true}, store, sub)
			So(f.Draft("Ada", "ada@example.com", "2026-11-02"), ShouldBeNil)
			_, err := f.Submit(ctx, device, "", "")

			Convey("Then SubmitFailed is returned and the draft stays editable", func() {
				So(errors.Is(err, booking.ErrSubmitFailed), ShouldBeTrue)
				So(f.State(), ShouldEqual, booking.Drafting)
			})
		})

		Convey("When a required field is blank", func() {
			f := booking.NewFlow(guitar, resolver{}, store, sub)
			So(f.Draft("Ada", "ada@example.com", "  "), ShouldBeNil)
			_, err := f.Submit(ctx, device, "", "")

			Convey("Then a validation error is returned before anything is stored", func() {
				So(errors.Is(err, validate.ErrValidation), ShouldBeTrue)
				var draft model.BookingDraft
				So(errors.Is(store.Get(ctx, device, devicestore.KeyPendingBooking, &draft), devicestore.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When submit is called without a draft", func() {
			f := booking.NewFlow(guitar, resolver{}, store, sub)
			_, err := f.Submit(ctx, device, "", "")
			Convey("Then the state machine rejects it", func() {
				So(errors.Is(err, booking.ErrInvalidState), ShouldBeTrue)
			})
		})
	})
}

func TestDelaySubmitterHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := booking.DelaySubmitter{Delay: time.Hour}.Submit(ctx, model.BookingRequest{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := (booking.DelaySubmitter{Delay: time.Millisecond}).Submit(context.Background(), model.BookingRequest{}); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

type capturePublisher struct{ got []queue.BookingRequestedEvent }

func (p *capturePublisher) PublishBookingRequested(_ context.Context, ev queue.BookingRequestedEvent) error {
	p.got = append(p.got, ev)
	return nil
}

func TestQueueSubmitterPublishesEvent(t *testing.T) {
	pub := &capturePublisher{}
	req := model.BookingRequest{
		ID: "b-1", SkillID: 1, SkillName: guitar.Name, ProviderName: guitar.ProviderName,
		Draft:       model.BookingDraft{RequesterName: "Ada", RequesterEmail: "ada@example.com", PreferredDate: "2026-11-02"},
		RequestedAt: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC),
	}
	if err := (booking.QueueSubmitter{Publisher: pub}).Submit(context.Background(), req); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(pub.got) != 1 {
		t.Fatalf("expected one event, got %d", len(pub.got))
	}
	ev := pub.got[0]
	if ev.BookingID != "b-1" || ev.RequesterName != "Ada" || ev.RequestedAt != "2026-10-17T09:00:00Z" {
		t.Fatalf("unexpected event %+v", ev)
	}
}
