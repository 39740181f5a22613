package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/iliyamo/skillswap/internal/devicestore"
	"github.com/iliyamo/skillswap/internal/identity/identitytest"
	"github.com/iliyamo/skillswap/internal/model"
	"github.com/iliyamo/skillswap/internal/session"
	"github.com/iliyamo/skillswap/internal/validate"
)

const device = "device-1"

func strptr(s string) *string { return &s }

func newEnv(t *testing.T) (*session.Reconciler, *identitytest.Fixture, *devicestore.Store, *miniredis.Miniredis) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := devicestore.New(rdb, "test", 0)
	f := identitytest.New()
	return session.NewReconciler(f.Provider, store, nil), f, store, srv
}

func cached(store *devicestore.Store) (model.CachedUser, error) {
	var rec model.CachedUser
	err := store.Get(context.Background(), device, devicestore.KeyUser, &rec)
	return rec, err
}

func TestResolve(t *testing.T) {
	Convey("Given a reconciler over a provider and a device store", t, func() {
		r, f, store, _ := newEnv(t)
		ctx := context.Background()

		Convey("When nothing is known about the device", func() {
			_, ok, err := r.Resolve(ctx, device, "")
			Convey("Then the session is absent without error", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the provider reports a live session", func() {
			cred := f.MustCreate(t, "ada@example.com", "Abcdef")
			So(store.Set(ctx, device, devicestore.KeyUser, model.CachedUser{Email: "stale@example.com"}), ShouldBeNil)

			u, ok, err := r.Resolve(ctx, device, cred.Token)
			Convey("Then the provider wins over the cache", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(u.Kind, ShouldEqual, model.SessionFederated)
				So(u.Email, ShouldEqual, "ada@example.com")
				So(u.UID, ShouldNotBeEmpty)
			})
		})

		Convey("When only a cached record exists", func() {
			So(store.Set(ctx, device, devicestore.KeyUser, model.CachedUser{Email: "bea@example.com", DisplayName: "Bea"}), ShouldBeNil)

			u, ok, err := r.Resolve(ctx, device, "expired-token")
			Convey("Then the local-only variant is returned", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(u.Kind, ShouldEqual, model.SessionLocalOnly)
				So(u.UID, ShouldBeEmpty)
				So(u.DisplayName, ShouldEqual, "Bea")
			})
		})

		Convey("When the provider is unreachable", func() {
			cred := f.MustCreate(t, "ada@example.com", "Abcdef")
			So(r.Remember(ctx, device, session.FromCredential(cred)), ShouldBeNil)
			f.Sessions.Err = errors.New("connection refused")

			u, ok, err := r.Resolve(ctx, device, cred.Token)
			Convey("Then the cached record is used", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(u.Kind, ShouldEqual, model.SessionLocalOnly)
				So(u.Email, ShouldEqual, "ada@example.com")
			})
		})
	})
}

func TestResolveStoreDown(t *testing.T) {
	r, _, _, srv := newEnv(t)
	srv.Close()
	if _, _, err := r.Resolve(context.Background(), device, ""); err == nil {
		t.Fatal("expected an error when the device store is unreachable")
	}
}

func TestApplyProfileEdit(t *testing.T) {
	Convey("Given a signed-in device", t, func() {
		r, f, store, _ := newEnv(t)
		ctx := context.Background()

		Convey("When the display name is only whitespace", func() {
			current := model.LocalOnly(model.CachedUser{Email: "bea@example.com", DisplayName: "Bea"})
			So(r.Remember(ctx, device, current), ShouldBeNil)

			got, err := r.ApplyProfileEdit(ctx, device, "", current, session.ProfileUpdate{DisplayName: "   "})
			Convey("Then a validation error is returned and the cache is unchanged", func() {
				So(errors.Is(err, validate.ErrValidation), ShouldBeTrue)
				So(validate.Message(err), ShouldEqual, "Please enter a display name")
				So(got, ShouldResemble, current)
				rec, err := cached(store)
				So(err, ShouldBeNil)
				So(rec.DisplayName, ShouldEqual, "Bea")
			})
		})

		Convey("When a local-only user edits the profile", func() {
			current := model.LocalOnly(model.CachedUser{Email: "bea@example.com", DisplayName: "Bea", PhotoURL: strptr("https://img/old.png")})
			So(r.Remember(ctx, device, current), ShouldBeNil)

			got, err := r.ApplyProfileEdit(ctx, device, "", current, session.ProfileUpdate{DisplayName: "  Beatrix ", PhotoURL: strptr("  ")})
			Convey("Then the trimmed name is cached and a blank photo is removed", func() {
				So(err, ShouldBeNil)
				So(got.DisplayName, ShouldEqual, "Beatrix")
				So(got.PhotoURL, ShouldBeNil)
				rec, err := cached(store)
				So(err, ShouldBeNil)
				So(rec.DisplayName, ShouldEqual, "Beatrix")
				So(rec.PhotoURL, ShouldBeNil)
				So(session.AvatarURL(got), ShouldEqual, "https://ui-avatars.com/api/?name=Beatrix")
			})
		})

		Convey("When an omitted photo is left out of the edit", func() {
			current := model.LocalOnly(model.CachedUser{Email: "bea@example.com", PhotoURL: strptr("https://img/keep.png")})
			got, err := r.ApplyProfileEdit(ctx, device, "", current, session.ProfileUpdate{DisplayName: "Bea"})
			Convey("Then the current photo is kept", func() {
				So(err, ShouldBeNil)
				So(*got.PhotoURL, ShouldEqual, "https://img/keep.png")
			})
		})

		Convey("When a federated user edits the profile", func() {
			cred := f.MustCreate(t, "ada@example.com", "Abcdef")
			current := session.FromCredential(cred)
			So(r.Remember(ctx, device, current), ShouldBeNil)

			got, err := r.ApplyProfileEdit(ctx, device, cred.Token, current, session.ProfileUpdate{
				DisplayName: "Ada", PhotoURL: strptr("https://img/ada.png"),
			})
			Convey("Then the provider is updated and mirrored into the cache", func() {
				So(err, ShouldBeNil)
				So(got.Kind, ShouldEqual, model.SessionFederated)
				So(got.DisplayName, ShouldEqual, "Ada")
				live, err := f.Provider.CurrentUser(ctx, cred.Token)
				So(err, ShouldBeNil)
				So(live.DisplayName, ShouldEqual, "Ada")
				rec, err := cached(store)
				So(err, ShouldBeNil)
				So(rec.DisplayName, ShouldEqual, "Ada")
				So(*rec.PhotoURL, ShouldEqual, "https://img/ada.png")
			})
		})

		Convey("When the provider rejects a federated edit", func() {
			cred := f.MustCreate(t, "ada@example.com", "Abcdef")
			current := session.FromCredential(cred)
			So(r.Remember(ctx, device, current), ShouldBeNil)
			f.Users.UpdateErr = errors.New("write timeout")

			got, err := r.ApplyProfileEdit(ctx, device, cred.Token, current, session.ProfileUpdate{DisplayName: "Ada"})
			Convey("Then UpdateFailed is returned and the cache is untouched", func() {
				So(errors.Is(err, session.ErrUpdateFailed), ShouldBeTrue)
				So(got, ShouldResemble, current)
				rec, err := cached(store)
				So(err, ShouldBeNil)
				So(rec.DisplayName, ShouldBeEmpty)
			})
		})
	})
}

func TestForget(t *testing.T) {
	r, _, store, _ := newEnv(t)
	ctx := context.Background()
	_ = r.Remember(ctx, device, model.LocalOnly(model.CachedUser{Email: "bea@example.com"}))
	if err := r.Forget(ctx, device); err != nil {
		t.Fatalf("forget: %v", err)
	}
	if _, err := cached(store); !errors.Is(err, devicestore.ErrNotFound) {
		t.Fatalf("expected cache to be cleared, got %v", err)
	}
}

func TestAvatarURLFallsBackToEmail(t *testing.T) {
	u := model.LocalOnly(model.CachedUser{Email: "bea@example.com"})
	if got := session.AvatarURL(u); got != "https://ui-avatars.com/api/?name=bea%40example.com" {
		t.Fatalf("unexpected avatar %q", got)
	}
}
