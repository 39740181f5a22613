package devicestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type draft struct {
	Name string `json:"name"`
}

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, "test", ttl), srv
}

func TestStoreSetGetDelete(t *testing.T) {
	s, srv := newTestStore(t, 0)
	ctx := context.Background()

	if err := s.Set(ctx, "dev-1", KeyPendingBooking, draft{Name: "Ada"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !srv.Exists("test:dev-1:pending_booking") {
		t.Fatalf("expected namespaced key to exist, keys=%v", srv.Keys())
	}
	var got draft
	if err := s.Get(ctx, "dev-1", KeyPendingBooking, &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Ada" {
		t.Fatalf("unexpected value: %+v", got)
	}
	if err := s.Get(ctx, "dev-2", KeyPendingBooking, &got); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected other device to be isolated, got %v", err)
	}
	if err := s.Delete(ctx, "dev-1", KeyPendingBooking); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Get(ctx, "dev-1", KeyPendingBooking, &got); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := s.Delete(ctx, "dev-1", KeyPendingBooking); err != nil {
		t.Fatalf("deleting a missing key should succeed: %v", err)
	}
}

func TestStoreTakeConsumesOnce(t *testing.T) {
	s, _ := newTestStore(t, 0)
	ctx := context.Background()

	if err := s.Set(ctx, "dev-1", KeyPostLoginRedirect, "/skill/3"); err != nil {
		t.Fatalf("set: %v", err)
	}
	var redirect string
	if err := s.Take(ctx, "dev-1", KeyPostLoginRedirect, &redirect); err != nil {
		t.Fatalf("take: %v", err)
	}
	if redirect != "/skill/3" {
		t.Fatalf("unexpected redirect %q", redirect)
	}
	if err := s.Take(ctx, "dev-1", KeyPostLoginRedirect, &redirect); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected second take to miss, got %v", err)
	}
}

func TestStoreLastWriteWins(t *testing.T) {
	s, _ := newTestStore(t, 0)
	ctx := context.Background()

	_ = s.Set(ctx, "dev-1", KeyPendingBooking, draft{Name: "first"})
	_ = s.Set(ctx, "dev-1", KeyPendingBooking, draft{Name: "second"})
	var got draft
	if err := s.Get(ctx, "dev-1", KeyPendingBooking, &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "second" {
		t.Fatalf("expected last write to win, got %q", got.Name)
	}
}

func TestStoreTTL(t *testing.T) {
	s, srv := newTestStore(t, time.Hour)
	ctx := context.Background()

	if err := s.Set(ctx, "dev-1", KeyResetEmail, "a@b.c"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl := srv.TTL("test:dev-1:reset_email"); ttl != time.Hour {
		t.Fatalf("expected ttl of one hour, got %v", ttl)
	}
	srv.FastForward(2 * time.Hour)
	var email string
	if err := s.Get(ctx, "dev-1", KeyResetEmail, &email); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestStoreRequiresDevice(t *testing.T) {
	s, _ := newTestStore(t, 0)
	if err := s.Set(context.Background(), " ", KeyUser, "x"); !errors.Is(err, ErrNoDevice) {
		t.Fatalf("expected ErrNoDevice, got %v", err)
	}
}

func TestStoreRedisDown(t *testing.T) {
	s, srv := newTestStore(t, 0)
	srv.Close()
	var v string
	err := s.Get(context.Background(), "dev-1", KeyUser, &v)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected transport error, got %v", err)
	}
}
