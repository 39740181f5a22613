// Package devicestore is the durable per-device key/value store.  Each
// client device gets its own namespace in Redis, standing in for the
// browser storage a single-page client would use.
package devicestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Keys written by the service.  Absence of any of them is a normal state.
const (
	KeyUser              = "skillswap_user"
	KeyPendingBooking    = "pending_booking"
	KeyPostLoginRedirect = "post_login_redirect"
	KeyResetEmail        = "reset_email"
	KeyFederatedState    = "federated_state"
)

// ErrNotFound is returned when a key holds no value for the device.
var ErrNotFound = errors.New("devicestore: key not found")

// ErrNoDevice is returned when the device id is empty.
var ErrNoDevice = errors.New("devicestore: device id required")

// Store keeps JSON values under "<prefix>:<device>:<key>".  A zero TTL keeps
// values until they are deleted.
type Store struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// New returns a Store backed by rdb.
func New(rdb *redis.Client, prefix string, ttl time.Duration) *Store {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "device"
	}
	return &Store{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *Store) key(device, name string) (string, error) {
	device = strings.TrimSpace(device)
	if device == "" {
		return "", ErrNoDevice
	}
	return s.prefix + ":" + device + ":" + name, nil
}

// Get decodes the value stored under name into dst.
func (s *Store) Get(ctx context.Context, device, name string, dst any) error {
	k, err := s.key(device, name)
	if err != nil {
		return err
	}
	b, err := s.rdb.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("devicestore get %s: %w", name, err)
	}
	return decode(name, b, dst)
}

// Set stores v as JSON under name, replacing any previous value.
func (s *Store) Set(ctx context.Context, device, name string, v any) error {
	k, err := s.key(device, name)
	if err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("devicestore encode %s: %w", name, err)
	}
	if err := s.rdb.Set(ctx, k, b, s.ttl).Err(); err != nil {
		return fmt.Errorf("devicestore set %s: %w", name, err)
	}
	return nil
}

// Delete removes name.  Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, device, name string) error {
	k, err := s.key(device, name)
	if err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, k).Err(); err != nil {
		return fmt.Errorf("devicestore delete %s: %w", name, err)
	}
	return nil
}

// Take reads and removes name in one step so a value is consumed at most
// once.
func (s *Store) Take(ctx context.Context, device, name string, dst any) error {
	k, err := s.key(device, name)
	if err != nil {
		return err
	}
	b, err := s.rdb.GetDel(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("devicestore take %s: %w", name, err)
	}
	return decode(name, b, dst)
}

func decode(name string, b []byte, dst any) error {
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("devicestore decode %s: %w", name, err)
	}
	return nil
}
