package queue

import (
    "context"
    "encoding/json"
    "os"
    "path/filepath"
    "strings"
    "testing"
    "time"
)

func TestBookingLogAppendsLines(t *testing.T) {
    path := filepath.Join(t.TempDir(), "logs", "booking.log")
    handle := BookingLog(&FileLog{Path: path})

    ev := BookingRequestedEvent{
        BookingID: "b-1", SkillID: 1, SkillName: "Guitar Basics", ProviderName: "Alex Rivera",
        RequesterName: "Ada", RequesterEmail: "ada@example.com", PreferredDate: "2026-11-02",
        RequestedAt: "2026-10-17T09:00:00Z",
    }
    body, _ := json.Marshal(ev)
    for i := 0; i < 2; i++ {
        if err := handle(body); err != nil {
            t.Fatalf("handle: %v", err)
        }
    }

    data, err := os.ReadFile(path)
    if err != nil {
        t.Fatalf("read log: %v", err)
    }
    lines := strings.Split(strings.TrimSpace(string(data)), "\n")
    if len(lines) != 2 {
        t.Fatalf("expected 2 lines, got %d: %q", len(lines), data)
    }
    want := `[2026-10-17T09:00:00Z] Booking requested | booking_id=b-1 | skill_id=1 | skill="Guitar Basics" | provider="Alex Rivera" | requester="Ada" <ada@example.com> | date=2026-11-02`
    if lines[0] != want {
        t.Fatalf("line = %q\nwant   %q", lines[0], want)
    }
}

func TestHandlersRejectBadPayloads(t *testing.T) {
    l := &FileLog{Path: filepath.Join(t.TempDir(), "out.log")}
    if err := BookingLog(l)([]byte("{")); err == nil {
        t.Fatal("expected malformed booking payload to be rejected")
    }
    if err := ResetOutbox(l)([]byte(`{"event_id":"x"}`)); err == nil {
        t.Fatal("expected reset event without token to be rejected")
    }
    if err := ResetOutbox(l)([]byte(`{"email":"a@b.c","token":"t","expires_at":"soon"}`)); err != nil {
        t.Fatalf("valid reset event: %v", err)
    }
}

func TestOutboxMailerMatchesConsumerFormat(t *testing.T) {
    dir := t.TempDir()
    direct := &FileLog{Path: filepath.Join(dir, "direct.log")}
    viaQueue := &FileLog{Path: filepath.Join(dir, "queue.log")}
    exp := time.Date(2026, 10, 17, 10, 30, 0, 0, time.UTC)

    if err := (OutboxMailer{Log: direct}).SendReset(context.Background(), "ada@example.com", "tok", exp); err != nil {
        t.Fatalf("send: %v", err)
    }
    body, _ := json.Marshal(PasswordResetEvent{EventID: "e", Email: "ada@example.com", Token: "tok", ExpiresAt: exp.Format(time.RFC3339)})
    if err := ResetOutbox(viaQueue)(body); err != nil {
        t.Fatalf("consume: %v", err)
    }

    a, _ := os.ReadFile(direct.Path)
    b, _ := os.ReadFile(viaQueue.Path)
    if string(a) != string(b) || !strings.Contains(string(a), "to=ada@example.com") {
        t.Fatalf("direct %q, queued %q", a, b)
    }
}
