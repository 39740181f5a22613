package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "os"
    "path/filepath"
    "sync"
    "time"
)

// FileLog appends one line per message to a file, creating the directory
// on first use.
type FileLog struct {
    Path string
    mu   sync.Mutex
}

func (l *FileLog) append(line string) error {
    l.mu.Lock()
    defer l.mu.Unlock()
    if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(l.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// BookingLog returns a Handler that records booking requests in l.
func BookingLog(l *FileLog) Handler {
    return func(body []byte) error {
        var ev BookingRequestedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        return l.append(FormatBookingLine(ev))
    }
}

// FormatBookingLine renders a booking event as a single log line.
func FormatBookingLine(ev BookingRequestedEvent) string {
    return fmt.Sprintf("[%s] Booking requested | booking_id=%s | skill_id=%d | skill=%q | provider=%q | requester=%q <%s> | date=%s\n",
        ev.RequestedAt, ev.BookingID, ev.SkillID, ev.SkillName, ev.ProviderName, ev.RequesterName, ev.RequesterEmail, ev.PreferredDate)
}

// ResetOutbox returns a Handler that writes reset mails to l instead of
// sending them.  It stands in for a mail relay in development.
func ResetOutbox(l *FileLog) Handler {
    return func(body []byte) error {
        var ev PasswordResetEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        if ev.Email == "" || ev.Token == "" {
            return fmt.Errorf("reset event %s: missing email or token", ev.EventID)
        }
        return l.append(formatResetLine(ev))
    }
}

func formatResetLine(ev PasswordResetEvent) string {
    return fmt.Sprintf("to=%s | expires=%s | token=%s\n", ev.Email, ev.ExpiresAt, ev.Token)
}

// OutboxMailer writes reset mails straight to a FileLog.  It is used when
// no broker is configured.
type OutboxMailer struct {
    Log *FileLog
}

func (m OutboxMailer) SendReset(_ context.Context, email, token string, expiresAt time.Time) error {
    return m.Log.append(formatResetLine(PasswordResetEvent{
        Email:     email,
        Token:     token,
        ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
    }))
}
