package model

import "time"

// BookingDraft holds the fields of a booking form that has not been
// submitted yet.  It is what survives an authentication detour, so the JSON
// shape is the one written to the device store under "pending_booking".
type BookingDraft struct {
    RequesterName   string `json:"name"`
    RequesterEmail  string `json:"email"`
    PreferredDate   string `json:"date"`
    TargetSkillName string `json:"skillName"`
}

// BookingRequest is a submitted draft bound to a catalog offering and the
// session that sent it.
type BookingRequest struct {
    ID             string       `json:"id"`
    SkillID        int          `json:"skill_id"`
    SkillName      string       `json:"skill_name"`
    ProviderName   string       `json:"provider_name"`
    ProviderEmail  string       `json:"provider_email"`
    Draft          BookingDraft `json:"draft"`
    RequesterUID   string       `json:"requester_uid,omitempty"`
    RequesterEmail string       `json:"requester_email"`
    RequestedAt    time.Time    `json:"requested_at"`
}
