package notification

import (
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	TypeCorrectionRequested NotificationType = "attendance_correction_requested"
	TypeCorrectionApproved  NotificationType = "attendance_correction_approved"
	TypeCorrectionRejected  NotificationType = "attendance_correction_rejected"
	TypeOpenShiftReminder   NotificationType = "attendance_open_shift_reminder"
)

// Notification represents a stored notification
type Notification struct {
	ID          string
	CompanyID   string
	RecipientID string
	SenderID    *string
	Type        NotificationType
	Title       string
	Message     string
	Link        string
	Data        map[string]interface{}
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}

// Outbound is a message the attendance engine asks to deliver. Producing one
// has no side effects; a Sink delivers it.
type Outbound struct {
	CompanyID   string                 `json:"company_id"`
	RecipientID string                 `json:"recipient_id"`
	SenderID    *string                `json:"sender_id,omitempty"`
	Type        NotificationType       `json:"type"`
	Title       string                 `json:"title"`
	Message     string                 `json:"message"`
	Link        string                 `json:"link,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// To returns a copy of o addressed to recipientID.
func (o Outbound) To(recipientID string) Outbound {
	o.RecipientID = recipientID
	return o
}
