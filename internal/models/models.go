// Package models holds the attendee records shared by the store, the
// webhook pipeline and the admin API.
package models

import "time"

// ApprovalStatus is the admin-controlled gate on an attendee.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

// Valid reports whether s is a known approval status.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// AttendeeType distinguishes primary registrants from their guests.
type AttendeeType string

const (
	TypeRSVP  AttendeeType = "rsvp"
	TypeGuest AttendeeType = "guest"
)

// ReplyStatus is the attendee's own yes/no answer to a reminder.
type ReplyStatus string

const (
	ReplyYes ReplyStatus = "yes"
	ReplyNo  ReplyStatus = "no"
)

// RSVP is a primary registrant as submitted through the form.
type RSVP struct {
	ID              string         `json:"id" db:"id" firestore:"-"`
	FullName        string         `json:"full_name" db:"full_name" firestore:"full_name"`
	Phone           string         `json:"phone" db:"phone" firestore:"phone"`
	Status          ApprovalStatus `json:"status" db:"status" firestore:"status"`
	ReplyStatus     *ReplyStatus   `json:"reply_status,omitempty" db:"reply_status" firestore:"reply_status"`
	ReplyReceivedAt *time.Time     `json:"reply_received_at,omitempty" db:"reply_received_at" firestore:"reply_received_at"`
	ReplyMessage    *string        `json:"reply_message,omitempty" db:"reply_message" firestore:"reply_message"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at" firestore:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at" firestore:"updated_at"`

	Guests []Guest `json:"guests" db:"-" firestore:"-"`
}

// Guest is a person brought along by a registrant.
type Guest struct {
	ID              string         `json:"id" db:"id" firestore:"-"`
	RSVPID          string         `json:"rsvp_id" db:"rsvp_id" firestore:"rsvp_id"`
	Name            string         `json:"name" db:"name" firestore:"name"`
	Phone           string         `json:"phone" db:"phone" firestore:"phone"`
	Status          ApprovalStatus `json:"status" db:"status" firestore:"status"`
	ReplyStatus     *ReplyStatus   `json:"reply_status,omitempty" db:"reply_status" firestore:"reply_status"`
	ReplyReceivedAt *time.Time     `json:"reply_received_at,omitempty" db:"reply_received_at" firestore:"reply_received_at"`
	ReplyMessage    *string        `json:"reply_message,omitempty" db:"reply_message" firestore:"reply_message"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at" firestore:"created_at"`
}

// Attendee is the uniform view over a registrant or a guest used when
// matching phone numbers and sending messages. RSVPID is the owning
// registrant for guests and empty for registrants.
type Attendee struct {
	Type   AttendeeType   `json:"type"`
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Phone  string         `json:"phone"`
	RSVPID string         `json:"rsvp_id,omitempty"`
	Status ApprovalStatus `json:"status"`
}

// Attendee returns the registrant as an Attendee.
func (r RSVP) Attendee() Attendee {
	return Attendee{Type: TypeRSVP, ID: r.ID, Name: r.FullName, Phone: r.Phone, Status: r.Status}
}

// Attendee returns the guest as an Attendee.
func (g Guest) Attendee() Attendee {
	return Attendee{Type: TypeGuest, ID: g.ID, Name: g.Name, Phone: g.Phone, RSVPID: g.RSVPID, Status: g.Status}
}

// Reply is a classified answer ready to be stored on an attendee.
type Reply struct {
	Status     ReplyStatus
	ReceivedAt time.Time
	Message    string
}
