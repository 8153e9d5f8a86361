package domain

import (
	"time"

	"github.com/perseusdefend/perseus/pkg/idx"
)

type ContactStatus string

const (
	ContactNew       ContactStatus = "NEW"
	ContactInReview  ContactStatus = "IN_REVIEW"
	ContactResolved  ContactStatus = "RESOLVED"
	ContactDismissed ContactStatus = "DISMISSED"
)

func (s ContactStatus) Valid() bool {
	switch s {
	case ContactNew, ContactInReview, ContactResolved, ContactDismissed:
		return true
	}
	return false
}

// Contact is a message submitted through the public contact form.
type Contact struct {
	ID          idx.ID
	FirstName   string
	LastName    string
	Email       string
	CompanyName string
	PhoneNumber string
	Message     string
	Status      ContactStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
