package domain

import (
	"time"

	"github.com/perseusdefend/perseus/pkg/idx"
)

type DemoRequestStatus string

const (
	DemoPending   DemoRequestStatus = "PENDING"
	DemoApproved  DemoRequestStatus = "APPROVED"
	DemoDismissed DemoRequestStatus = "DISMISSED"
)

// DemoRequest records a prospect asking for demo access.
type DemoRequest struct {
	ID        idx.ID
	Email     string
	Status    DemoRequestStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
