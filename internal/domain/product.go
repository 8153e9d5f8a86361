package domain

import (
	"time"

	"github.com/perseusdefend/perseus/pkg/idx"
)

type Product struct {
	ID          idx.ID
	Name        string
	Description string
	Features    []string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductAssignment links an account to a product it may use.
type ProductAssignment struct {
	AccountID idx.ID
	ProductID idx.ID
	CreatedAt time.Time
}
