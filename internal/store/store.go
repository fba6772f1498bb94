// Package store persists users and orders.
//
// Stores return ErrNotFound and ErrConflict instead of driver errors. Every
// read-mutate-write of a user goes through UpdateByPhone or UpdateByID, which
// hold a row lock (or the in-memory equivalent) for the duration of the
// callback.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"netchi-api-go/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

// Lookup is the outcome of finding a user by a unique key: either Found with
// a user, or not found. It is never a half-initialized record.
type Lookup struct {
	User  *models.User
	Found bool
}

func Found(u *models.User) Lookup { return Lookup{User: u, Found: true} }

func NotFound() Lookup { return Lookup{} }

// Mutator edits a locked user record. Returning nil persists the record;
// returning an error aborts without writing and the error is passed through.
type Mutator func(u *models.User) error

type UserStore interface {
	FindByUsername(ctx context.Context, username string) (Lookup, error)
	FindByPhone(ctx context.Context, phone string) (Lookup, error)
	FindByID(ctx context.Context, id uuid.UUID) (Lookup, error)
	// Create inserts u, failing with ErrConflict when the username or phone
	// is already taken.
	Create(ctx context.Context, u *models.User) error
	// UpdateByPhone runs fn on the locked record and saves it. The saved
	// record is returned. ErrNotFound when no user has the phone.
	UpdateByPhone(ctx context.Context, phone string, fn Mutator) (*models.User, error)
	UpdateByID(ctx context.Context, id uuid.UUID, fn Mutator) (*models.User, error)
}

type OrderStore interface {
	ListOrders(ctx context.Context) ([]models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	CreateOrder(ctx context.Context, o *models.Order) error
	SaveOrder(ctx context.Context, o *models.Order) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error
}
