package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"netchi-api-go/internal/models"
)

// GormStore implements UserStore and OrderStore on PostgreSQL.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) find(ctx context.Context, query string, arg any) (Lookup, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where(query, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(), nil
	}
	if err != nil {
		return Lookup{}, fmt.Errorf("find user: %w", err)
	}
	return Found(&u), nil
}

func (s *GormStore) FindByUsername(ctx context.Context, username string) (Lookup, error) {
	return s.find(ctx, "user_name = ?", username)
}

func (s *GormStore) FindByPhone(ctx context.Context, phone string) (Lookup, error) {
	return s.find(ctx, "phone_number = ?", phone)
}

func (s *GormStore) FindByID(ctx context.Context, id uuid.UUID) (Lookup, error) {
	return s.find(ctx, "id = ?", id)
}

func (s *GormStore) Create(ctx context.Context, u *models.User) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.User{}).Where("user_name = ?", u.UserName)
		if u.PhoneNumber != nil {
			q = q.Or("phone_number = ?", *u.PhoneNumber)
		}
		var n int64
		if err := q.Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrConflict
		}
		return tx.Create(u).Error
	})
	switch {
	case errors.Is(err, ErrConflict), errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	case err != nil:
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *GormStore) update(ctx context.Context, query string, arg any, fn Mutator) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where(query, arg).First(&u).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := fn(&u); err != nil {
			return err
		}
		return tx.Save(&u).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *GormStore) UpdateByPhone(ctx context.Context, phone string, fn Mutator) (*models.User, error) {
	return s.update(ctx, "phone_number = ?", phone, fn)
}

func (s *GormStore) UpdateByID(ctx context.Context, id uuid.UUID, fn Mutator) (*models.User, error) {
	return s.update(ctx, "id = ?", id, fn)
}

func (s *GormStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *GormStore) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	return orders, nil
}

func (s *GormStore) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

func (s *GormStore) CreateOrder(ctx context.Context, o *models.Order) error {
	if err := s.db.WithContext(ctx).Omit("User").Create(o).Error; err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (s *GormStore) SaveOrder(ctx context.Context, o *models.Order) error {
	if err := s.db.WithContext(ctx).Omit("User").Save(o).Error; err != nil {
		return fmt.Errorf("save order: %w", err)
	}
	return nil
}

func (s *GormStore) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Order{})
	if res.Error != nil {
		return fmt.Errorf("delete order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
