package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/bizadmin/internal/models"
	pkgdb "github.com/Skotchmaster/bizadmin/pkg/db"
)

type UserFilter struct {
	Skip       int
	Limit      int
	Search     string
	IDs        []string
	ActiveOnly bool
}

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	if err := r.DB.WithContext(ctx).Create(u).Error; err != nil {
		if pkgdb.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *GormRepo) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) ListUsers(ctx context.Context, f UserFilter) ([]models.User, error) {
	q := r.DB.WithContext(ctx).Model(&models.User{})
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if f.IDs != nil {
		q = q.Where("id IN ?", f.IDs)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		q = q.Where(`(LOWER(email) LIKE ? ESCAPE '\' OR LOWER(full_name) LIKE ? ESCAPE '\')`, p, p)
	}

	items := make([]models.User, 0, f.Limit)
	if err := q.Order("created_at ASC").Order("id ASC").Offset(f.Skip).Limit(f.Limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateUser applies fields by column name so false and empty values are written.
func (r *GormRepo) UpdateUser(ctx context.Context, id string, fields map[string]any) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&user).Error; err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&user).Updates(fields).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&user).Error
	})
	if err != nil {
		if pkgdb.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return &user, nil
}
