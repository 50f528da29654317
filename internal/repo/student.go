package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/bizadmin/internal/models"
	pkgdb "github.com/Skotchmaster/bizadmin/pkg/db"
)

type StudentFilter struct {
	Skip   int
	Limit  int
	Status models.StudentStatus
	Search string
}

type StatusCount struct {
	Status models.StudentStatus
	Count  int64
}

func (r *GormRepo) CreateStudent(ctx context.Context, s *models.Student) error {
	if err := r.DB.WithContext(ctx).Create(s).Error; err != nil {
		if pkgdb.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *GormRepo) StudentEmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Student{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	var s models.Student
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormRepo) ListStudents(ctx context.Context, f StudentFilter) ([]models.Student, error) {
	q := r.DB.WithContext(ctx).Model(&models.Student{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		q = q.Where(`(LOWER(full_name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\' OR LOWER(phone) LIKE ? ESCAPE '\')`, p, p, p)
	}

	items := make([]models.Student, 0, f.Limit)
	if err := q.Order("created_at DESC").Order("id ASC").Offset(f.Skip).Limit(f.Limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) SaveStudent(ctx context.Context, s *models.Student) error {
	return r.DB.WithContext(ctx).Save(s).Error
}

// UpdateStudent locks the row, lets apply change it and saves it in one transaction.
// An error from apply aborts without writing.
func (r *GormRepo) UpdateStudent(ctx context.Context, id string, apply func(*models.Student) error) (*models.Student, error) {
	var st models.Student
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&st).Error; err != nil {
			return err
		}
		if err := apply(&st); err != nil {
			return err
		}
		return tx.Save(&st).Error
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *GormRepo) DeleteStudent(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Student{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) CountStudentsByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.DB.WithContext(ctx).Model(&models.Student{}).
		Select("status, COUNT(id) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *GormRepo) CountStudentsSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Student{}).Where("created_at >= ?", since.UTC()).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
