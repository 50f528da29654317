package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/bizadmin/internal/models"
	"github.com/Skotchmaster/bizadmin/internal/principal"
)

var ErrEmailTaken = errors.New("email already registered")

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) Migrate(ctx context.Context) error {
	return r.DB.WithContext(ctx).AutoMigrate(models.All()...)
}

func (r *GormRepo) FindPrincipalByID(ctx context.Context, kind principal.Kind, id string) (*principal.Record, error) {
	return r.findPrincipal(ctx, kind, "id = ?", id)
}

func (r *GormRepo) FindPrincipalByEmail(ctx context.Context, kind principal.Kind, email string) (*principal.Record, error) {
	return r.findPrincipal(ctx, kind, "email = ?", email)
}

func (r *GormRepo) findPrincipal(ctx context.Context, kind principal.Kind, where string, arg string) (*principal.Record, error) {
	switch kind {
	case principal.KindUser:
		var u models.User
		if err := r.DB.WithContext(ctx).Where(where, arg).First(&u).Error; err != nil {
			return nil, notFound(err)
		}
		return u.Record(), nil
	case principal.KindStudent:
		var s models.Student
		if err := r.DB.WithContext(ctx).Where(where, arg).First(&s).Error; err != nil {
			return nil, notFound(err)
		}
		return s.Record(), nil
	default:
		return nil, fmt.Errorf("unknown principal kind %q", kind)
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return principal.ErrNotFound
	}
	return err
}

func likePattern(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return "%" + r.Replace(q) + "%"
}
