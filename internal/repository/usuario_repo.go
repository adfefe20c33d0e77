package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gocg-permutas/internal/model"
	"gocg-permutas/pkg/changefeed"
)

// UsuarioRepository registered identity data access.
type UsuarioRepository interface {
	Create(ctx context.Context, u *model.Usuario) error
	GetByRG(ctx context.Context, rg string) (*model.Usuario, error)
	UpdatePassword(ctx context.Context, rg, hash string) error
	Upsert(ctx context.Context, u *model.Usuario) error
}

type usuarioRepo struct {
	db *gorm.DB
	n  *notifier
}

// NewUsuarioRepo creates a UsuarioRepository.
func NewUsuarioRepo(db *gorm.DB, n *notifier) UsuarioRepository {
	return &usuarioRepo{db: db, n: n}
}

func (r *usuarioRepo) Create(ctx context.Context, u *model.Usuario) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return err
	}
	r.n.emit(ctx, changefeed.CollectionUsuarios, changefeed.OpCreate, u.RG)
	return nil
}

func (r *usuarioRepo) GetByRG(ctx context.Context, rg string) (*model.Usuario, error) {
	var u model.Usuario
	if err := r.db.WithContext(ctx).Where("rg = ?", rg).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *usuarioRepo) UpdatePassword(ctx context.Context, rg, hash string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Usuario{}).
		Where("rg = ?", rg).
		Updates(map[string]interface{}{
			"password_hash": hash,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.n.emit(ctx, changefeed.CollectionUsuarios, changefeed.OpUpdate, rg)
	return nil
}

// Upsert creates the usuario or replaces its password, role and snapshot.
func (r *usuarioRepo) Upsert(ctx context.Context, u *model.Usuario) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "rg"}},
			DoUpdates: clause.AssignmentColumns([]string{"password_hash", "role", "grad", "quadro", "nome", "unidade", "updated_at"}),
		}).
		Create(u).Error
	if err != nil {
		return err
	}
	r.n.emit(ctx, changefeed.CollectionUsuarios, changefeed.OpUpdate, u.RG)
	return nil
}
