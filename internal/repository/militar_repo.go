package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gocg-permutas/internal/model"
	"gocg-permutas/pkg/changefeed"
)

// MilitarRepository roster data access.
type MilitarRepository interface {
	Create(ctx context.Context, m *model.Militar) error
	GetByRG(ctx context.Context, rg string) (*model.Militar, error)
	Update(ctx context.Context, m *model.Militar) error
	Upsert(ctx context.Context, m *model.Militar) error
	// BatchUpsert writes every militar in one transaction. The role tag of
	// existing entries is preserved.
	BatchUpsert(ctx context.Context, list []model.Militar) error
	Delete(ctx context.Context, rg string) error
	ListAll(ctx context.Context) ([]model.Militar, error)
}

var upsertMilitar = clause.OnConflict{
	Columns:   []clause.Column{{Name: "rg"}},
	DoUpdates: clause.AssignmentColumns([]string{"grad", "quadro", "nome", "unidade", "role", "updated_at", "updated_by"}),
}

var upsertRoster = clause.OnConflict{
	Columns:   []clause.Column{{Name: "rg"}},
	DoUpdates: clause.AssignmentColumns([]string{"grad", "quadro", "nome", "unidade", "updated_at", "updated_by"}),
}

type militarRepo struct {
	db *gorm.DB
	n  *notifier
}

// NewMilitarRepo creates a MilitarRepository.
func NewMilitarRepo(db *gorm.DB, n *notifier) MilitarRepository {
	return &militarRepo{db: db, n: n}
}

func (r *militarRepo) Create(ctx context.Context, m *model.Militar) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	r.n.emit(ctx, changefeed.CollectionMilitares, changefeed.OpCreate, m.RG)
	return nil
}

func (r *militarRepo) GetByRG(ctx context.Context, rg string) (*model.Militar, error) {
	var m model.Militar
	if err := r.db.WithContext(ctx).Where("rg = ?", rg).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// Update overwrites the roster fields of an existing militar. A nil Role
// leaves the stored role tag untouched.
func (r *militarRepo) Update(ctx context.Context, m *model.Militar) error {
	fields := map[string]interface{}{
		"grad":       m.Grad,
		"quadro":     m.Quadro,
		"nome":       m.Nome,
		"unidade":    m.Unidade,
		"updated_by": m.UpdatedBy,
	}
	if m.Role != nil {
		fields["role"] = *m.Role
	}
	result := r.db.WithContext(ctx).
		Model(&model.Militar{}).
		Where("rg = ?", m.RG).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.n.emit(ctx, changefeed.CollectionMilitares, changefeed.OpUpdate, m.RG)
	return nil
}

// Upsert creates the militar or overwrites an existing one with the same RG.
func (r *militarRepo) Upsert(ctx context.Context, m *model.Militar) error {
	err := r.db.WithContext(ctx).
		Clauses(upsertMilitar).
		Create(m).Error
	if err != nil {
		return err
	}
	r.n.emit(ctx, changefeed.CollectionMilitares, changefeed.OpUpdate, m.RG)
	return nil
}

func (r *militarRepo) BatchUpsert(ctx context.Context, list []model.Militar) error {
	if len(list) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(upsertRoster).CreateInBatches(&list, 200).Error
	})
	if err != nil {
		return err
	}

	rgs := make([]string, len(list))
	for i := range list {
		rgs[i] = list[i].RG
	}
	r.n.emit(ctx, changefeed.CollectionMilitares, changefeed.OpUpdate, rgs...)
	return nil
}

func (r *militarRepo) Delete(ctx context.Context, rg string) error {
	result := r.db.WithContext(ctx).Where("rg = ?", rg).Delete(&model.Militar{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.n.emit(ctx, changefeed.CollectionMilitares, changefeed.OpDelete, rg)
	return nil
}

func (r *militarRepo) ListAll(ctx context.Context) ([]model.Militar, error) {
	var list []model.Militar
	if err := r.db.WithContext(ctx).Order("nome ASC, rg ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
