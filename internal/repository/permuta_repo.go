package repository

import (
	"context"

	"gorm.io/gorm"

	"gocg-permutas/internal/model"
	"gocg-permutas/pkg/changefeed"
	pkgerrors "gocg-permutas/pkg/errors"
)

// PermutaRepository swap request data access.
type PermutaRepository interface {
	// BatchCreate inserts every permuta or none of them.
	BatchCreate(ctx context.Context, list []model.Permuta) error
	GetByID(ctx context.Context, id string) (*model.Permuta, error)
	ListAll(ctx context.Context) ([]model.Permuta, error)
	// Update writes the mutable columns if the stored version still equals
	// p.Version, then bumps it.
	Update(ctx context.Context, p *model.Permuta) error
	// SetFlags applies fields to every id in one transaction. An unknown id
	// rolls the whole batch back with gorm.ErrRecordNotFound.
	SetFlags(ctx context.Context, ids []string, fields map[string]interface{}) error
}

type permutaRepo struct {
	db *gorm.DB
	n  *notifier
}

// NewPermutaRepo creates a PermutaRepository.
func NewPermutaRepo(db *gorm.DB, n *notifier) PermutaRepository {
	return &permutaRepo{db: db, n: n}
}

func (r *permutaRepo) BatchCreate(ctx context.Context, list []model.Permuta) error {
	if len(list) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&list).Error
	})
	if err != nil {
		return err
	}

	ids := make([]string, len(list))
	for i := range list {
		ids[i] = list[i].PermutaID
	}
	r.n.emit(ctx, changefeed.CollectionPermutas, changefeed.OpCreate, ids...)
	return nil
}

func (r *permutaRepo) GetByID(ctx context.Context, id string) (*model.Permuta, error) {
	var p model.Permuta
	if err := r.db.WithContext(ctx).Where("permuta_id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *permutaRepo) ListAll(ctx context.Context) ([]model.Permuta, error) {
	var list []model.Permuta
	if err := r.db.WithContext(ctx).Order("data ASC, permuta_id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *permutaRepo) Update(ctx context.Context, p *model.Permuta) error {
	oldVersion := p.Version
	result := r.db.WithContext(ctx).
		Model(&model.Permuta{}).
		Where("permuta_id = ? AND version = ?", p.PermutaID, oldVersion).
		Updates(map[string]interface{}{
			"militar_entra_rg":               p.MilitarEntraRG,
			"militar_sai_rg":                 p.MilitarSaiRG,
			"status":                         p.Status,
			"confirmada_por_militar_entra":   p.ConfirmadaPorMilitarEntra,
			"data_confirmacao_militar_entra": p.DataConfirmacaoMilitarEntra,
			"confirmada_por_militar_sai":     p.ConfirmadaPorMilitarSai,
			"data_confirmacao_militar_sai":   p.DataConfirmacaoMilitarSai,
			"updated_by":                     p.UpdatedBy,
			"version":                        oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	p.Version = oldVersion + 1
	r.n.emit(ctx, changefeed.CollectionPermutas, changefeed.OpUpdate, p.PermutaID)
	return nil
}

func (r *permutaRepo) SetFlags(ctx context.Context, ids []string, fields map[string]interface{}) error {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return nil
	}

	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["version"] = gorm.Expr("version + 1")

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Permuta{}).
			Where("permuta_id IN ?", unique).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != int64(len(unique)) {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.n.emit(ctx, changefeed.CollectionPermutas, changefeed.OpUpdate, unique...)
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
