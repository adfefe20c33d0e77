package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gocg-permutas/internal/dto"
	"gocg-permutas/internal/model"
	"gocg-permutas/internal/projection"
	"gocg-permutas/internal/repository"
	pkgerrors "gocg-permutas/pkg/errors"
)

// ── permuta errors ──

var (
	ErrPermutaNotFound   = errors.New("permuta not found")
	ErrInvalidPermuta    = errors.New("invalid permuta")
	ErrNotParticipant    = errors.New("caller is not a participant of the permuta")
	ErrAlreadyConfirmed  = errors.New("permuta already confirmed by this side")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadySent       = errors.New("permuta already sent")
)

// PermutaValidationError rejects one entry of a create request.
type PermutaValidationError struct {
	Index  int // zero based
	Reason string
}

func (e *PermutaValidationError) Error() string {
	return fmt.Sprintf("%s: entry %d: %s", ErrInvalidPermuta, e.Index, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidPermuta) hold.
func (e *PermutaValidationError) Is(target error) bool {
	return target == ErrInvalidPermuta
}

const dateLayout = "2006-01-02"

// PermutaService swap lifecycle. Reads come from the SwapProjection; every
// write goes to the store, which announces it on the change feed.
//
// Notes:
//   - Writes never touch the projection; a caller may read its own write
//     only after the syncer has rebuilt from the change notification
//   - Create validates the whole batch before inserting and inserts it in
//     one transaction
//   - Confirm, Invert and SetStatus are conditional on the version column and
//     return pkgerrors.ErrOptimisticLock when another writer got there first
//   - Status only moves Pendente -> Aprovada | Rejeitada
//   - MarkSent, Archive and Unarchive abort the whole batch on an unknown ID
type PermutaService interface {
	List(req *dto.PermutaListRequest, callerRG, callerRole string) []dto.PermutaResponse
	Get(id, callerRG, callerRole string) (*dto.PermutaResponse, error)
	Create(ctx context.Context, req *dto.CreatePermutasRequest, callerRG, callerRole string) ([]string, error)
	SetStatus(ctx context.Context, id, status, callerRG string) error
	MarkSent(ctx context.Context, ids []string, callerRG string) (int, error)
	Archive(ctx context.Context, ids []string, callerRG string) (int, error)
	Unarchive(ctx context.Context, ids []string, callerRG string) (int, error)
	Confirm(ctx context.Context, id, callerRG, password string) error
	Invert(ctx context.Context, id, callerRG, callerRole string) error
}

type permutaService struct {
	repo   *repository.Repository
	swaps  *projection.SwapProjection
	logger *zap.Logger
	now    func() time.Time
}

// NewPermutaService creates a PermutaService.
func NewPermutaService(repo *repository.Repository, swaps *projection.SwapProjection, logger *zap.Logger) PermutaService {
	return &permutaService{repo: repo, swaps: swaps, logger: logger, now: time.Now}
}

// ────────────────────── reads ──────────────────────

// List applies req. Non-admin callers only ever see their own permutas.
func (s *permutaService) List(req *dto.PermutaListRequest, callerRG, callerRole string) []dto.PermutaResponse {
	f := projection.Filter{Arquivada: req.Arquivada, Status: req.Status, RG: req.RG}
	if callerRole != model.RoleAdmin {
		f.RG = callerRG
	}

	list := s.swaps.List(f)
	out := make([]dto.PermutaResponse, len(list))
	for i := range list {
		out[i] = toPermutaResponse(&list[i])
	}
	return out
}

func (s *permutaService) Get(id, callerRG, callerRole string) (*dto.PermutaResponse, error) {
	p, ok := s.swaps.Get(id)
	if !ok {
		return nil, ErrPermutaNotFound
	}
	if callerRole != model.RoleAdmin && p.SideOf(callerRG) == model.SideNone {
		return nil, ErrNotParticipant
	}
	resp := toPermutaResponse(&p)
	return &resp, nil
}

// ────────────────────── Create ──────────────────────

func (s *permutaService) Create(ctx context.Context, req *dto.CreatePermutasRequest, callerRG, callerRole string) ([]string, error) {
	known := make(map[string]bool)
	list := make([]model.Permuta, 0, len(req.Permutas))

	for i, e := range req.Permutas {
		entra := strings.TrimSpace(e.MilitarEntraRG)
		sai := strings.TrimSpace(e.MilitarSaiRG)

		day, err := time.Parse(dateLayout, strings.TrimSpace(e.Data))
		if err != nil {
			return nil, &PermutaValidationError{Index: i, Reason: "data inválida, use AAAA-MM-DD"}
		}
		if !model.IsValidFuncao(e.Funcao) {
			return nil, &PermutaValidationError{Index: i, Reason: fmt.Sprintf("função desconhecida: %s", e.Funcao)}
		}
		if entra == "" || sai == "" {
			return nil, &PermutaValidationError{Index: i, Reason: "informe os dois militares"}
		}
		if entra == sai {
			return nil, &PermutaValidationError{Index: i, Reason: "o militar que entra e o que sai devem ser diferentes"}
		}
		if callerRole != model.RoleAdmin && callerRG != entra && callerRG != sai {
			return nil, ErrNotParticipant
		}

		for _, rg := range []string{entra, sai} {
			ok, err := s.militarExists(ctx, known, rg)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, &PermutaValidationError{Index: i, Reason: fmt.Sprintf("RG %s não encontrado", rg)}
			}
		}

		list = append(list, model.Permuta{
			PermutaID:      uuid.NewString(),
			Data:           day,
			Funcao:         e.Funcao,
			MilitarEntraRG: entra,
			MilitarSaiRG:   sai,
			Status:         model.StatusPendente,
			VersionedModel: model.VersionedModel{
				BaseModel: model.BaseModel{CreatedBy: &callerRG, UpdatedBy: &callerRG},
				Version:   1,
			},
		})
	}

	if err := s.repo.Permuta.BatchCreate(ctx, list); err != nil {
		s.logger.Error("create permutas failed", zap.Int("count", len(list)), zap.Error(err))
		return nil, err
	}

	ids := make([]string, len(list))
	for i := range list {
		ids[i] = list[i].PermutaID
	}
	s.logger.Info("permutas created", zap.String("by", callerRG), zap.Strings("ids", ids))
	return ids, nil
}

func (s *permutaService) militarExists(ctx context.Context, cache map[string]bool, rg string) (bool, error) {
	if ok, hit := cache[rg]; hit {
		return ok, nil
	}
	_, err := s.repo.Militar.GetByRG(ctx, rg)
	switch {
	case err == nil:
		cache[rg] = true
	case errors.Is(err, gorm.ErrRecordNotFound):
		cache[rg] = false
	default:
		s.logger.Error("load militar failed", zap.String("rg", rg), zap.Error(err))
		return false, err
	}
	return cache[rg], nil
}

// ────────────────────── SetStatus ──────────────────────

// SetStatus decides a pending permuta. Decisions are final.
func (s *permutaService) SetStatus(ctx context.Context, id, status, callerRG string) error {
	if status != model.StatusAprovada && status != model.StatusRejeitada {
		return ErrInvalidTransition
	}

	p, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if p.Status != model.StatusPendente {
		return ErrInvalidTransition
	}

	p.Status = status
	p.UpdatedBy = &callerRG
	if err := s.repo.Permuta.Update(ctx, p); err != nil {
		return s.writeErr("set status", id, err)
	}

	s.logger.Info("permuta status changed", zap.String("id", id), zap.String("status", status), zap.String("by", callerRG))
	return nil
}

// ────────────────────── bulk flags ──────────────────────

func (s *permutaService) MarkSent(ctx context.Context, ids []string, callerRG string) (int, error) {
	return s.setFlags(ctx, "mark sent", ids, callerRG, map[string]interface{}{
		"enviada":    true,
		"data_envio": s.now(),
	})
}

func (s *permutaService) Archive(ctx context.Context, ids []string, callerRG string) (int, error) {
	return s.setFlags(ctx, "archive", ids, callerRG, map[string]interface{}{
		"arquivada":         true,
		"data_arquivamento": s.now(),
	})
}

func (s *permutaService) Unarchive(ctx context.Context, ids []string, callerRG string) (int, error) {
	return s.setFlags(ctx, "unarchive", ids, callerRG, map[string]interface{}{
		"arquivada":         false,
		"data_arquivamento": nil,
	})
}

func (s *permutaService) setFlags(ctx context.Context, op string, ids []string, callerRG string, fields map[string]interface{}) (int, error) {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return 0, ErrPermutaNotFound
		}
	}
	fields["updated_by"] = callerRG

	if err := s.repo.Permuta.SetFlags(ctx, ids, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrPermutaNotFound
		}
		s.logger.Error("bulk update failed", zap.String("op", op), zap.Strings("ids", ids), zap.Error(err))
		return 0, err
	}

	n := countUnique(ids)
	s.logger.Info("permutas updated", zap.String("op", op), zap.Int("count", n), zap.String("by", callerRG))
	return n, nil
}

// ────────────────────── Confirm ──────────────────────

// Confirm records callerRG's agreement after re-checking the password.
func (s *permutaService) Confirm(ctx context.Context, id, callerRG, password string) error {
	p, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	side := p.SideOf(callerRG)
	if side == model.SideNone {
		return ErrNotParticipant
	}
	if p.IsConfirmedBy(side) {
		return ErrAlreadyConfirmed
	}

	u, err := s.repo.Usuario.GetByRG(ctx, callerRG)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotRegistered
		}
		s.logger.Error("load usuario failed", zap.String("rg", callerRG), zap.Error(err))
		return err
	}
	if !checkPassword(u.PasswordHash, password) {
		return ErrWrongPassword
	}

	p.Confirm(side, s.now())
	p.UpdatedBy = &callerRG
	if err := s.repo.Permuta.Update(ctx, p); err != nil {
		return s.writeErr("confirm", id, err)
	}

	s.logger.Info("permuta confirmed", zap.String("id", id), zap.String("rg", callerRG))
	return nil
}

// ────────────────────── Invert ──────────────────────

// Invert swaps the incoming and outgoing militares of a pending, unsent
// permuta. Confirmations follow the militar who gave them.
func (s *permutaService) Invert(ctx context.Context, id, callerRG, callerRole string) error {
	p, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if callerRole != model.RoleAdmin && p.SideOf(callerRG) == model.SideNone {
		return ErrNotParticipant
	}
	if p.Status != model.StatusPendente {
		return ErrInvalidTransition
	}
	if p.Enviada {
		return ErrAlreadySent
	}

	p.Invert()
	p.UpdatedBy = &callerRG
	if err := s.repo.Permuta.Update(ctx, p); err != nil {
		return s.writeErr("invert", id, err)
	}

	s.logger.Info("permuta inverted", zap.String("id", id), zap.String("by", callerRG))
	return nil
}

// ── helpers ──

// load reads the authoritative copy from the store.
func (s *permutaService) load(ctx context.Context, id string) (*model.Permuta, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrPermutaNotFound
	}
	p, err := s.repo.Permuta.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPermutaNotFound
		}
		s.logger.Error("load permuta failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (s *permutaService) writeErr(op, id string, err error) error {
	if errors.Is(err, pkgerrors.ErrOptimisticLock) {
		s.logger.Warn("permuta write lost a race", zap.String("op", op), zap.String("id", id))
		return err
	}
	s.logger.Error("permuta write failed", zap.String("op", op), zap.String("id", id), zap.Error(err))
	return err
}

func countUnique(ids []string) int {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return len(seen)
}

func toPermutaResponse(p *model.Permuta) dto.PermutaResponse {
	resp := dto.PermutaResponse{
		ID:                          p.PermutaID,
		Data:                        p.Data.Format(dateLayout),
		Funcao:                      p.Funcao,
		Status:                      p.Status,
		Enviada:                     p.Enviada,
		DataEnvio:                   p.DataEnvio,
		Arquivada:                   p.Arquivada,
		DataArquivamento:            p.DataArquivamento,
		ConfirmadaPorMilitarEntra:   p.ConfirmadaPorMilitarEntra,
		DataConfirmacaoMilitarEntra: p.DataConfirmacaoMilitarEntra,
		ConfirmadaPorMilitarSai:     p.ConfirmadaPorMilitarSai,
		DataConfirmacaoMilitarSai:   p.DataConfirmacaoMilitarSai,
		Version:                     p.Version,
		CreatedAt:                   p.CreatedAt,
	}
	if p.Entra != nil {
		m := toMilitarResponse(p.Entra)
		resp.MilitarEntra = &m
	}
	if p.Sai != nil {
		m := toMilitarResponse(p.Sai)
		resp.MilitarSai = &m
	}
	return resp
}
