package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gocg-permutas/internal/dto"
	"gocg-permutas/internal/model"
	"gocg-permutas/internal/projection"
	"gocg-permutas/internal/repository"
)

// ── roster errors ──

var (
	ErrMilitarNotFound   = errors.New("militar not found")
	ErrMilitarExists     = errors.New("militar already exists")
	ErrImportNoData      = errors.New("import file has no data rows")
	ErrImportBadHeader   = errors.New("import file is missing required columns")
	ErrImportTooManyRows = errors.New("import file has too many rows")
)

const maxImportRows = 2000

// MilitarService roster operations. Reads come from the Directory; writes go
// to the store and reach the Directory through the change feed.
type MilitarService interface {
	List() []dto.MilitarResponse
	Get(rg string) (*dto.MilitarResponse, error)
	Create(ctx context.Context, req *dto.CreateMilitarRequest, callerRG string) (*dto.MilitarResponse, error)
	Update(ctx context.Context, rg string, req *dto.UpdateMilitarRequest, callerRG string) (*dto.MilitarResponse, error)
	Delete(ctx context.Context, rg string) error
	ParseImportFile(reader io.Reader) ([]ImportMilitarRow, error)
	Import(ctx context.Context, rows []ImportMilitarRow, callerRG string) (*dto.ImportMilitarResponse, error)
}

// ImportMilitarRow one parsed roster spreadsheet row.
type ImportMilitarRow struct {
	Row     int
	RG      string
	Grad    string
	Quadro  string
	Nome    string
	Unidade string
}

// Column widths of the militares table (varchar counts characters).
var militarColumnLimits = []struct {
	name  string
	limit int
	value func(r *ImportMilitarRow) string
}{
	{"RG", 20, func(r *ImportMilitarRow) string { return r.RG }},
	{"GRAD", 20, func(r *ImportMilitarRow) string { return r.Grad }},
	{"QUADRO", 20, func(r *ImportMilitarRow) string { return r.Quadro }},
	{"NOME", 100, func(r *ImportMilitarRow) string { return r.Nome }},
	{"UNIDADE", 100, func(r *ImportMilitarRow) string { return r.Unidade }},
}

// oversizedColumn names the first field of r wider than its column.
func oversizedColumn(r *ImportMilitarRow) (string, int, bool) {
	for _, c := range militarColumnLimits {
		if utf8.RuneCountInString(c.value(r)) > c.limit {
			return c.name, c.limit, true
		}
	}
	return "", 0, false
}

type militarService struct {
	repo   *repository.Repository
	dir    *projection.Directory
	logger *zap.Logger
}

// NewMilitarService creates a MilitarService.
func NewMilitarService(repo *repository.Repository, dir *projection.Directory, logger *zap.Logger) MilitarService {
	return &militarService{repo: repo, dir: dir, logger: logger}
}

// ────────────────────── reads ──────────────────────

func (s *militarService) List() []dto.MilitarResponse {
	list := s.dir.List()
	out := make([]dto.MilitarResponse, len(list))
	for i := range list {
		out[i] = toMilitarResponse(&list[i])
	}
	return out
}

func (s *militarService) Get(rg string) (*dto.MilitarResponse, error) {
	m, ok := s.dir.Get(rg)
	if !ok {
		return nil, ErrMilitarNotFound
	}
	resp := toMilitarResponse(&m)
	return &resp, nil
}

// ────────────────────── writes ──────────────────────

func (s *militarService) Create(ctx context.Context, req *dto.CreateMilitarRequest, callerRG string) (*dto.MilitarResponse, error) {
	rg := strings.TrimSpace(req.RG)

	if _, err := s.repo.Militar.GetByRG(ctx, rg); err == nil {
		return nil, ErrMilitarExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("load militar failed", zap.String("rg", rg), zap.Error(err))
		return nil, err
	}

	m := &model.Militar{
		RG:        rg,
		Grad:      strings.TrimSpace(req.Grad),
		Quadro:    strings.TrimSpace(req.Quadro),
		Nome:      strings.TrimSpace(req.Nome),
		Unidade:   strings.TrimSpace(req.Unidade),
		Role:      req.Role,
		BaseModel: model.BaseModel{CreatedBy: &callerRG, UpdatedBy: &callerRG},
	}
	if err := s.repo.Militar.Create(ctx, m); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrMilitarExists
		}
		s.logger.Error("create militar failed", zap.String("rg", rg), zap.Error(err))
		return nil, err
	}

	resp := toMilitarResponse(m)
	return &resp, nil
}

func (s *militarService) Update(ctx context.Context, rg string, req *dto.UpdateMilitarRequest, callerRG string) (*dto.MilitarResponse, error) {
	m := &model.Militar{
		RG:        rg,
		Grad:      strings.TrimSpace(req.Grad),
		Quadro:    strings.TrimSpace(req.Quadro),
		Nome:      strings.TrimSpace(req.Nome),
		Unidade:   strings.TrimSpace(req.Unidade),
		Role:      req.Role,
		BaseModel: model.BaseModel{UpdatedBy: &callerRG},
	}
	if err := s.repo.Militar.Update(ctx, m); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMilitarNotFound
		}
		s.logger.Error("update militar failed", zap.String("rg", rg), zap.Error(err))
		return nil, err
	}

	// re-read so the response carries the untouched columns too
	updated, err := s.repo.Militar.GetByRG(ctx, rg)
	if err != nil {
		s.logger.Error("reload militar failed", zap.String("rg", rg), zap.Error(err))
		return nil, err
	}
	resp := toMilitarResponse(updated)
	return &resp, nil
}

// Delete removes a roster entry. Permutas referencing it stay stored and
// drop out of the projection.
func (s *militarService) Delete(ctx context.Context, rg string) error {
	if err := s.repo.Militar.Delete(ctx, rg); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMilitarNotFound
		}
		s.logger.Error("delete militar failed", zap.String("rg", rg), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── import ──────────────────────

// ParseImportFile reads the first sheet of an .xlsx roster. Columns are
// located by header name so their order does not matter.
func (s *militarService) ParseImportFile(reader io.Reader) ([]ImportMilitarRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	excelRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	col := parseHeaderIndex(excelRows[0])
	for _, required := range []string{"rg", "grad", "nome", "unidade"} {
		if col[required] < 0 {
			return nil, ErrImportBadHeader
		}
	}

	get := func(row []string, key string) string {
		if idx := col[key]; idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	var rows []ImportMilitarRow
	for i := 1; i < len(excelRows); i++ {
		r := excelRows[i]
		item := ImportMilitarRow{
			Row:     i + 1,
			RG:      normalizeRG(get(r, "rg")),
			Grad:    get(r, "grad"),
			Quadro:  get(r, "quadro"),
			Nome:    get(r, "nome"),
			Unidade: get(r, "unidade"),
		}
		if item.RG == "" && item.Grad == "" && item.Nome == "" && item.Unidade == "" {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}
	return rows, nil
}

// Import validates every row, then upserts the valid ones in a single
// transaction. Invalid rows are reported and skipped.
func (s *militarService) Import(ctx context.Context, rows []ImportMilitarRow, callerRG string) (*dto.ImportMilitarResponse, error) {
	resp := &dto.ImportMilitarResponse{Total: len(rows)}

	seen := make(map[string]int, len(rows))
	valid := make([]model.Militar, 0, len(rows))

	for _, row := range rows {
		if row.RG == "" || row.Grad == "" || row.Nome == "" || row.Unidade == "" {
			resp.Failed++
			resp.Errors = append(resp.Errors, dto.ImportMilitarError{Row: row.Row, Reason: "campo obrigatório vazio"})
			continue
		}
		if col, limit, bad := oversizedColumn(&row); bad {
			resp.Failed++
			resp.Errors = append(resp.Errors, dto.ImportMilitarError{
				Row: row.Row, Reason: fmt.Sprintf("%s excede %d caracteres", col, limit),
			})
			continue
		}
		if first, dup := seen[row.RG]; dup {
			resp.Failed++
			resp.Errors = append(resp.Errors, dto.ImportMilitarError{
				Row: row.Row, Reason: fmt.Sprintf("RG %s repetido (linha %d)", row.RG, first),
			})
			continue
		}
		seen[row.RG] = row.Row

		valid = append(valid, model.Militar{
			RG:        row.RG,
			Grad:      row.Grad,
			Quadro:    row.Quadro,
			Nome:      row.Nome,
			Unidade:   row.Unidade,
			BaseModel: model.BaseModel{CreatedBy: &callerRG, UpdatedBy: &callerRG},
		})
	}

	if err := s.repo.Militar.BatchUpsert(ctx, valid); err != nil {
		s.logger.Error("roster import failed, rolled back", zap.Int("rows", len(valid)), zap.Error(err))
		return nil, err
	}
	resp.Success = len(valid)

	s.logger.Info("roster imported",
		zap.String("by", callerRG),
		zap.Int("success", resp.Success),
		zap.Int("failed", resp.Failed),
	)
	return resp, nil
}

// parseHeaderIndex maps known header names to their column index, -1 when
// absent.
func parseHeaderIndex(header []string) map[string]int {
	idx := map[string]int{"rg": -1, "grad": -1, "quadro": -1, "nome": -1, "unidade": -1}
	aliases := map[string]string{
		"rg": "rg", "grad": "grad", "graduação": "grad", "graduacao": "grad", "posto": "grad",
		"quadro": "quadro", "nome": "nome", "unidade": "unidade", "obm": "unidade",
	}
	for i, h := range header {
		if key, ok := aliases[normalize(h)]; ok && idx[key] < 0 {
			idx[key] = i
		}
	}
	return idx
}

// normalizeRG strips the thousands dot printed on documents ("12.961").
func normalizeRG(rg string) string {
	return strings.ReplaceAll(strings.TrimSpace(rg), ".", "")
}

func toMilitarResponse(m *model.Militar) dto.MilitarResponse {
	return dto.MilitarResponse{
		RG:          m.RG,
		Grad:        m.Grad,
		Quadro:      m.Quadro,
		Nome:        m.Nome,
		Unidade:     m.Unidade,
		Role:        m.Role,
		DisplayName: m.DisplayName(),
	}
}
