package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"gocg-permutas/internal/dto"
	"gocg-permutas/internal/model"
	"gocg-permutas/internal/projection"
)

func newTestMilitarService(militares ...model.Militar) (MilitarService, *mockRepos, *projection.Directory) {
	repo, mocks := newMockRepos(militares...)
	dir := projection.NewDirectory()
	dir.Replace(militares)
	return NewMilitarService(repo, dir, zap.NewNop()), mocks, dir
}

// buildRoster writes rows (header first) into an in-memory workbook.
func buildRoster(t *testing.T, rows [][]string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf
}

// ── reads ──

func TestMilitarService_ListSortedByName(t *testing.T) {
	svc, _, _ := newTestMilitarService(
		testMilitar("200", "TEN", "Souza", "A"),
		testMilitar("100", "CAP", "almeida", "A"),
	)

	list := svc.List()
	if len(list) != 2 {
		t.Fatalf("expected 2, got %d", len(list))
	}
	if list[0].RG != "100" {
		t.Errorf("expected almeida first, got %s", list[0].Nome)
	}
	if list[0].DisplayName == "" {
		t.Error("expected display name")
	}
}

func TestMilitarService_Get(t *testing.T) {
	svc, _, _ := newTestMilitarService(testMilitar("100", "CAP", "Silva", "A"))

	got, err := svc.Get("100")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Nome != "Silva" {
		t.Errorf("expected Silva, got %s", got.Nome)
	}

	if _, err := svc.Get("999"); !errors.Is(err, ErrMilitarNotFound) {
		t.Errorf("expected ErrMilitarNotFound, got %v", err)
	}
}

// ── writes ──

func TestMilitarService_Create(t *testing.T) {
	svc, mocks, _ := newTestMilitarService(testMilitar("100", "CAP", "Silva", "A"))
	ctx := context.Background()

	got, err := svc.Create(ctx, &dto.CreateMilitarRequest{
		RG: " 300 ", Grad: "SGT", Quadro: "QBMP", Nome: " Pereira ", Unidade: "B",
	}, "12961")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if got.RG != "300" || got.Nome != "Pereira" {
		t.Errorf("expected trimmed fields, got %+v", got)
	}
	stored, ok := mocks.militar.militares["300"]
	if !ok {
		t.Fatal("militar not stored")
	}
	if stored.CreatedBy == nil || *stored.CreatedBy != "12961" {
		t.Error("expected created_by to be the caller")
	}

	_, err = svc.Create(ctx, &dto.CreateMilitarRequest{RG: "100", Grad: "CAP", Nome: "X", Unidade: "A"}, "12961")
	if !errors.Is(err, ErrMilitarExists) {
		t.Errorf("expected ErrMilitarExists, got %v", err)
	}
}

func TestMilitarService_UpdateWithoutRoleKeepsTag(t *testing.T) {
	admin := model.RoleAdmin
	chefe := testMilitar("12961", "CAP", "Santos", "GOCG")
	chefe.Role = &admin
	creator := "0001"
	chefe.CreatedBy = &creator
	svc, mocks, _ := newTestMilitarService(chefe)

	got, err := svc.Update(context.Background(), "12961", &dto.UpdateMilitarRequest{
		Grad: "MAJ", Quadro: "QOA", Nome: "Santos", Unidade: "GOCG",
	}, "12961")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Role == nil || *got.Role != model.RoleAdmin {
		t.Errorf("response lost the admin tag: %+v", got)
	}
	if got.Grad != "MAJ" {
		t.Errorf("expected grad MAJ, got %s", got.Grad)
	}

	stored := mocks.militar.militares["12961"]
	if stored.Role == nil || *stored.Role != model.RoleAdmin {
		t.Error("stored admin tag was cleared")
	}
	if stored.CreatedBy == nil || *stored.CreatedBy != creator {
		t.Error("created_by must survive an edit")
	}
}

func TestMilitarService_UpdateAndDelete(t *testing.T) {
	svc, mocks, _ := newTestMilitarService(testMilitar("100", "CAP", "Silva", "A"))
	ctx := context.Background()
	admin := model.RoleAdmin

	got, err := svc.Update(ctx, "100", &dto.UpdateMilitarRequest{
		Grad: "MAJ", Quadro: "QOBM", Nome: "Silva", Unidade: "B", Role: &admin,
	}, "12961")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Grad != "MAJ" || got.Role == nil || *got.Role != model.RoleAdmin {
		t.Errorf("unexpected response: %+v", got)
	}
	if mocks.militar.militares["100"].Unidade != "B" {
		t.Error("store not updated")
	}

	if _, err := svc.Update(ctx, "999", &dto.UpdateMilitarRequest{Grad: "X", Nome: "X", Unidade: "X"}, "12961"); !errors.Is(err, ErrMilitarNotFound) {
		t.Errorf("expected ErrMilitarNotFound, got %v", err)
	}

	if err := svc.Delete(ctx, "100"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := svc.Delete(ctx, "100"); !errors.Is(err, ErrMilitarNotFound) {
		t.Errorf("expected ErrMilitarNotFound on second delete, got %v", err)
	}
}

// ── import ──

func TestMilitarService_ParseImportFile(t *testing.T) {
	svc, _, _ := newTestMilitarService()

	buf := buildRoster(t, [][]string{
		{"Nome", "Posto", "RG", "OBM", "Quadro"},
		{"Silva", "CAP", "12.961", "GOCG", "QOA"},
		{"", "", "", "", ""},
		{"Souza", "TEN", "200", "1º GB", ""},
	})

	rows, err := svc.ParseImportFile(buf)
	if err != nil {
		t.Fatalf("ParseImportFile failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows (blank skipped), got %d", len(rows))
	}
	if rows[0].RG != "12961" || rows[0].Grad != "CAP" || rows[0].Unidade != "GOCG" {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
	if rows[1].Row != 4 {
		t.Errorf("expected spreadsheet row 4, got %d", rows[1].Row)
	}
}

func TestMilitarService_ParseImportFile_Rejects(t *testing.T) {
	svc, _, _ := newTestMilitarService()

	noData := buildRoster(t, [][]string{{"RG", "Grad", "Nome", "Unidade"}})
	if _, err := svc.ParseImportFile(noData); !errors.Is(err, ErrImportNoData) {
		t.Errorf("expected ErrImportNoData, got %v", err)
	}

	badHeader := buildRoster(t, [][]string{{"RG", "Nome"}, {"100", "Silva"}})
	if _, err := svc.ParseImportFile(badHeader); !errors.Is(err, ErrImportBadHeader) {
		t.Errorf("expected ErrImportBadHeader, got %v", err)
	}

	if _, err := svc.ParseImportFile(bytes.NewBufferString("not a workbook")); err == nil {
		t.Error("expected error for non-xlsx input")
	}
}

func TestMilitarService_Import(t *testing.T) {
	svc, mocks, _ := newTestMilitarService()

	resp, err := svc.Import(context.Background(), []ImportMilitarRow{
		{Row: 2, RG: "100", Grad: "CAP", Nome: "Silva", Unidade: "A"},
		{Row: 3, RG: "200", Grad: "", Nome: "Souza", Unidade: "A"},
		{Row: 4, RG: "100", Grad: "TEN", Nome: "Outro", Unidade: "B"},
		{Row: 5, RG: "300", Grad: "SGT", Nome: "Pereira", Unidade: "B"},
	}, "12961")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if resp.Total != 4 || resp.Success != 2 || resp.Failed != 2 {
		t.Errorf("unexpected summary: %+v", resp)
	}
	if len(resp.Errors) != 2 || resp.Errors[0].Row != 3 || resp.Errors[1].Row != 4 {
		t.Errorf("unexpected errors: %+v", resp.Errors)
	}
	if mocks.militar.militares["100"].Nome != "Silva" {
		t.Error("first occurrence of a repeated RG must win")
	}
	if _, ok := mocks.militar.militares["300"]; !ok {
		t.Error("valid row not stored")
	}
}

func TestMilitarService_Import_RejectsOversizedCells(t *testing.T) {
	svc, mocks, _ := newTestMilitarService()

	resp, err := svc.Import(context.Background(), []ImportMilitarRow{
		{Row: 2, RG: strings.Repeat("9", 21), Grad: "CAP", Nome: "Silva", Unidade: "A"},
		{Row: 3, RG: "200", Grad: "SGT", Nome: strings.Repeat("Ã", 101), Unidade: "A"},
		{Row: 4, RG: "300", Grad: "SGT", Nome: strings.Repeat("Ã", 100), Unidade: "B"},
	}, "12961")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if resp.Success != 1 || resp.Failed != 2 {
		t.Errorf("unexpected summary: %+v", resp)
	}
	if len(resp.Errors) != 2 || resp.Errors[0].Row != 2 || resp.Errors[1].Row != 3 {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}
	if !strings.Contains(resp.Errors[0].Reason, "RG") || !strings.Contains(resp.Errors[1].Reason, "NOME") {
		t.Errorf("reasons should name the column: %+v", resp.Errors)
	}
	if len(mocks.militar.militares) != 1 {
		t.Errorf("only the row that fits should be stored, got %d", len(mocks.militar.militares))
	}
}

func TestMilitarService_Import_StoreFailure(t *testing.T) {
	svc, mocks, _ := newTestMilitarService()
	mocks.militar.err = errors.New("connection reset")

	_, err := svc.Import(context.Background(), []ImportMilitarRow{
		{Row: 2, RG: "100", Grad: "CAP", Nome: "Silva", Unidade: "A"},
	}, "12961")
	if err == nil {
		t.Fatal("expected store error")
	}
}
