package service

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"gocg-permutas/internal/model"
	"gocg-permutas/internal/projection"
)

// ── helpers ──

const (
	exportID1 = "11111111-1111-4111-8111-111111111111"
	exportID2 = "22222222-2222-4222-8222-222222222222"
	exportID3 = "33333333-3333-4333-8333-333333333333"
)

func resolvedPermuta(id, funcao string, day time.Time, entra, sai model.Militar) model.Permuta {
	e, s := entra, sai
	return model.Permuta{
		PermutaID:      id,
		Data:           day,
		Funcao:         funcao,
		MilitarEntraRG: entra.RG,
		MilitarSaiRG:   sai.RG,
		Status:         model.StatusPendente,
		Entra:          &e,
		Sai:            &s,
	}
}

func setupTestExportService(list ...model.Permuta) ExportService {
	swaps := projection.NewSwapProjection()
	swaps.Replace(list)
	return &exportService{
		swaps:  swaps,
		logger: zap.NewNop(),
		now:    func() time.Time { return time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC) },
	}
}

func exportFixture() []model.Permuta {
	silva := testMilitar("12961", "CAP", "Silva", "A")
	souza := testMilitar("200", "TEN", "Souza", "A")
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	p3 := resolvedPermuta(exportID3, model.FuncaoBuscaSalvamento, day(12), souza, silva)
	p3.Status = model.StatusAprovada
	return []model.Permuta{
		p3,
		resolvedPermuta(exportID1, model.FuncaoPrimeiroSocorro, day(11), silva, souza),
		resolvedPermuta(exportID2, model.FuncaoPrimeiroSocorro, day(10), souza, silva),
	}
}

// ── grouping and formatting ──

func TestGroupForExport_PriorityOrder(t *testing.T) {
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	list := []model.Permuta{
		{PermutaID: "a", Funcao: "SUPERVISOR", Data: day},
		{PermutaID: "b", Funcao: model.FuncaoBuscaSalvamento, Data: day},
		{PermutaID: "c", Funcao: "APOIO", Data: day},
		{PermutaID: "d", Funcao: model.FuncaoSegundoSocorro, Data: day.AddDate(0, 0, 1)},
		{PermutaID: "e", Funcao: model.FuncaoSegundoSocorro, Data: day},
		{PermutaID: "f", Funcao: model.FuncaoPrimeiroSocorro, Data: day},
	}

	groups := GroupForExport(list)

	want := []string{model.FuncaoPrimeiroSocorro, model.FuncaoSegundoSocorro, model.FuncaoBuscaSalvamento, "APOIO", "SUPERVISOR"}
	if len(groups) != len(want) {
		t.Fatalf("expected %d groups, got %d", len(want), len(groups))
	}
	for i, g := range groups {
		if g.Funcao != want[i] {
			t.Errorf("group %d: expected %s, got %s", i, want[i], g.Funcao)
		}
	}
	if ps := groups[1].Permutas; ps[0].PermutaID != "e" || ps[1].PermutaID != "d" {
		t.Error("permutas within a group must be ordered by date")
	}
}

func TestFormatRG(t *testing.T) {
	cases := map[string]string{
		"12961":  "12.961",
		"123456": "123.456",
		"200":    "200",
		"":       "",
	}
	for in, want := range cases {
		if got := FormatRG(in); got != want {
			t.Errorf("FormatRG(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	got := FormatDate(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	if got != "10/01/2024" {
		t.Errorf("expected 10/01/2024, got %s", got)
	}
}

// ── xlsx ──

func TestExportService_ExportXLSX(t *testing.T) {
	svc := setupTestExportService(exportFixture()...)

	buf, filename, err := svc.ExportXLSX([]string{exportID3, exportID1, exportID2})
	if err != nil {
		t.Fatalf("ExportXLSX failed: %v", err)
	}
	if filename != "permutas_2024-01-05.xlsx" {
		t.Errorf("unexpected filename: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("output is not a workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Permutas")
	if err != nil {
		t.Fatalf("sheet Permutas missing: %v", err)
	}
	if rows[0][0] != documentTitle {
		t.Errorf("expected document title, got %q", rows[0][0])
	}
	// title, blank, group heading, two header rows, then data
	if rows[2][0] != model.FuncaoPrimeiroSocorro {
		t.Errorf("first group must be 1º socorro, got %q", rows[2][0])
	}
	if rows[3][0] != "DIA" || rows[4][1] != "MILITAR" {
		t.Errorf("unexpected header rows: %v / %v", rows[3], rows[4])
	}
	first := rows[5]
	if first[0] != "10/01/2024" || first[2] != "200" || first[4] != "12.961" {
		t.Errorf("unexpected first data row: %v", first)
	}
}

func TestExportService_ExportXLSX_EmptySelection(t *testing.T) {
	svc := setupTestExportService(exportFixture()...)

	if _, _, err := svc.ExportXLSX([]string{"44444444-4444-4444-8444-444444444444"}); !errors.Is(err, ErrExportEmpty) {
		t.Errorf("expected ErrExportEmpty, got %v", err)
	}
	if _, _, err := svc.ExportXLSX(nil); !errors.Is(err, ErrExportEmpty) {
		t.Errorf("expected ErrExportEmpty for nil ids, got %v", err)
	}
}

// ── print view ──

func TestExportService_ExportPrint(t *testing.T) {
	svc := setupTestExportService(exportFixture()...)

	html, err := svc.ExportPrint([]string{exportID1, exportID3})
	if err != nil {
		t.Fatalf("ExportPrint failed: %v", err)
	}
	page := string(html)
	for _, want := range []string{"ESCALA DE SERVIÇO", "DIA", "ENTRA", "SAI", "11/01/2024", "12.961", model.FuncaoBuscaSalvamento} {
		if !strings.Contains(page, want) {
			t.Errorf("print view missing %q", want)
		}
	}
	if strings.Contains(page, "10/01/2024") {
		t.Error("unselected permuta rendered")
	}
	if strings.Index(page, model.FuncaoPrimeiroSocorro) > strings.Index(page, model.FuncaoBuscaSalvamento) {
		t.Error("groups out of priority order")
	}
}

func TestExportService_ExportPrint_EmptySelection(t *testing.T) {
	svc := setupTestExportService()

	if _, err := svc.ExportPrint([]string{exportID1}); !errors.Is(err, ErrExportEmpty) {
		t.Errorf("expected ErrExportEmpty, got %v", err)
	}
}

// ── calendar ──

func TestExportService_ExportCalendar(t *testing.T) {
	list := exportFixture()
	rejected := list[1]
	rejected.Status = model.StatusRejeitada
	archived := list[2]
	archived.Arquivada = true
	svc := setupTestExportService(list[0], rejected, archived)

	data, filename, err := svc.ExportCalendar("12961")
	if err != nil {
		t.Fatalf("ExportCalendar failed: %v", err)
	}
	if filename != "permutas_12961.ics" {
		t.Errorf("unexpected filename: %s", filename)
	}

	cal, err := ics.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output does not parse: %v", err)
	}
	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("expected only the active approved permuta, got %d events", len(events))
	}
	if events[0].Id() != exportID3+"@gocg-permutas" {
		t.Errorf("unexpected UID: %s", events[0].Id())
	}
	if !strings.Contains(string(data), "Permuta (Sai)") {
		t.Error("militar 12961 leaves on this permuta")
	}
	if !strings.Contains(string(data), "CONFIRMED") {
		t.Error("approved permuta must be CONFIRMED")
	}
}

func TestExportService_ExportCalendar_NoPermutas(t *testing.T) {
	svc := setupTestExportService(exportFixture()...)

	data, _, err := svc.ExportCalendar("999")
	if err != nil {
		t.Fatalf("ExportCalendar failed: %v", err)
	}
	cal, err := ics.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output does not parse: %v", err)
	}
	if len(cal.Events()) != 0 {
		t.Errorf("expected empty calendar, got %d events", len(cal.Events()))
	}
}
