package service

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"gocg-permutas/internal/model"
	"gocg-permutas/internal/projection"
)

// ── export errors ──

var (
	ErrExportEmpty        = errors.New("no permutas selected for export")
	ErrExportGenerateFail = errors.New("failed to generate export document")
)

// documentTitle heads every rendering of the swap document.
const documentTitle = "ESCALA DE SERVIÇO – COMANDANTE DE SOCORRO – ALTERAÇÃO"

// ExportGroup permutas of one duty function, ordered by date.
type ExportGroup struct {
	Funcao   string
	Permutas []model.Permuta
}

// ExportService renders permutas as documents.
//
// Notes:
//   - Every rendering reads the SwapProjection, so permutas with a missing
//     militar are never exported
//   - XLSX and print share GroupForExport: one titled section per function,
//     columns DIA | ENTRA MILITAR | ENTRA RG | SAI MILITAR | SAI RG
//   - Documents are returned in memory; the handler sets the download headers
//   - The calendar holds one all-day event per active permuta of the caller,
//     with a UID stable across exports
type ExportService interface {
	// ExportXLSX renders the selected permutas as a spreadsheet.
	ExportXLSX(ids []string) (*bytes.Buffer, string, error)
	// ExportPrint renders the selected permutas as a printable HTML page.
	ExportPrint(ids []string) ([]byte, error)
	// ExportCalendar renders rg's active permutas as an iCalendar feed.
	ExportCalendar(rg string) ([]byte, string, error)
}

type exportService struct {
	swaps  *projection.SwapProjection
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService creates an ExportService.
func NewExportService(swaps *projection.SwapProjection, logger *zap.Logger) ExportService {
	return &exportService{swaps: swaps, logger: logger, now: time.Now}
}

// GroupForExport groups permutas by function in document priority order.
// Unknown functions follow the known ones alphabetically.
func GroupForExport(list []model.Permuta) []ExportGroup {
	byFuncao := make(map[string][]model.Permuta)
	for _, p := range list {
		byFuncao[p.Funcao] = append(byFuncao[p.Funcao], p)
	}

	var order []string
	for _, f := range model.Funcoes {
		if _, ok := byFuncao[f]; ok {
			order = append(order, f)
		}
	}
	var unknown []string
	for f := range byFuncao {
		if !model.IsValidFuncao(f) {
			unknown = append(unknown, f)
		}
	}
	sort.Strings(unknown)
	order = append(order, unknown...)

	groups := make([]ExportGroup, 0, len(order))
	for _, f := range order {
		items := byFuncao[f]
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Data.Before(items[j].Data)
		})
		groups = append(groups, ExportGroup{Funcao: f, Permutas: items})
	}
	return groups
}

// ────────────────────── xlsx ──────────────────────

func (s *exportService) ExportXLSX(ids []string) (*bytes.Buffer, string, error) {
	selected := s.swaps.Select(ids)
	if len(selected) == 0 {
		return nil, "", ErrExportEmpty
	}
	groups := GroupForExport(selected)

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Permutas"
	idx, _ := f.NewSheet(sheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheet, "A", "A", 14)
	f.SetColWidth(sheet, "B", "B", 36)
	f.SetColWidth(sheet, "C", "C", 12)
	f.SetColWidth(sheet, "D", "D", 36)
	f.SetColWidth(sheet, "E", "E", 12)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9D9D9"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	bodyStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})

	row := 1
	f.SetCellValue(sheet, cell("A", row), documentTitle)
	f.MergeCell(sheet, cell("A", row), cell("E", row))
	f.SetCellStyle(sheet, cell("A", row), cell("E", row), titleStyle)
	row += 2

	for _, g := range groups {
		f.SetCellValue(sheet, cell("A", row), strings.ToUpper(g.Funcao))
		f.MergeCell(sheet, cell("A", row), cell("E", row))
		f.SetCellStyle(sheet, cell("A", row), cell("E", row), titleStyle)
		row++

		f.SetCellValue(sheet, cell("A", row), "DIA")
		f.SetCellValue(sheet, cell("B", row), "ENTRA")
		f.SetCellValue(sheet, cell("D", row), "SAI")
		f.MergeCell(sheet, cell("B", row), cell("C", row))
		f.MergeCell(sheet, cell("D", row), cell("E", row))
		f.SetCellStyle(sheet, cell("A", row), cell("E", row), headerStyle)
		row++

		for i, h := range []string{"", "MILITAR", "RG", "MILITAR", "RG"} {
			f.SetCellValue(sheet, cell(colName(i), row), h)
		}
		f.SetCellStyle(sheet, cell("A", row), cell("E", row), headerStyle)
		row++

		for _, p := range g.Permutas {
			values := exportRow(&p)
			for i, v := range values {
				f.SetCellValue(sheet, cell(colName(i), row), v)
			}
			f.SetCellStyle(sheet, cell("A", row), cell("E", row), bodyStyle)
			row++
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write xlsx failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("permutas_%s.xlsx", s.now().Format("2006-01-02"))
	return buf, filename, nil
}

// ────────────────────── print view ──────────────────────

var printTemplate = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="UTF-8">
<title>Permutas – GOCG</title>
<style>
body { font-family: "Times New Roman", serif; color: #000; margin: 2cm; }
h1, h2 { text-align: center; font-size: 14pt; }
h2 { text-transform: uppercase; margin-top: 1.5em; }
table { width: 100%; border-collapse: collapse; }
th, td { border: 1px solid #000; padding: 4px; text-align: center; }
th { background: #d9d9d9; }
@media print { body { margin: 0; } }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Groups}}
<h2>{{.Funcao}}</h2>
<table>
<thead>
<tr><th rowspan="2">DIA</th><th colspan="2">ENTRA</th><th colspan="2">SAI</th></tr>
<tr><th>MILITAR</th><th>RG</th><th>MILITAR</th><th>RG</th></tr>
</thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
{{end}}
</body>
</html>
`))

type printGroup struct {
	Funcao string
	Rows   [][5]string
}

func (s *exportService) ExportPrint(ids []string) ([]byte, error) {
	selected := s.swaps.Select(ids)
	if len(selected) == 0 {
		return nil, ErrExportEmpty
	}

	groups := GroupForExport(selected)
	data := struct {
		Title  string
		Groups []printGroup
	}{Title: documentTitle}

	for _, g := range groups {
		pg := printGroup{Funcao: g.Funcao}
		for i := range g.Permutas {
			pg.Rows = append(pg.Rows, exportRow(&g.Permutas[i]))
		}
		data.Groups = append(data.Groups, pg)
	}

	var buf bytes.Buffer
	if err := printTemplate.Execute(&buf, data); err != nil {
		s.logger.Error("render print view failed", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return buf.Bytes(), nil
}

// ────────────────────── calendar ──────────────────────

// ExportCalendar lists rg's permutas that are neither archived nor rejected
// as all-day events.
func (s *exportService) ExportCalendar(rg string) ([]byte, string, error) {
	active := false
	list := s.swaps.List(projection.Filter{Arquivada: &active, RG: rg})

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//GOCG//Permutas//PT")
	cal.SetName("Permutas GOCG")

	stamp := s.now().UTC()
	for i := range list {
		p := &list[i]
		if p.Status == model.StatusRejeitada {
			continue
		}

		verb, other := "Entra", p.Sai
		if p.SideOf(rg) == model.SideSai {
			verb, other = "Sai", p.Entra
		}

		ev := cal.AddEvent(p.PermutaID + "@gocg-permutas")
		ev.SetDtStampTime(stamp)
		ev.SetAllDayStartAt(p.Data)
		ev.SetAllDayEndAt(p.Data.AddDate(0, 0, 1))
		ev.SetSummary(fmt.Sprintf("Permuta (%s): %s", verb, p.Funcao))
		if other != nil {
			ev.SetDescription(fmt.Sprintf("Permuta com %s, RG %s. Situação: %s.",
				other.DisplayName(), FormatRG(other.RG), p.Status))
		}
		if p.Status == model.StatusAprovada {
			ev.SetStatus(ics.ObjectStatusConfirmed)
		} else {
			ev.SetStatus(ics.ObjectStatusTentative)
		}
	}

	return []byte(cal.Serialize()), fmt.Sprintf("permutas_%s.ics", rg), nil
}

// ── formatting ──

// exportRow is one table row: DIA, ENTRA MILITAR, ENTRA RG, SAI MILITAR, SAI RG.
func exportRow(p *model.Permuta) [5]string {
	row := [5]string{FormatDate(p.Data)}
	if p.Entra != nil {
		row[1] = p.Entra.DisplayName()
	}
	row[2] = FormatRG(p.MilitarEntraRG)
	if p.Sai != nil {
		row[3] = p.Sai.DisplayName()
	}
	row[4] = FormatRG(p.MilitarSaiRG)
	return row
}

// FormatRG inserts the thousands dot used on documents: 12961 → 12.961.
func FormatRG(rg string) string {
	if len(rg) <= 3 {
		return rg
	}
	return rg[:len(rg)-3] + "." + rg[len(rg)-3:]
}

// FormatDate renders a duty date as dd/mm/yyyy.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
