package generate_excel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"qc-line/internal/production"
	"qc-line/internal/storage"
)

const (
	scansSheet      = "Apontamentos"
	checklistsSheet = "Checklists"
	timeLayout      = "02/01/2006 15:04:05"
)

var ErrInvalidRange = errors.New("report range ends before it starts")

type GenerateExcelStorage interface {
	AllScans(ctx context.Context) ([]storage.ProductionScan, error)
	AllChecklists(ctx context.Context) ([]storage.ChecklistEntry, error)
}

type GenerateExcelService struct {
	storage GenerateExcelStorage
}

func NewGenerateService(storage GenerateExcelStorage) *GenerateExcelService {
	return &GenerateExcelService{storage: storage}
}

// GenerateHistoryExcel builds a workbook with every scan and checklist row
// recorded between the start of from and the end of to, both local days.
func (g *GenerateExcelService) GenerateHistoryExcel(ctx context.Context, from, to production.Day) ([]byte, error) {
	const op = "service.generate_excel.GenerateHistoryExcel"

	start, _ := from.Bounds()
	_, end := to.Bounds()
	if !end.After(start) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidRange)
	}
	loc := from.Location()

	var (
		scans   []storage.ProductionScan
		entries []storage.ChecklistEntry
	)

	eg, gCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		scans, err = g.storage.AllScans(gCtx)
		return err
	})
	eg.Go(func() error {
		var err error
		entries, err = g.storage.AllChecklists(gCtx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("%s: fetch data: %w", op, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: style: %w", op, err)
	}

	if err := f.SetSheetName("Sheet1", scansSheet); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := f.NewSheet(checklistsSheet); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	scanRows := make([][]any, 0, len(scans))
	for _, s := range scans {
		if s.Timestamp.Before(start) || !s.Timestamp.Before(end) {
			continue
		}
		scanRows = append(scanRows, []any{
			s.ID,
			s.SerialNumber,
			s.Timestamp.In(loc).Format(timeLayout),
			s.ProductionType,
			s.OrderID,
		})
	}

	checklistRows := make([][]any, 0, len(entries))
	for _, e := range entries {
		if e.Timestamp.Before(start) || !e.Timestamp.Before(end) {
			continue
		}
		checklistRows = append(checklistRows, []any{
			e.ID,
			e.SerialNumber,
			e.Item,
			string(e.Status),
			e.Observation,
			e.Inspector,
			e.Timestamp.In(loc).Format(timeLayout),
			e.Rejected.String(),
			e.Reinspection.String(),
		})
	}

	sheets := []struct {
		name    string
		headers []string
		rows    [][]any
	}{
		{scansSheet, []string{"ID", "Número de série", "Data/hora", "Tipo de produção", "OP"}, scanRows},
		{checklistsSheet, []string{"ID", "Número de série", "Item", "Status", "Observações", "Inspetor", "Data/hora", "Reprovado", "Reinspeção"}, checklistRows},
	}

	for _, sh := range sheets {
		if err := writeSheet(f, sh.name, sh.headers, sh.rows, headerStyle); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: write: %w", op, err)
	}

	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]any, headerStyle int) error {
	for i, name := range headers {
		if err := f.SetCellValue(sheet, cellName(i+1, 1), name); err != nil {
			return err
		}
	}

	lastCol := cellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", lastCol, headerStyle); err != nil {
		return err
	}

	for rowIdx, row := range rows {
		if err := f.SetSheetRow(sheet, cellName(1, rowIdx+2), &row); err != nil {
			return err
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	colName, _ := excelize.ColumnNumberToName(len(headers))
	return f.SetColWidth(sheet, "A", colName, 18)
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// ReportFileName names the download for the given range.
func ReportFileName(from, to production.Day, now time.Time) string {
	return fmt.Sprintf("QC_Report_%s_%s_%s.xlsx", from, to, now.Format("150405"))
}
