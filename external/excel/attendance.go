// Package excel renders attendance exports as xlsx workbooks.
package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/tallink-tennis/fuss-tracker/internal/domain/attendance"
	"github.com/tallink-tennis/fuss-tracker/internal/domain/group"
	"github.com/tallink-tennis/fuss-tracker/internal/usecase"
)

const (
	SheetTennis = "Tennis"
	SheetFuss   = "Füss"

	contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// AttendanceExporter writes one sheet per activity: a header row of dates
// and one row per player with the group and the Jah/Ei answers.
type AttendanceExporter struct{}

var _ usecase.AttendanceExporter = AttendanceExporter{}

func NewAttendanceExporter() AttendanceExporter {
	return AttendanceExporter{}
}

func (AttendanceExporter) ContentType() string   { return contentType }
func (AttendanceExporter) FileExtension() string { return ".xlsx" }

func (AttendanceExporter) Export(w io.Writer, in usecase.ExportInput) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetTennis); err != nil {
		return fmt.Errorf("rename default sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetFuss); err != nil {
		return fmt.Errorf("create %s sheet: %w", SheetFuss, err)
	}

	sheets := []struct {
		name   string
		marks  map[string]map[string]attendance.Mark
		groups map[string]group.Tag
	}{
		{SheetTennis, in.Attendance, in.TennisGroups},
		{SheetFuss, in.FussAttendance, in.FussGroups},
	}
	for _, s := range sheets {
		if err := writeSheet(f, s.name, header, in, s.marks, s.groups); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header int, in usecase.ExportInput, marks map[string]map[string]attendance.Mark, groups map[string]group.Tag) error {
	titles := []any{"Mängija", "Grupp"}
	for _, day := range in.Dates {
		titles = append(titles, day.Date+" ("+day.Weekday+")")
	}
	if err := setRow(f, sheet, 1, titles); err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(titles))
	if err != nil {
		return fmt.Errorf("%s: header range: %w", sheet, err)
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", header); err != nil {
		return fmt.Errorf("%s: style header: %w", sheet, err)
	}
	if err := f.SetColWidth(sheet, "A", "A", 24); err != nil {
		return fmt.Errorf("%s: column width: %w", sheet, err)
	}

	for i, player := range in.Players {
		row := []any{player, string(groups[player])}
		for _, day := range in.Dates {
			mark, ok := marks[day.Date][player]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, string(mark))
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("%s: row %d: %w", sheet, row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("%s: write row %d: %w", sheet, row, err)
	}
	return nil
}
