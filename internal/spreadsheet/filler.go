package spreadsheet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"reembolsos/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

var (
	ErrTemplateNotFound = errors.New("template file not found")
	ErrSheetNotFound    = errors.New("template sheet not found")
)

// Filler writes a submission into a copy of the official reimbursement template.
type Filler struct {
	templatePath string
	layout       Layout
	logger       logrus.FieldLogger
}

func NewFiller(config *types.Config, logger logrus.FieldLogger) *Filler {
	return &Filler{
		templatePath: config.TemplatePath,
		layout:       LayoutFromConfig(config),
		logger:       logger,
	}
}

func (f *Filler) Layout() Layout {
	return f.layout
}

// CheckTemplate reports ErrTemplateNotFound when the template is absent.
func (f *Filler) CheckTemplate() error {
	st, err := os.Stat(f.templatePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrTemplateNotFound, f.templatePath)
		}
		return fmt.Errorf("stat template: %w", err)
	}
	if st.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrTemplateNotFound, f.templatePath)
	}
	return nil
}

// Fill writes sub into the template and saves the result in dir. It returns the output path.
// Nothing is written to dir when the template cannot be opened.
func (f *Filler) Fill(sub *types.Submission, dir string) (string, error) {
	if err := f.CheckTemplate(); err != nil {
		return "", err
	}

	wb, err := excelize.OpenFile(f.templatePath)
	if err != nil {
		return "", fmt.Errorf("open template: %w", err)
	}
	defer func() {
		if err := wb.Close(); err != nil {
			f.logger.WithError(err).Warn("failed to close template workbook")
		}
	}()

	if idx, _ := wb.GetSheetIndex(f.layout.Sheet); idx == -1 {
		return "", fmt.Errorf("%w: %q", ErrSheetNotFound, f.layout.Sheet)
	}

	w := &sheetWriter{wb: wb, sheet: f.layout.Sheet}

	h := f.layout.Header
	w.set(h.RequesterName, sub.RequesterName)
	w.set(h.RequesterEmail, sub.RequesterEmail)
	w.set(h.EmployeeName, sub.EmployeeName)
	w.set(h.EmployeeCPF, sub.EmployeeCPF)
	w.set(h.Level, sub.Level)
	w.set(h.SupplierCode, sub.SupplierCode)

	for i, row := range sub.Expenses {
		if i >= f.layout.Expense.Capacity {
			break
		}
		r := f.layout.Expense.FirstRow + i
		w.setRow(r, colExpenseDate, row.Date)
		w.setRow(r, colExpenseLedger, row.LedgerAccount)
		w.setRow(r, colExpenseCostCenter, row.CostCenter)
		w.setRow(r, colExpenseJustification, row.Justification)
		w.setRow(r, colExpenseQuantity, numericCell(row.Quantity))
		w.setRow(r, colExpenseAmount, numericCell(row.Amount))
	}

	for i, row := range sub.Mileage {
		if i >= f.layout.Mileage.Capacity {
			break
		}
		r := f.layout.Mileage.FirstRow + i
		w.setRow(r, colMileageDate, row.Date)
		w.setRow(r, colMileageLedger, row.LedgerAccount)
		w.setRow(r, colMileageCostCenter, row.CostCenter)
		w.setRow(r, colMileageRoute, row.Route)
		w.setRow(r, colMileageDistance, numericCell(row.Distance))
		w.setRow(r, colMileageRate, numericCell(row.Rate))
		w.setRow(r, colMileageAmount, numericCell(MileageAmount(row)))
	}

	if w.err != nil {
		return "", fmt.Errorf("write template cells: %w", w.err)
	}

	out := filepath.Join(dir, OutputName(sub.EmployeeName))
	if err := wb.SaveAs(out); err != nil {
		return "", fmt.Errorf("save spreadsheet: %w", err)
	}

	f.logger.WithFields(logrus.Fields{
		"file":         filepath.Base(out),
		"expense_rows": min(len(sub.Expenses), f.layout.Expense.Capacity),
		"mileage_rows": min(len(sub.Mileage), f.layout.Mileage.Capacity),
		"dropped_rows": dropped(len(sub.Expenses), f.layout.Expense.Capacity) + dropped(len(sub.Mileage), f.layout.Mileage.Capacity),
	}).Debug("spreadsheet filled")

	return out, nil
}

type sheetWriter struct {
	wb    *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) set(cell string, value any) {
	if w.err != nil {
		return
	}
	w.err = w.wb.SetCellValue(w.sheet, cell, value)
}

func (w *sheetWriter) setRow(row int, col string, value any) {
	w.set(col+strconv.Itoa(row), value)
}

func dropped(n, capacity int) int {
	if n > capacity {
		return n - capacity
	}
	return 0
}
