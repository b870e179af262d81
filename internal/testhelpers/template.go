package testhelpers

import (
	"io"

	g "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const TemplateSheet = "FORMULARIO_FI"

// WriteTemplate saves a minimal reimbursement template with the intake sheet and the
// column captions above both row blocks.
func WriteTemplate(path string) {
	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet(TemplateSheet)
	g.Expect(err).NotTo(g.HaveOccurred())

	g.Expect(f.SetCellValue(TemplateSheet, "B14", "Data")).To(g.Succeed())
	g.Expect(f.SetCellValue(TemplateSheet, "B38", "Data")).To(g.Succeed())
	g.Expect(f.SaveAs(path)).To(g.Succeed())
}

// Cell reads a single cell from the intake sheet of a saved workbook.
func Cell(path, ref string) string {
	f, err := excelize.OpenFile(path)
	g.Expect(err).NotTo(g.HaveOccurred())
	defer f.Close()

	v, err := f.GetCellValue(TemplateSheet, ref)
	g.Expect(err).NotTo(g.HaveOccurred())
	return v
}

func Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
