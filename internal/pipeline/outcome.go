package pipeline

import (
	"path/filepath"
	"strings"

	"reembolsos/internal/convert"
	"reembolsos/pkg/types"
)

// Outcome describes what happened to one submission.
type Outcome struct {
	RequestID   string
	Spreadsheet string
	Conversion  convert.Result
	// Primary is the converted document when conversion succeeded, the spreadsheet otherwise.
	Primary     string
	Attachments []string
	Recipients  []string

	Mailed          bool
	MailErr         error
	ReceiptsRemoved int

	Notices []types.Notice
}

func (o *Outcome) addNotice(level types.NoticeLevel, text string) {
	o.Notices = append(o.Notices, types.Notice{Level: level, Text: text})
}

// Artifact is a generated file offered for download.
type Artifact struct {
	Label string
	Name  string
	Path  string
}

// Artifacts lists the downloadable files: the converted document when there is one, then the spreadsheet.
func (o *Outcome) Artifacts() []Artifact {
	var out []Artifact
	if o.Conversion.Converted() {
		out = append(out, Artifact{
			Label: "Baixar Resumo em " + strings.ToUpper(strings.TrimPrefix(filepath.Ext(o.Conversion.Path), ".")),
			Name:  filepath.Base(o.Conversion.Path),
			Path:  o.Conversion.Path,
		})
	}
	if o.Spreadsheet != "" {
		out = append(out, Artifact{
			Label: "Baixar Excel Completo",
			Name:  filepath.Base(o.Spreadsheet),
			Path:  o.Spreadsheet,
		})
	}
	return out
}
