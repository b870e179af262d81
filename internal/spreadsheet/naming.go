package spreadsheet

import "strings"

const (
	outputPrefix    = "Reembolso_"
	unknownEmployee = "Desconhecido"
	SpreadsheetExt  = ".xlsx"
)

// BaseName derives the artifact name (without extension) from the employee name.
// Whitespace runs become a single underscore and path separators are neutralized.
func BaseName(employeeName string) string {
	name := strings.Join(strings.Fields(employeeName), "_")
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, name)
	name = strings.TrimLeft(name, ".")

	if name == "" {
		name = unknownEmployee
	}

	return outputPrefix + name
}

func OutputName(employeeName string) string {
	return BaseName(employeeName) + SpreadsheetExt
}
