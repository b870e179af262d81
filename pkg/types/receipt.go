package types

import (
	"path/filepath"
	"sort"
	"strings"
)

// Receipt is an uploaded proof of expense, kept in memory until the bundler writes it out.
type Receipt struct {
	FileName string
	Data     []byte
}

// AllowedReceiptExtensions mirrors the upload control's accept list.
var AllowedReceiptExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

func AllowedReceipt(fileName string) bool {
	_, ok := AllowedReceiptExtensions[NormalizeExt(filepath.Ext(fileName))]
	return ok
}

// AcceptAttr renders the allowed extensions for an <input type="file" accept="..."> attribute.
func AcceptAttr() string {
	exts := make([]string, 0, len(AllowedReceiptExtensions))
	for ext := range AllowedReceiptExtensions {
		exts = append(exts, "."+ext)
	}
	sort.Strings(exts)
	return strings.Join(exts, ",")
}
