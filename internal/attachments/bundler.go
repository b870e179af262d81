package attachments

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"reembolsos/internal/workspace"
	"reembolsos/pkg/types"

	"github.com/sirupsen/logrus"
)

// Bundler materializes uploaded receipts inside a submission's workspace.
type Bundler struct {
	logger logrus.FieldLogger
}

func NewBundler(logger logrus.FieldLogger) *Bundler {
	return &Bundler{logger: logger}
}

// Bundle is the ordered attachment list of one outgoing message.
type Bundle struct {
	// Paths holds the primary artifact first, then receipts in upload order.
	Paths []string

	temporary []string
	dir       string
	logger    logrus.FieldLogger
}

// Temporary lists the receipt files that Cleanup will remove.
func (b *Bundle) Temporary() []string {
	return b.temporary
}

// Bundle writes each receipt byte-for-byte into the workspace's receipts directory.
// On failure the receipts already written are removed again.
func (b *Bundler) Bundle(ws *workspace.Workspace, primary string, receipts []types.Receipt) (*Bundle, error) {
	bundle := &Bundle{
		Paths:  []string{primary},
		dir:    ws.ReceiptsDir(),
		logger: b.logger,
	}

	if len(receipts) == 0 {
		return bundle, nil
	}

	if err := os.MkdirAll(bundle.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create receipts dir: %w", err)
	}

	used := make(map[string]int, len(receipts))
	for i, receipt := range receipts {
		name := uniqueName(receiptName(receipt.FileName, i), used)
		path := filepath.Join(bundle.dir, name)

		if err := os.WriteFile(path, receipt.Data, 0o600); err != nil {
			bundle.Cleanup()
			return nil, fmt.Errorf("write receipt %q: %w", receipt.FileName, err)
		}

		bundle.Paths = append(bundle.Paths, path)
		bundle.temporary = append(bundle.temporary, path)
	}

	b.logger.WithFields(logrus.Fields{
		"workspace": ws.ID,
		"receipts":  len(bundle.temporary),
	}).Debug("receipts materialized")

	return bundle, nil
}

// Cleanup removes every materialized receipt. Failures are swallowed; the primary
// artifact is left in place for download. It returns the number of files removed.
func (b *Bundle) Cleanup() int {
	removed := 0
	for _, path := range b.temporary {
		if err := os.Remove(path); err != nil {
			b.logger.WithError(err).WithField("file", filepath.Base(path)).Debug("failed to remove receipt")
			continue
		}
		removed++
	}
	b.temporary = nil

	if b.dir != "" {
		_ = os.Remove(b.dir)
	}

	return removed
}

// receiptName keeps the uploaded base name, falling back to a positional name.
func receiptName(uploaded string, index int) string {
	name := filepath.Base(strings.ReplaceAll(uploaded, "\\", "/"))
	name = strings.TrimLeft(name, ".")
	if name == "" || name == "/" {
		return "comprovante_" + strconv.Itoa(index+1)
	}
	return name
}

func uniqueName(name string, used map[string]int) string {
	used[name]++
	if used[name] == 1 {
		return name
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for {
		candidate := stem + "_" + strconv.Itoa(used[name]) + ext
		if _, taken := used[candidate]; !taken {
			used[candidate] = 1
			return candidate
		}
		used[name]++
	}
}
