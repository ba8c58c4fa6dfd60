package batch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bassamadnan/mailpull/gmail"
	"github.com/charmbracelet/log"
)

// Writer stores each batch as <seq>_messages.txt inside Dir.
type Writer struct {
	dir    string
	logger *log.Logger
}

// NewWriter returns a Writer for dir. The directory is created on the
// first write.
func NewWriter(dir string, logger *log.Logger) *Writer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Writer{dir: dir, logger: logger}
}

// Path returns the file a batch with the given sequence number goes to.
func (w *Writer) Path(seq int) string {
	return filepath.Join(w.dir, fmt.Sprintf("%d_messages.txt", seq))
}

// WriteBatch renders records and stores them under seq. The file is
// written to a temporary name first and renamed into place, so readers
// never see a partial batch.
func (w *Writer) WriteBatch(records []gmail.Record, seq int) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(w.dir, fmt.Sprintf(".%d_messages-*.tmp", seq))
	if err != nil {
		return "", fmt.Errorf("create batch file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.WriteString(tmp, Format(records)+"\n\n"); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write batch %d: %w", seq, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return "", fmt.Errorf("chmod batch %d: %w", seq, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close batch %d: %w", seq, err)
	}

	path := w.Path(seq)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("store batch %d: %w", seq, err)
	}
	w.logger.Debug("wrote batch", "path", path, "records", len(records))
	return path, nil
}
