package alert

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/event"
)

// Timestamp layouts used in logs and evidence file names.
const (
	LogTimeLayout      = "2006-01-02 15:04:05"
	EvidenceTimeLayout = "2006-01-02_15-04-05.000"
)

var (
	ViolenceHeader = []string{"Timestamp", "Action Detected", "Male Count", "Female Count", "Location"}
	GestureHeader  = []string{"Timestamp", "Location", "Image URL"}
)

// CSVLog is an append-only CSV file. The header is written when the file is
// empty. Appends are serialized, so concurrent callers never interleave rows.
type CSVLog struct {
	path   string
	header []string

	mu sync.Mutex
}

// NewCSVLog creates a log at path. The file is created on first append.
func NewCSVLog(path string, header []string) *CSVLog {
	return &CSVLog{path: path, header: header}
}

// Path returns the log file path.
func (l *CSVLog) Path() string {
	return l.path
}

// Append writes one row.
func (l *CSVLog) Append(row []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", l.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 && len(l.header) > 0 {
		if err := w.Write(l.header); err != nil {
			return err
		}
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("append %s: %w", l.path, err)
	}
	return nil
}

// ViolenceRow formats ev for the violence log.
func ViolenceRow(ev event.Event) []string {
	return []string{
		ev.Timestamp.Format(LogTimeLayout),
		ev.Kind.ActionText(),
		strconv.Itoa(ev.MaleCount),
		strconv.Itoa(ev.FemaleCount),
		ev.Location,
	}
}

// GestureRow formats ev for the gesture log.
func GestureRow(ev event.Event) []string {
	return []string{
		ev.Timestamp.Format(LogTimeLayout),
		ev.Location,
		ev.ImageURL,
	}
}
