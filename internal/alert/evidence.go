package alert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/event"
)

// DefaultEvidenceExt is the image format of evidence frames.
const DefaultEvidenceExt = "png"

// evidenceIDLen is how much of the event id is appended to file names so
// that alerts raised within the same millisecond do not share a file.
const evidenceIDLen = 8

// EvidencePath is {root}/{location}/{category}/{timestamp}_{id}.{ext}.
func EvidencePath(root string, ev event.Event, ext string) string {
	if ext == "" {
		ext = DefaultEvidenceExt
	}
	name := ev.Timestamp.Format(EvidenceTimeLayout)
	if id := strings.ReplaceAll(ev.ID, "-", ""); id != "" {
		name += "_" + id[:min(len(id), evidenceIDLen)]
	}
	name += "." + strings.TrimPrefix(ext, ".")
	return filepath.Join(root, sanitize(ev.Location), ev.Kind.Category(), name)
}

// sanitize keeps a location usable as a single path element.
func sanitize(location string) string {
	r := strings.NewReplacer("/", "_", `\`, "_", "..", "_")
	s := strings.TrimSpace(r.Replace(location))
	if s == "" {
		return "Unknown"
	}
	return s
}

// WriteEvidence saves frame at path, creating parent directories.
func WriteEvidence(path string, frame gocv.Mat) error {
	if frame.Empty() {
		return fmt.Errorf("write evidence: empty frame")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create evidence dir: %w", err)
	}
	if ok := gocv.IMWrite(path, frame); !ok {
		return fmt.Errorf("write evidence %s", path)
	}
	return nil
}
