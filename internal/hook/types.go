// Package hook runs operator-supplied executables for every dispatched
// alert.
package hook

import (
	"encoding/json"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/event"
)

// ManifestFile is the manifest name looked up in each hook directory.
const ManifestFile = "hook.json"

// Manifest describes a hook's metadata and the alert kinds it handles.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Kinds       []string        `json:"kinds,omitempty"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Handles reports whether the hook wants alerts of kind k. An empty kind
// list means every kind.
func (m Manifest) Handles(k event.Kind) bool {
	if len(m.Kinds) == 0 {
		return true
	}
	for _, name := range m.Kinds {
		if name == k.Category() {
			return true
		}
	}
	return false
}

// Request is written as JSON to the hook's stdin.
type Request struct {
	Event  event.Event     `json:"event"`
	Config json.RawMessage `json:"config,omitempty"`
}

// Response is read as JSON from the hook's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}
