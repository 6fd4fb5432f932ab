package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/esh22nika/Abhayam-Women-Safety/internal/region"
)

// ErrNoRegions is returned when the region file lists nothing to monitor.
var ErrNoRegions = errors.New("no regions configured")

// regionFile is the on-disk layout written by the region selection tool:
// {"regions": [[x, y, w, h], ...], "locations": {"1": "Lobby"}}.
type regionFile struct {
	Regions   [][]int           `json:"regions"`
	Locations map[string]string `json:"locations"`
}

// LoadRegions reads the region file. Region ids are the 1-based positions in
// the list; a region without a location entry is named region.UnknownLocation.
func LoadRegions(path string) ([]region.Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigLoadError{Path: path, Err: err}
	}
	return ParseRegions(path, data)
}

// ParseRegions decodes region file contents. path is only used for errors.
func ParseRegions(path string, data []byte) ([]region.Region, error) {
	var f regionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &ConfigLoadError{Path: path, Err: fmt.Errorf("parse: %w", err)}
	}
	if len(f.Regions) == 0 {
		return nil, &ConfigLoadError{Path: path, Err: ErrNoRegions}
	}

	regions := make([]region.Region, 0, len(f.Regions))
	for i, tuple := range f.Regions {
		if len(tuple) != 4 {
			return nil, &ConfigLoadError{
				Path: path,
				Err:  fmt.Errorf("region %d: want [x, y, w, h], got %d values", i+1, len(tuple)),
			}
		}

		id := i + 1
		location, ok := f.Locations[strconv.Itoa(id)]
		if !ok || location == "" {
			location = region.UnknownLocation
		}

		r := region.Region{
			ID:       id,
			X:        tuple[0],
			Y:        tuple[1],
			Width:    tuple[2],
			Height:   tuple[3],
			Location: location,
		}.Normalize()
		if r.Empty() {
			return nil, &ConfigLoadError{Path: path, Err: fmt.Errorf("region %d has zero area", id)}
		}
		regions = append(regions, r)
	}

	return regions, nil
}
