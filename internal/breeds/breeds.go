package breeds

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_breeds.json
var defaultBreeds []byte

// Set is the immutable collection of allowed breed names. The zero value is empty.
type Set struct {
	names []string
	index map[string]struct{}
}

// Record is one entry of a breed document.
type Record struct {
	Name string `json:"name" yaml:"name"`
}

// Source selects where Load reads breed records from.
type Source struct {
	// Location is empty for the embedded list, s3://bucket/key for an object,
	// or a local path. Local .yaml/.yml files decode as YAML, anything else as JSON.
	Location string
	S3       S3Options
}

func NewSet(names ...string) (Set, error) {
	s := Set{index: make(map[string]struct{}, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			return Set{}, errors.New("breed name is required")
		}
		if _, ok := s.index[n]; ok {
			continue
		}
		s.index[n] = struct{}{}
		s.names = append(s.names, n)
	}
	if len(s.names) == 0 {
		return Set{}, errors.New("breed list is empty")
	}
	sort.Strings(s.names)
	return s, nil
}

func (s Set) Contains(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Names returns the allowed breeds sorted by name.
func (s Set) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s Set) Len() int {
	return len(s.names)
}

// Load reads the breed set once. Any failure is meant to stop startup.
func Load(ctx context.Context, src Source) (Set, error) {
	loc := strings.TrimSpace(src.Location)
	var (
		data   []byte
		asYAML bool
		err    error
	)
	switch {
	case loc == "":
		data = defaultBreeds
	case strings.HasPrefix(loc, "s3://"):
		data, err = fetchS3(ctx, loc, src.S3)
		asYAML = isYAML(loc)
	default:
		data, err = os.ReadFile(loc)
		asYAML = isYAML(loc)
	}
	if err != nil {
		return Set{}, fmt.Errorf("read breeds %s: %w", describe(loc), err)
	}
	records, err := decode(data, asYAML)
	if err != nil {
		return Set{}, fmt.Errorf("parse breeds %s: %w", describe(loc), err)
	}
	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Name)
	}
	set, err := NewSet(names...)
	if err != nil {
		return Set{}, fmt.Errorf("breeds %s: %w", describe(loc), err)
	}
	return set, nil
}

func decode(data []byte, asYAML bool) ([]Record, error) {
	var records []Record
	if asYAML {
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, err
		}
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func isYAML(loc string) bool {
	switch strings.ToLower(filepath.Ext(loc)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func describe(loc string) string {
	if loc == "" {
		return "(embedded)"
	}
	return loc
}
