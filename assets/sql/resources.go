// Package sqlassets embeds the schema, object and seed scripts for every supported SQL dialect.
package sqlassets

import (
	"embed"
	"fmt"
	"path"

	"gopkg.in/yaml.v3"
)

// Resource names understood by Source.Read.
const (
	Schema            = "schema"
	CourseObjects     = "course_objects"
	EnrollmentObjects = "enrollment_objects"
	StudentObjects    = "student_objects"
	DropTables        = "drop_tables"
	DemoData          = "demo_data"
)

// ObjectResources lists the object scripts in execution order.
var ObjectResources = []string{CourseObjects, EnrollmentObjects, StudentObjects}

//go:embed manifest.yaml mysql/*.sql postgres/*.sql sqlite/*.sql common/*.sql
var files embed.FS

type manifest struct {
	Dialects map[string]map[string]string `yaml:"dialects"`
}

// Source resolves resource names to script text for one dialect.
type Source struct {
	dialect string
	paths   map[string]string
}

// NewSource loads the manifest and selects dialect.
func NewSource(dialect string) (*Source, error) {
	raw, err := files.ReadFile("manifest.yaml")
	if err != nil {
		return nil, fmt.Errorf("read sql manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse sql manifest: %w", err)
	}
	paths, ok := m.Dialects[dialect]
	if !ok {
		return nil, fmt.Errorf("sql dialect %q not in manifest", dialect)
	}
	return &Source{dialect: dialect, paths: paths}, nil
}

// Dialect reports the selected dialect.
func (s *Source) Dialect() string {
	return s.dialect
}

// Read returns the raw text of the named resource.
func (s *Source) Read(name string) (string, error) {
	p, ok := s.paths[name]
	if !ok {
		return "", fmt.Errorf("sql resource %q not defined for %s", name, s.dialect)
	}
	b, err := files.ReadFile(path.Clean(p))
	if err != nil {
		return "", fmt.Errorf("read sql resource %s: %w", name, err)
	}
	return string(b), nil
}
