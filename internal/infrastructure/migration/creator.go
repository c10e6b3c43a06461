package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const fileTemplate = `-- Migration: {{.Name}}{{if .Down}} (Rollback){{end}}
-- Created: {{.Created}}
{{- if .Description}}
-- Description: {{.Description}}
{{- end}}

`

var (
	versionPrefix = regexp.MustCompile(`^([0-9]+)_`)
	nameStrip     = regexp.MustCompile(`[^a-z0-9]+`)
	tmpl          = template.Must(template.New("migration").Parse(fileTemplate))
)

// File describes a newly created migration pair
type File struct {
	Version  int
	Name     string
	UpPath   string
	DownPath string
}

// Create writes an empty up/down pair numbered after the highest existing
// version, e.g. 000003_add_coupons.up.sql
func Create(dir, name, description string) (*File, error) {
	name = SanitizeName(name)
	if name == "" {
		return nil, fmt.Errorf("migration name must contain letters or digits")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}
	existing, err := List(dir)
	if err != nil {
		return nil, err
	}

	next := 1
	for _, base := range existing {
		if v := parseVersion(base); v >= next {
			next = v + 1
		}
	}

	base := fmt.Sprintf("%06d_%s", next, name)
	f := &File{
		Version:  next,
		Name:     name,
		UpPath:   filepath.Join(dir, base+".up.sql"),
		DownPath: filepath.Join(dir, base+".down.sql"),
	}
	created := time.Now().Format(time.RFC3339)
	if err := writeFile(f.UpPath, name, description, created, false); err != nil {
		return nil, err
	}
	if err := writeFile(f.DownPath, name, description, created, true); err != nil {
		_ = os.Remove(f.UpPath)
		return nil, err
	}
	return f, nil
}

// List returns migration base names (without .up.sql) in version order
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, strings.TrimSuffix(e.Name(), ".up.sql"))
		}
	}
	sort.Slice(names, func(i, j int) bool { return parseVersion(names[i]) < parseVersion(names[j]) })
	return names, nil
}

// SanitizeName lower-cases a name and joins its words with underscores
func SanitizeName(name string) string {
	return strings.Trim(nameStrip.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

func parseVersion(base string) int {
	m := versionPrefix.FindStringSubmatch(base)
	if m == nil {
		return 0
	}
	v, _ := strconv.Atoi(m[1])
	return v
}

func writeFile(path, name, description, created string, down bool) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	return tmpl.Execute(f, map[string]any{
		"Name":        name,
		"Description": description,
		"Created":     created,
		"Down":        down,
	})
}
