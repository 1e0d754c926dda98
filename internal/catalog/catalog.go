// Package catalog embeds the system templates every tenant can use.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"DF-FORMS/internal/models"
)

//go:embed templates/*.json
var templateFS embed.FS

// SystemTemplates decodes every embedded template, sorted by file name.
// System templates never carry a tenant id.
func SystemTemplates() ([]*models.Template, error) {
	return load(templateFS, "templates")
}

func load(fsys fs.FS, dir string) ([]*models.Template, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read template catalog: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var out []*models.Template
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		raw, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", e.Name(), err)
		}
		var t models.Template
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", e.Name(), err)
		}
		t.TenantID = nil
		out = append(out, &t)
	}
	return out, nil
}
