package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DefaultMaxSectionDepth bounds subsection nesting when no explicit limit is
// configured.
const DefaultMaxSectionDepth = 16

// ErrInvalidTemplate is wrapped by every structural template error.
var ErrInvalidTemplate = errors.New("invalid template")

// SectionNode is one entry of the flattened section arena. Parent is -1 for
// top-level sections.
type SectionNode struct {
	Section  *Section
	Parent   int
	Children []int
	Depth    int
	Path     string // dotted ids from the root, e.g. "plan.objectives"
}

// SectionIndex is the arena form of a template's section tree.
type SectionIndex struct {
	Nodes []SectionNode
	Roots []int
}

// Lookup returns the node addressed by a dotted path.
func (idx *SectionIndex) Lookup(path string) (*SectionNode, bool) {
	for i := range idx.Nodes {
		if idx.Nodes[i].Path == path {
			return &idx.Nodes[i], true
		}
	}
	return nil, false
}

// BuildSectionIndex flattens the template's sections into an arena. It fails
// if the subsection graph is not a finite tree: a section reachable twice
// (shared or cyclic) or nested deeper than maxDepth.
func BuildSectionIndex(t *Template, maxDepth int) (*SectionIndex, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxSectionDepth
	}

	idx := &SectionIndex{}
	seen := make(map[*Section]string)

	var walk func(s *Section, parent, depth int, prefix string) (int, error)
	walk = func(s *Section, parent, depth int, prefix string) (int, error) {
		path := s.ID
		if prefix != "" {
			path = prefix + "." + s.ID
		}
		if first, ok := seen[s]; ok {
			return 0, fmt.Errorf("%w: section %q is reachable twice (first at %q); subsections must form a tree", ErrInvalidTemplate, path, first)
		}
		if depth > maxDepth {
			return 0, fmt.Errorf("%w: section %q exceeds maximum nesting depth %d", ErrInvalidTemplate, path, maxDepth)
		}
		seen[s] = path

		pos := len(idx.Nodes)
		idx.Nodes = append(idx.Nodes, SectionNode{Section: s, Parent: parent, Depth: depth, Path: path})
		for _, sub := range s.Subsections {
			if sub == nil {
				return 0, fmt.Errorf("%w: section %q has a nil subsection", ErrInvalidTemplate, path)
			}
			child, err := walk(sub, pos, depth+1, path)
			if err != nil {
				return 0, err
			}
			idx.Nodes[pos].Children = append(idx.Nodes[pos].Children, child)
		}
		return pos, nil
	}

	for _, s := range t.Sections {
		if s == nil {
			return nil, fmt.Errorf("%w: nil section", ErrInvalidTemplate)
		}
		root, err := walk(s, -1, 1, "")
		if err != nil {
			return nil, err
		}
		idx.Roots = append(idx.Roots, root)
	}
	return idx, nil
}

// ValidateTemplate checks the structural contract a template must satisfy
// before it can be registered.
func ValidateTemplate(t *Template, maxDepth int) error {
	if t == nil {
		return fmt.Errorf("%w: template is nil", ErrInvalidTemplate)
	}
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidTemplate)
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}
	if len(t.Sections) == 0 {
		return fmt.Errorf("%w: at least one section is required", ErrInvalidTemplate)
	}
	for _, f := range t.ExportFormats {
		if !f.Valid() {
			return fmt.Errorf("%w: unsupported export format %q", ErrInvalidTemplate, f)
		}
	}

	idx, err := BuildSectionIndex(t, maxDepth)
	if err != nil {
		return err
	}

	if err := uniqueIDs(idx, idx.Roots, "template"); err != nil {
		return err
	}
	for i := range idx.Nodes {
		node := &idx.Nodes[i]
		if err := validateSection(node); err != nil {
			return err
		}
		if err := uniqueIDs(idx, node.Children, node.Path); err != nil {
			return err
		}
	}
	return nil
}

func validateSection(node *SectionNode) error {
	s := node.Section
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: section under %q is missing an id", ErrInvalidTemplate, node.Path)
	}
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("%w: section %q is missing a title", ErrInvalidTemplate, node.Path)
	}
	if s.Type == "" {
		return fmt.Errorf("%w: section %q is missing a type", ErrInvalidTemplate, node.Path)
	}
	if !s.Type.Valid() {
		return fmt.Errorf("%w: section %q has unknown type %q", ErrInvalidTemplate, node.Path, s.Type)
	}
	if len(s.Subsections) > 0 && s.Type != SectionStructured {
		return fmt.Errorf("%w: section %q declares subsections but is of type %q", ErrInvalidTemplate, node.Path, s.Type)
	}
	if err := validateRules(node.Path, s.Validation); err != nil {
		return err
	}

	fieldIDs := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if strings.TrimSpace(f.ID) == "" || strings.TrimSpace(f.Label) == "" {
			return fmt.Errorf("%w: section %q has a field without id or label", ErrInvalidTemplate, node.Path)
		}
		if fieldIDs[f.ID] {
			return fmt.Errorf("%w: section %q has duplicate field %q", ErrInvalidTemplate, node.Path, f.ID)
		}
		fieldIDs[f.ID] = true
		if err := validateRules(node.Path+"."+f.ID, f.Validation); err != nil {
			return err
		}
	}
	return nil
}

func validateRules(path string, r *ValidationRules) error {
	if r == nil {
		return nil
	}
	if r.Pattern != "" {
		if _, err := regexp.Compile(r.Pattern); err != nil {
			return fmt.Errorf("%w: %q has an invalid pattern: %v", ErrInvalidTemplate, path, err)
		}
	}
	pairs := []struct {
		name     string
		min, max *int
	}{
		{"length", r.MinLength, r.MaxLength},
		{"items", r.MinItems, r.MaxItems},
		{"rows", r.MinRows, r.MaxRows},
	}
	for _, p := range pairs {
		if p.min != nil && *p.min < 0 {
			return fmt.Errorf("%w: %q has a negative minimum %s", ErrInvalidTemplate, path, p.name)
		}
		if p.min != nil && p.max != nil && *p.max < *p.min {
			return fmt.Errorf("%w: %q has maximum %s below its minimum", ErrInvalidTemplate, path, p.name)
		}
	}
	return nil
}

func uniqueIDs(idx *SectionIndex, members []int, scope string) error {
	ids := make(map[string]bool, len(members))
	for _, m := range members {
		id := idx.Nodes[m].Section.ID
		if ids[id] {
			return fmt.Errorf("%w: duplicate section id %q in %s", ErrInvalidTemplate, id, scope)
		}
		ids[id] = true
	}
	return nil
}
