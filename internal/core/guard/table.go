package guard

import (
	"strings"

	"loanlink-portal/internal/core/domain"
)

// Table holds the route specs of the portal
type Table struct {
	specs []Spec
	segs  [][]string
}

// NewTable builds a table. Patterns use ":name" for a single segment.
func NewTable(specs ...Spec) *Table {
	t := &Table{specs: specs, segs: make([][]string, len(specs))}
	for i, s := range specs {
		t.segs[i] = split(s.Pattern)
	}
	return t
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// matches compares segments case-insensitively, as the router does
func matches(pattern, path []string) bool {
	if len(pattern) != len(path) {
		return false
	}
	for i, p := range pattern {
		if strings.HasPrefix(p, ":") {
			if path[i] == "" {
				return false
			}
			continue
		}
		if !strings.EqualFold(p, path[i]) {
			return false
		}
	}
	return true
}

func (t *Table) match(segs []string) (Spec, bool) {
	for i, p := range t.segs {
		if matches(p, segs) {
			return t.specs[i], true
		}
	}
	return Spec{}, false
}

// Chain returns the specs of path and of each of its ancestors, root first.
// Sub-paths without a spec of their own (e.g. mutation endpoints) inherit
// the guards of their ancestors.
func (t *Table) Chain(path string) []Spec {
	segs := split(path)
	if len(segs) == 0 {
		if s, ok := t.match(nil); ok {
			return []Spec{s}
		}
		return nil
	}

	var chain []Spec
	for i := 1; i <= len(segs); i++ {
		if s, ok := t.match(segs[:i]); ok {
			chain = append(chain, s)
		}
	}
	return chain
}

// MenuItem is one navigation entry shown to the current viewer
type MenuItem struct {
	Path  string `json:"path"`
	Title string `json:"title"`
}

// Menu lists the parameterless routes under prefix that a viewer with the
// given identity and role would be allowed to open.
func (t *Table) Menu(prefix string, signedIn bool, role domain.Role) []MenuItem {
	var ident *domain.Identity
	if signedIn {
		ident = &domain.Identity{}
	}
	st := State{Identity: ident, Role: role}

	var items []MenuItem
	for _, s := range t.specs {
		if s.Title == "" || strings.Contains(s.Pattern, ":") || !strings.HasPrefix(s.Pattern, prefix) {
			continue
		}
		if Evaluate(s.Pattern, t.Chain(s.Pattern), st).Outcome == Allow {
			items = append(items, MenuItem{Path: s.Pattern, Title: s.Title})
		}
	}
	return items
}
