package store

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// DefaultFileName is the section file kept beside the executable
	DefaultFileName = ".func.toml"

	// BackupSuffix is appended to the section file name for the startup backup
	BackupSuffix = ".bak"

	// HomeSection is loaded at startup and can never be deleted
	HomeSection = "0"

	ConstTable   = "const"
	RemarksTable = "remarks"
	ThemeTable   = "TUI"
)

var reservedTables = map[string]bool{
	strings.ToLower(ConstTable):   true,
	strings.ToLower(RemarksTable): true,
	strings.ToLower(ThemeTable):   true,
}

// IsReserved reports whether name is one of the non-section tables
func IsReserved(name string) bool {
	return reservedTables[strings.ToLower(strings.TrimSpace(name))]
}

// DefaultLabels are the cell labels of the 14 cell grid
var DefaultLabels = []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M", "N"}

// Theme is the [TUI] table
type Theme struct {
	Color     string
	Attribute string
	Step      int // rows moved per scroll tick
	Precision int // decimal places, -1 when unset
	Cells     int // grid size, 0 when unset
}

// DefaultTheme is written into a fresh section file
var DefaultTheme = Theme{Color: "Green", Attribute: "Underlined", Step: 1, Precision: -1}

// Document is the in-memory form of the section file
type Document struct {
	Sections  map[string]map[string]string
	Constants map[string]string
	Remarks   map[string]string
	Theme     Theme

	// entries the program does not read are written back untouched: extra
	// keys of the theme table, top-level values that are not tables and
	// non-scalar values inside a table, keyed by the table's written name
	themeExtra map[string]any
	extra      map[string]any
	tableExtra map[string]map[string]any
}

// DefaultDocument is the schema a missing file is initialised with
func DefaultDocument(labels []string) *Document {
	home := make(map[string]string, len(labels))
	for _, label := range labels {
		home[label] = ""
	}
	return &Document{
		Sections:  map[string]map[string]string{HomeSection: home},
		Constants: map[string]string{"k": "1000.0 # Thousand"},
		Remarks:   map[string]string{"R0": ""},
		Theme:     DefaultTheme,
	}
}

// decodeDocument splits the raw TOML tables into sections and the reserved
// tables. keys are kept as written; lookups are case-insensitive.
func decodeDocument(raw map[string]any) *Document {
	doc := &Document{
		Sections:   map[string]map[string]string{},
		Constants:  map[string]string{},
		Remarks:    map[string]string{},
		Theme:      Theme{Step: 1, Precision: -1},
		extra:      map[string]any{},
		tableExtra: map[string]map[string]any{},
	}

	for name, value := range raw {
		table, ok := value.(map[string]any)
		if !ok {
			doc.extra[name] = value
			continue
		}
		switch strings.ToLower(name) {
		case strings.ToLower(ConstTable):
			doc.Constants = doc.stringTable(ConstTable, table)
		case strings.ToLower(RemarksTable):
			doc.Remarks = doc.stringTable(RemarksTable, table)
		case strings.ToLower(ThemeTable):
			doc.Theme, doc.themeExtra = decodeTheme(table)
		default:
			doc.Sections[name] = doc.stringTable(name, table)
		}
	}
	return doc
}

// stringTable reads the scalar entries of a table as text. anything else is
// kept aside under name.
func (d *Document) stringTable(name string, table map[string]any) map[string]string {
	out := make(map[string]string, len(table))
	for k, v := range table {
		switch v := v.(type) {
		case string:
			out[k] = v
		case int64, float64, bool:
			out[k] = fmt.Sprint(v)
		default:
			if d.tableExtra[name] == nil {
				d.tableExtra[name] = map[string]any{}
			}
			d.tableExtra[name][k] = v
		}
	}
	return out
}

// withExtra merges the kept-aside entries of a table under its text entries
func (d *Document) withExtra(name string, table map[string]string) any {
	extra := d.tableExtra[name]
	if len(extra) == 0 {
		return table
	}
	out := make(map[string]any, len(table)+len(extra))
	for k, v := range extra {
		out[k] = v
	}
	for k, v := range table {
		out[k] = v
	}
	return out
}

// dropExtra forgets a kept-aside entry once the program writes that key
func (d *Document) dropExtra(name, key string) {
	delete(d.tableExtra[name], key)
}

// moveExtra follows a section rename
func (d *Document) moveExtra(from, to string) {
	if extra, ok := d.tableExtra[from]; ok {
		delete(d.tableExtra, from)
		d.tableExtra[to] = extra
	}
}

func decodeTheme(table map[string]any) (Theme, map[string]any) {
	theme := Theme{Step: 1, Precision: -1}
	extra := map[string]any{}
	for k, v := range table {
		switch strings.ToLower(k) {
		case "color":
			theme.Color, _ = v.(string)
		case "attribute":
			theme.Attribute, _ = v.(string)
		case "step":
			if n, ok := v.(int64); ok && n > 0 {
				theme.Step = int(n)
			}
		case "precision":
			if n, ok := v.(int64); ok && n >= 0 {
				theme.Precision = int(n)
			}
		case "cells":
			if n, ok := v.(int64); ok {
				theme.Cells = int(n)
			}
		default:
			extra[k] = v
		}
	}
	return theme, extra
}

// encode builds the map written to disk
func (d *Document) encode() map[string]any {
	out := make(map[string]any, len(d.Sections)+len(d.extra)+3)
	for k, v := range d.extra {
		out[k] = v
	}
	for name, section := range d.Sections {
		out[name] = d.withExtra(name, section)
	}
	out[ConstTable] = d.withExtra(ConstTable, d.Constants)
	out[RemarksTable] = d.withExtra(RemarksTable, d.Remarks)

	theme := make(map[string]any, len(d.themeExtra)+5)
	for k, v := range d.themeExtra {
		theme[k] = v
	}
	theme["color"] = d.Theme.Color
	theme["attribute"] = d.Theme.Attribute
	if d.Theme.Step > 1 {
		theme["step"] = int64(d.Theme.Step)
	}
	if d.Theme.Precision >= 0 {
		theme["precision"] = int64(d.Theme.Precision)
	}
	if d.Theme.Cells > 0 {
		theme["cells"] = int64(d.Theme.Cells)
	}
	out[ThemeTable] = theme
	return out
}

// lookup finds a section by name, exact match first
func (d *Document) lookup(name string) (string, bool) {
	if _, ok := d.Sections[name]; ok {
		return name, true
	}
	for key := range d.Sections {
		if strings.EqualFold(key, name) {
			return key, true
		}
	}
	return "", false
}

// catalog returns the section names in sorted order
func (d *Document) catalog() []string {
	names := make([]string, 0, len(d.Sections))
	for name := range d.Sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// remarkLines returns the remark values ordered by key
func (d *Document) remarkLines() []string {
	keys := make([]string, 0, len(d.Remarks))
	for k := range d.Remarks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = d.Remarks[k]
	}
	return lines
}
