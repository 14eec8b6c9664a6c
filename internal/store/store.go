// Package store persists named grid sections in a single TOML file.
//
// Besides the sections the file carries three reserved tables: [const] with
// named formula snippets, [remarks] with free text shown under the grid and
// [TUI] with display settings. Every mutation is written to disk before it
// returns.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// RandomGenerator picks the numeric suffix of new section names
type RandomGenerator interface {
	IntN(n int) int
}

// DefaultRandomGenerator uses the standard library's rand package
type DefaultRandomGenerator struct{}

func (d *DefaultRandomGenerator) IntN(n int) int {
	return rand.IntN(n)
}

// nameAttempts bounds the search for an unused section name
const nameAttempts = 16

// Options configures a Store
type Options struct {
	// Labels are the cell labels written into empty sections
	Labels []string
	Random RandomGenerator
	Logger *log.Logger
}

// Store is the section file. It is not safe for concurrent use.
type Store struct {
	path   string
	labels []string
	rng    RandomGenerator
	logger *log.Logger
	doc    *Document
}

// DefaultPath returns the section file path beside the running executable
func DefaultPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), DefaultFileName), nil
}

// Open loads the section file at path. a missing file is created with the
// default schema. once the file parses it is copied to path+".bak" before
// anything is written back. a malformed file returns a *ConfigError and
// leaves the previous backup alone.
func Open(path string, opts Options) (*Store, error) {
	s := &Store{
		path:   path,
		labels: opts.Labels,
		rng:    opts.Random,
		logger: opts.Logger,
	}
	if len(s.labels) == 0 {
		s.labels = DefaultLabels
	}
	if s.rng == nil {
		s.rng = &DefaultRandomGenerator{}
	}
	if s.logger == nil {
		s.logger = log.Default()
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		s.logger.Printf("store: creating %s with default schema", path)
		s.doc = DefaultDocument(s.labels)
		if err := s.write(); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, wrapInternal("stat section file", err)
	}

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	if err := s.backup(); err != nil {
		return nil, err
	}
	s.doc = doc

	if _, ok := s.doc.lookup(HomeSection); !ok {
		s.doc.Sections[HomeSection] = s.template()
		if err := s.write(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Path returns the file backing the store
func (s *Store) Path() string {
	return s.path
}

// BackupPath returns the startup backup location
func (s *Store) BackupPath() string {
	return s.path + BackupSuffix
}

// SetLabels changes the labels written into new empty sections. it is used
// once the grid size is known from the theme table.
func (s *Store) SetLabels(labels []string) {
	if len(labels) > 0 {
		s.labels = labels
	}
}

// Reload re-reads the file so edits made outside the program are seen. on a
// parse error the previous contents are kept.
func (s *Store) Reload() error {
	doc, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := doc.lookup(HomeSection); !ok {
		doc.Sections[HomeSection] = s.template()
	}
	s.doc = doc
	return nil
}

// Has reports whether a section exists
func (s *Store) Has(name string) bool {
	_, ok := s.doc.lookup(name)
	return ok
}

// Load returns a copy of a section's cells
func (s *Store) Load(name string) (map[string]string, bool) {
	key, ok := s.doc.lookup(name)
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(s.doc.Sections[key]))
	for label, text := range s.doc.Sections[key] {
		out[label] = text
	}
	return out, true
}

// Save merges cells into a section, creating it when missing. non-empty
// cells are stored; empty ones are removed from the section.
func (s *Store) Save(name string, cells map[string]string) error {
	name = strings.TrimSpace(name)
	if name == "" || IsReserved(name) {
		return NewApplicationError(InvalidArgument, MsgInvalidName)
	}

	key, ok := s.doc.lookup(name)
	if !ok {
		key = name
		s.doc.Sections[key] = map[string]string{}
	}
	section := s.doc.Sections[key]
	for label, text := range cells {
		s.doc.dropExtra(key, label)
		if strings.TrimSpace(text) == "" {
			delete(section, label)
		} else {
			section[label] = text
		}
	}
	return s.write()
}

// Create adds a section named "<base>_<NN>" with a random two digit suffix.
// it is either an empty template or a copy of base.
func (s *Store) Create(base string, clone bool) (string, error) {
	var source map[string]string
	if clone {
		key, ok := s.doc.lookup(base)
		if !ok {
			return "", NewApplicationError(NotFound, MsgSectionMissing)
		}
		source = s.doc.Sections[key]
	}

	name := ""
	for range nameAttempts {
		candidate := fmt.Sprintf("%s_%d", base, 10+s.rng.IntN(90))
		if !s.Has(candidate) {
			name = candidate
			break
		}
	}
	if name == "" {
		return "", NewApplicationError(AlreadyExists, MsgCreateFailed)
	}

	section := s.template()
	if clone {
		section = make(map[string]string, len(source))
		for label, text := range source {
			section[label] = text
		}
	}
	s.doc.Sections[name] = section
	s.logger.Printf("store: created section %q (clone=%v)", name, clone)
	return name, s.write()
}

// Delete removes a section. the home section cannot be removed.
func (s *Store) Delete(name string) error {
	if strings.EqualFold(strings.TrimSpace(name), HomeSection) {
		return NewApplicationError(FailedPrecondition, MsgDeleteHome)
	}
	key, ok := s.doc.lookup(name)
	if !ok {
		return NewApplicationError(NotFound, MsgSectionMissing)
	}
	delete(s.doc.Sections, key)
	delete(s.doc.tableExtra, key)
	s.logger.Printf("store: deleted section %q", key)
	return s.write()
}

// Rename moves a section to a new name
func (s *Store) Rename(oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" || IsReserved(newName) {
		return NewApplicationError(InvalidArgument, MsgInvalidName)
	}
	key, ok := s.doc.lookup(oldName)
	if !ok {
		return NewApplicationError(NotFound, MsgRenameFailed)
	}
	if key == HomeSection {
		return NewApplicationError(FailedPrecondition, MsgRenameFailed)
	}
	if existing, ok := s.doc.lookup(newName); ok && existing != key {
		return NewApplicationError(AlreadyExists, MsgRenameFailed)
	}

	section := s.doc.Sections[key]
	delete(s.doc.Sections, key)
	s.doc.Sections[newName] = section
	s.doc.moveExtra(key, newName)
	s.logger.Printf("store: renamed section %q to %q", key, newName)
	return s.write()
}

// Catalog returns the section names in sorted order
func (s *Store) Catalog() []string {
	return s.doc.catalog()
}

// Next returns the section after name in the catalog, or before it when
// reverse is set. the catalog wraps around. an unknown name counts as the
// first entry.
func (s *Store) Next(name string, reverse bool) string {
	names := s.doc.catalog()
	if len(names) == 0 {
		return HomeSection
	}
	idx := 0
	if key, ok := s.doc.lookup(name); ok {
		idx = slices.Index(names, key)
	}
	if reverse {
		idx = (idx - 1 + len(names)) % len(names)
	} else {
		idx = (idx + 1) % len(names)
	}
	return names[idx]
}

// Constants returns a copy of the constant table
func (s *Store) Constants() map[string]string {
	out := make(map[string]string, len(s.doc.Constants))
	for k, v := range s.doc.Constants {
		out[k] = v
	}
	return out
}

// Remarks returns the remark lines in key order
func (s *Store) Remarks() []string {
	return s.doc.remarkLines()
}

// Theme returns the display settings
func (s *Store) Theme() Theme {
	return s.doc.Theme
}

func (s *Store) template() map[string]string {
	section := make(map[string]string, len(s.labels))
	for _, label := range s.labels {
		section[label] = ""
	}
	return section
}

func (s *Store) read() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, wrapInternal("read section file", err)
	}
	return parse(s.path, data)
}

func parse(path string, data []byte) (*Document, error) {
	raw := map[string]any{}
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return decodeDocument(raw), nil
}

// write replaces the file atomically. on failure the in-memory document is
// ahead of the disk.
func (s *Store) write() error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s.doc.encode()); err != nil {
		return wrapInternal("encode section file", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*")
	if err != nil {
		return wrapInternal("write section file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return wrapInternal("write section file", err)
	}
	if err := tmp.Close(); err != nil {
		return wrapInternal("write section file", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return wrapInternal("write section file", err)
	}
	return nil
}

// backup copies the section file to the backup path
func (s *Store) backup() error {
	src, err := os.Open(s.path)
	if err != nil {
		return wrapInternal("open section file for backup", err)
	}
	defer src.Close()

	dst, err := os.Create(s.BackupPath())
	if err != nil {
		return wrapInternal("create backup", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return wrapInternal("write backup", err)
	}
	return dst.Close()
}
