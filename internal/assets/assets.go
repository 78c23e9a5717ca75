// ABOUTME: Name-keyed asset binding table with JSON persistence
// ABOUTME: Self-heals against a taxonomy snapshot on load and on demand

package assets

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/peakform/catalogd/internal/storage"
	"github.com/peakform/catalogd/internal/taxonomy"
)

// ErrUnknownSection is returned when writing to a section name that is not
// registered in the table.
var ErrUnknownSection = errors.New("unknown section")

// ErrUnknownMode is returned when writing to a mode name not registered under
// its section.
var ErrUnknownMode = errors.New("unknown mode")

// ErrNameConflict is returned when a rename target name is already occupied.
var ErrNameConflict = errors.New("target name already exists")

// Store owns the section-name -> mode-name -> reference table. A nil
// reference means the slot exists but no asset is bound. The store is keyed
// by display names, not IDs, because the delivery layer associates
// references by name.
type Store struct {
	mu     sync.Mutex
	doc    *storage.Document
	data   map[string]map[string]*string
	logger *slog.Logger
}

// Open acquires the asset document and loads it. If the file does not exist
// the table is built from the taxonomy snapshot with every slot unset. An
// existing table is reconciled against the snapshot: missing names are added
// unset, names absent from the snapshot are pruned.
func Open(path string, snapshot []taxonomy.Section, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		doc:    storage.NewDocument(path),
		logger: logger.With("component", "assets"),
	}
	if err := s.doc.Acquire(); err != nil {
		return nil, err
	}
	if err := s.load(snapshot); err != nil {
		s.doc.Release()
		return nil, err
	}
	return s, nil
}

// Close releases the document lock.
func (s *Store) Close() error {
	return s.doc.Release()
}

func (s *Store) load(snapshot []taxonomy.Section) error {
	exists, err := s.doc.Load(&s.data)
	if err != nil {
		return err
	}
	if !exists {
		s.data = defaultTable(snapshot)
		s.logger.Info("asset file missing, populating from taxonomy", "path", s.doc.Path(), "sections", len(s.data))
		return s.doc.Store(s.data)
	}
	if s.data == nil {
		s.data = make(map[string]map[string]*string)
	}
	repairs := s.reconcileLocked(snapshot)
	if repairs > 0 {
		s.logger.Info("asset table reconciled on load", "repairs", repairs)
		return s.doc.Store(s.data)
	}
	return nil
}

// Reconcile re-derives the table's key set from the snapshot: every
// section/mode name present (unset when newly added), nothing else. Returns
// the number of entries added or removed; the table is persisted only when
// that count is nonzero.
func (s *Store) Reconcile(snapshot []taxonomy.Section) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	repairs := s.reconcileLocked(snapshot)
	if repairs == 0 {
		return 0, nil
	}
	if err := s.doc.Store(s.data); err != nil {
		return 0, err
	}
	s.logger.Info("asset table reconciled", "repairs", repairs)
	return repairs, nil
}

func (s *Store) reconcileLocked(snapshot []taxonomy.Section) int {
	defaults := defaultTable(snapshot)
	repairs := 0

	for name, modes := range defaults {
		// A null entry in the persisted file decodes as a nil map; treat it
		// like a missing section so the repair below can write into it.
		stored, ok := s.data[name]
		if !ok || stored == nil {
			stored = make(map[string]*string, len(modes))
			s.data[name] = stored
			repairs++
		}
		for mode := range modes {
			if _, ok := stored[mode]; !ok {
				stored[mode] = nil
				repairs++
			}
		}
	}

	for name, stored := range s.data {
		valid, ok := defaults[name]
		if !ok {
			delete(s.data, name)
			repairs++
			continue
		}
		for mode := range stored {
			if _, ok := valid[mode]; !ok {
				delete(stored, mode)
				repairs++
			}
		}
	}

	return repairs
}

// Get returns the bound reference for the pair, or ("", false) when the slot
// is absent or unset. Reads never fail.
func (s *Store) Get(sectionName, modeName string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := s.data[sectionName][modeName]
	if ref == nil {
		return "", false
	}
	return *ref, true
}

// Set binds a reference to an existing section/mode slot and persists.
func (s *Store) Set(sectionName, modeName, reference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	modes, ok := s.data[sectionName]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSection, sectionName)
	}
	if _, ok := modes[modeName]; !ok {
		return fmt.Errorf("%w: %q in section %q", ErrUnknownMode, modeName, sectionName)
	}
	prev := modes[modeName]
	modes[modeName] = &reference
	if err := s.doc.Store(s.data); err != nil {
		modes[modeName] = prev
		return err
	}
	s.logger.Info("asset bound", "section", sectionName, "mode", modeName)
	return nil
}

// AddSection idempotently ensures the section's name exists with an unset
// slot per mode. Persists only when something changed.
func (s *Store) AddSection(section taxonomy.Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	modes := s.data[section.Name]
	changed := false
	if modes == nil {
		modes = make(map[string]*string, len(section.Modes))
		s.data[section.Name] = modes
		changed = true
	}
	for _, m := range section.Modes {
		if _, ok := modes[m.Name]; !ok {
			modes[m.Name] = nil
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.doc.Store(s.data)
}

// RenameSection moves the section's mode map under the new name key. A
// missing old name is a no-op; an occupied target fails with ErrNameConflict
// and leaves the table untouched.
func (s *Store) RenameSection(oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	modes, ok := s.data[oldName]
	if !ok {
		return nil
	}
	if newName == oldName {
		return nil
	}
	if _, taken := s.data[newName]; taken {
		return fmt.Errorf("%w: section %q", ErrNameConflict, newName)
	}
	delete(s.data, oldName)
	s.data[newName] = modes
	if err := s.doc.Store(s.data); err != nil {
		delete(s.data, newName)
		s.data[oldName] = modes
		return err
	}
	s.logger.Info("asset section renamed", "from", oldName, "to", newName)
	return nil
}

// DeleteSection removes the section entry. Persists only if a removal
// occurred.
func (s *Store) DeleteSection(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	modes, ok := s.data[name]
	if !ok {
		return nil
	}
	delete(s.data, name)
	if err := s.doc.Store(s.data); err != nil {
		s.data[name] = modes
		return err
	}
	s.logger.Info("asset section deleted", "section", name)
	return nil
}

// AddMode ensures an unset slot for the mode under the section. Persists
// only if the slot was added.
func (s *Store) AddMode(sectionName, modeName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	modes := s.data[sectionName]
	if modes == nil {
		modes = make(map[string]*string)
		s.data[sectionName] = modes
	}
	if _, ok := modes[modeName]; ok {
		return nil
	}
	modes[modeName] = nil
	return s.doc.Store(s.data)
}

// RenameMode moves the bound value under the new mode name. A missing
// section or old mode is a no-op; an occupied target fails with
// ErrNameConflict.
func (s *Store) RenameMode(sectionName, oldMode, newMode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	modes, ok := s.data[sectionName]
	if !ok {
		return nil
	}
	ref, ok := modes[oldMode]
	if !ok {
		return nil
	}
	if newMode == oldMode {
		return nil
	}
	if _, taken := modes[newMode]; taken {
		return fmt.Errorf("%w: mode %q in section %q", ErrNameConflict, newMode, sectionName)
	}
	delete(modes, oldMode)
	modes[newMode] = ref
	if err := s.doc.Store(s.data); err != nil {
		delete(modes, newMode)
		modes[oldMode] = ref
		return err
	}
	s.logger.Info("asset mode renamed", "section", sectionName, "from", oldMode, "to", newMode)
	return nil
}

// DeleteMode removes the mode slot. Persists only if removed.
func (s *Store) DeleteMode(sectionName, modeName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	modes, ok := s.data[sectionName]
	if !ok {
		return nil
	}
	ref, ok := modes[modeName]
	if !ok {
		return nil
	}
	delete(modes, modeName)
	if err := s.doc.Store(s.data); err != nil {
		modes[modeName] = ref
		return err
	}
	s.logger.Info("asset mode deleted", "section", sectionName, "mode", modeName)
	return nil
}

func defaultTable(snapshot []taxonomy.Section) map[string]map[string]*string {
	table := make(map[string]map[string]*string, len(snapshot))
	for _, sec := range snapshot {
		modes := make(map[string]*string, len(sec.Modes))
		for _, m := range sec.Modes {
			modes[m.Name] = nil
		}
		table[sec.Name] = modes
	}
	return table
}
