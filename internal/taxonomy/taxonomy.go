// ABOUTME: Section/Mode tree with ID-stable CRUD and JSON persistence
// ABOUTME: Sole writer of the taxonomy document; mints collision-free entity IDs

package taxonomy

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/peakform/catalogd/internal/storage"
)

// ErrNotFound is returned when a section or mode ID does not exist.
var ErrNotFound = errors.New("not found")

// ErrMalformedDocument is returned when the persisted taxonomy file fails
// structural validation on load. It indicates on-disk corruption and is the
// one store error callers should treat as fatal at startup.
var ErrMalformedDocument = errors.New("malformed taxonomy document")

// Mode is a leaf catalog entry within a section. Identity is the ID; the
// name is display-only and may change.
type Mode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Section is a top-level catalog category. Mode order is insertion order and
// is meaningful for display only.
type Section struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Modes []Mode `json:"modes"`
}

// Clone returns a deep copy of the section.
func (s Section) Clone() Section {
	out := s
	out.Modes = make([]Mode, len(s.Modes))
	copy(out.Modes, s.Modes)
	return out
}

// Store owns the taxonomy tree. All operations serialize through one mutex;
// mutations persist to the backing document before returning.
type Store struct {
	mu       sync.Mutex
	doc      *storage.Document
	sections []Section
	logger   *slog.Logger
}

// Open acquires the taxonomy document, loads it (creating an empty taxonomy
// if the file does not exist), and upgrades any legacy entries in place.
// An upgrade triggers an immediate re-persist so the file is canonical after
// every successful Open.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		doc:    storage.NewDocument(path),
		logger: logger.With("component", "taxonomy"),
	}
	if err := s.doc.Acquire(); err != nil {
		return nil, err
	}
	if err := s.load(); err != nil {
		s.doc.Release()
		return nil, err
	}
	return s, nil
}

// Close releases the document lock.
func (s *Store) Close() error {
	return s.doc.Release()
}

func (s *Store) load() error {
	var raw any
	exists, err := s.doc.Load(&raw)
	if err != nil {
		if errors.Is(err, storage.ErrMalformed) {
			return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		return err
	}
	if !exists {
		s.sections = nil
		s.logger.Info("taxonomy file missing, initializing empty taxonomy", "path", s.doc.Path())
		return s.doc.Store([]Section{})
	}

	sections, upgraded, err := decodeDocument(raw)
	if err != nil {
		return err
	}
	s.sections = sections
	if upgraded {
		s.logger.Info("taxonomy document upgraded, re-persisting", "path", s.doc.Path(), "sections", len(sections))
		return s.doc.Store(s.sections)
	}
	return nil
}

// List returns a defensive copy of all sections.
func (s *Store) List() []Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Section, len(s.sections))
	for i, sec := range s.sections {
		out[i] = sec.Clone()
	}
	return out
}

// Get returns a copy of the section with the given ID.
func (s *Store) Get(sectionID string) (Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(sectionID)
	if i < 0 {
		return Section{}, fmt.Errorf("section %q: %w", sectionID, ErrNotFound)
	}
	return s.sections[i].Clone(), nil
}

// GetMode returns a copy of the owning section together with the mode.
func (s *Store) GetMode(sectionID, modeID string) (Section, Mode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(sectionID)
	if i < 0 {
		return Section{}, Mode{}, fmt.Errorf("section %q: %w", sectionID, ErrNotFound)
	}
	for _, m := range s.sections[i].Modes {
		if m.ID == modeID {
			return s.sections[i].Clone(), m, nil
		}
	}
	return Section{}, Mode{}, fmt.Errorf("mode %q in section %q: %w", modeID, sectionID, ErrNotFound)
}

// AddSection appends a new section with a freshly minted ID and no modes.
func (s *Store) AddSection(name string) (Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec := Section{ID: s.mintSectionID(), Name: name, Modes: []Mode{}}
	s.sections = append(s.sections, sec)
	if err := s.doc.Store(s.sections); err != nil {
		s.sections = s.sections[:len(s.sections)-1]
		return Section{}, err
	}
	s.logger.Info("section added", "section_id", sec.ID, "name", name)
	return sec.Clone(), nil
}

// RenameSection replaces the section's name in place. ID and modes are
// preserved. Sibling-name uniqueness is the caller's responsibility.
func (s *Store) RenameSection(sectionID, newName string) (Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(sectionID)
	if i < 0 {
		return Section{}, fmt.Errorf("section %q: %w", sectionID, ErrNotFound)
	}
	oldName := s.sections[i].Name
	s.sections[i].Name = newName
	if err := s.doc.Store(s.sections); err != nil {
		s.sections[i].Name = oldName
		return Section{}, err
	}
	s.logger.Info("section renamed", "section_id", sectionID, "from", oldName, "to", newName)
	return s.sections[i].Clone(), nil
}

// DeleteSection removes the section and all its modes, returning a snapshot
// of the removed section so the caller can drive asset cleanup.
func (s *Store) DeleteSection(sectionID string) (Section, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(sectionID)
	if i < 0 {
		return Section{}, fmt.Errorf("section %q: %w", sectionID, ErrNotFound)
	}
	removed := s.sections[i]
	s.sections = append(s.sections[:i], s.sections[i+1:]...)
	if err := s.doc.Store(s.sections); err != nil {
		s.sections = append(s.sections[:i], append([]Section{removed}, s.sections[i:]...)...)
		return Section{}, err
	}
	s.logger.Info("section deleted", "section_id", sectionID, "name", removed.Name, "modes", len(removed.Modes))
	return removed.Clone(), nil
}

// AddMode appends a mode to the section. The minted mode ID is unique across
// the entire taxonomy, not just within the section.
func (s *Store) AddMode(sectionID, name string) (Section, Mode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(sectionID)
	if i < 0 {
		return Section{}, Mode{}, fmt.Errorf("section %q: %w", sectionID, ErrNotFound)
	}
	mode := Mode{ID: s.mintModeID(), Name: name}
	s.sections[i].Modes = append(s.sections[i].Modes, mode)
	if err := s.doc.Store(s.sections); err != nil {
		s.sections[i].Modes = s.sections[i].Modes[:len(s.sections[i].Modes)-1]
		return Section{}, Mode{}, err
	}
	s.logger.Info("mode added", "section_id", sectionID, "mode_id", mode.ID, "name", name)
	return s.sections[i].Clone(), mode, nil
}

// RenameMode replaces the mode's name in place.
func (s *Store) RenameMode(sectionID, modeID, newName string) (Section, Mode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(sectionID)
	if i < 0 {
		return Section{}, Mode{}, fmt.Errorf("section %q: %w", sectionID, ErrNotFound)
	}
	for j, m := range s.sections[i].Modes {
		if m.ID != modeID {
			continue
		}
		oldName := m.Name
		s.sections[i].Modes[j].Name = newName
		if err := s.doc.Store(s.sections); err != nil {
			s.sections[i].Modes[j].Name = oldName
			return Section{}, Mode{}, err
		}
		s.logger.Info("mode renamed", "section_id", sectionID, "mode_id", modeID, "from", oldName, "to", newName)
		return s.sections[i].Clone(), s.sections[i].Modes[j], nil
	}
	return Section{}, Mode{}, fmt.Errorf("mode %q in section %q: %w", modeID, sectionID, ErrNotFound)
}

// DeleteMode removes the mode, returning the updated section and the removed
// mode snapshot.
func (s *Store) DeleteMode(sectionID, modeID string) (Section, Mode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(sectionID)
	if i < 0 {
		return Section{}, Mode{}, fmt.Errorf("section %q: %w", sectionID, ErrNotFound)
	}
	for j, m := range s.sections[i].Modes {
		if m.ID != modeID {
			continue
		}
		removed := m
		s.sections[i].Modes = append(s.sections[i].Modes[:j], s.sections[i].Modes[j+1:]...)
		if err := s.doc.Store(s.sections); err != nil {
			s.sections[i].Modes = append(s.sections[i].Modes[:j], append([]Mode{removed}, s.sections[i].Modes[j:]...)...)
			return Section{}, Mode{}, err
		}
		s.logger.Info("mode deleted", "section_id", sectionID, "mode_id", modeID, "name", removed.Name)
		return s.sections[i].Clone(), removed, nil
	}
	return Section{}, Mode{}, fmt.Errorf("mode %q in section %q: %w", modeID, sectionID, ErrNotFound)
}

func (s *Store) indexOf(sectionID string) int {
	for i, sec := range s.sections {
		if sec.ID == sectionID {
			return i
		}
	}
	return -1
}

// mintSectionID returns a fresh section ID not used by any live section.
func (s *Store) mintSectionID() string {
	used := make(map[string]struct{}, len(s.sections))
	for _, sec := range s.sections {
		used[sec.ID] = struct{}{}
	}
	return mintID("s", used)
}

// mintModeID returns a fresh mode ID unique across the whole taxonomy.
func (s *Store) mintModeID() string {
	used := make(map[string]struct{})
	for _, sec := range s.sections {
		for _, m := range sec.Modes {
			used[m.ID] = struct{}{}
		}
	}
	return mintID("m", used)
}

func mintID(prefix string, used map[string]struct{}) string {
	for {
		token := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
		candidate := prefix + token
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
}
