// ABOUTME: Catalog service pairing every taxonomy mutation with its asset-store call
// ABOUTME: Taxonomy commits first, then the asset side follows; conflicts surface as warnings

package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/peakform/catalogd/internal/assets"
	"github.com/peakform/catalogd/internal/audit"
	"github.com/peakform/catalogd/internal/metrics"
	"github.com/peakform/catalogd/internal/taxonomy"
)

// AuditLog is what the service needs from the mutation ledger. Appends are
// best-effort: a ledger failure never fails the mutation it records.
type AuditLog interface {
	Append(ctx context.Context, e audit.Entry) error
}

// SyncWarning reports that a taxonomy rename committed but the paired
// asset-store rename was rejected with a name conflict. The asset entry
// stays under the old name until the next reconciliation pass prunes it.
type SyncWarning struct {
	OldName string
	NewName string
}

func (w *SyncWarning) Error() string {
	return fmt.Sprintf("asset binding for %q could not follow rename to %q: target name occupied", w.OldName, w.NewName)
}

// Service coordinates the taxonomy and asset stores.
//
// Key principle: the taxonomy mutation commits and persists first, then the
// matching asset-store call is attempted with the names before and after the
// change. The inconsistency window is bounded by one paired operation and is
// re-derivable from the taxonomy at the next load.
type Service struct {
	taxonomy *taxonomy.Store
	assets   *assets.Store
	auditLog AuditLog
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates a catalog service. auditLog and m may be nil.
func New(tax *taxonomy.Store, ast *assets.Store, auditLog AuditLog, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		taxonomy: tax,
		assets:   ast,
		auditLog: auditLog,
		metrics:  m,
		logger:   logger.With("component", "catalog"),
	}
}

// Sections returns a snapshot of the taxonomy.
func (s *Service) Sections() []taxonomy.Section {
	return s.taxonomy.List()
}

// Section returns a copy of one section.
func (s *Service) Section(sectionID string) (taxonomy.Section, error) {
	return s.taxonomy.Get(sectionID)
}

// Mode returns the owning section copy and the mode.
func (s *Service) Mode(sectionID, modeID string) (taxonomy.Section, taxonomy.Mode, error) {
	return s.taxonomy.GetMode(sectionID, modeID)
}

// Asset returns the bound reference for a section/mode name pair.
func (s *Service) Asset(sectionName, modeName string) (string, bool) {
	return s.assets.Get(sectionName, modeName)
}

// SectionNameTaken reports whether another section already uses the name,
// compared case-insensitively. excludeID skips the section being renamed.
func (s *Service) SectionNameTaken(name, excludeID string) bool {
	for _, sec := range s.taxonomy.List() {
		if sec.ID != excludeID && strings.EqualFold(sec.Name, name) {
			return true
		}
	}
	return false
}

// ModeNameTaken reports whether a sibling mode in the section already uses
// the name, compared case-insensitively.
func (s *Service) ModeNameTaken(sectionID, name, excludeID string) bool {
	sec, err := s.taxonomy.Get(sectionID)
	if err != nil {
		return false
	}
	for _, m := range sec.Modes {
		if m.ID != excludeID && strings.EqualFold(m.Name, name) {
			return true
		}
	}
	return false
}

// AddSection creates a section and registers its (empty) asset slot set.
func (s *Service) AddSection(ctx context.Context, actor, name string) (taxonomy.Section, error) {
	sec, err := s.taxonomy.AddSection(name)
	if err != nil {
		return taxonomy.Section{}, err
	}
	if err := s.assets.AddSection(sec); err != nil {
		s.logger.Error("asset section registration failed", "section_id", sec.ID, "error", err)
	}
	s.record(audit.Entry{Actor: actor, Op: audit.OpAddSection, SectionID: sec.ID, SectionName: sec.Name})
	s.count(audit.OpAddSection)
	return sec, nil
}

// RenameSection renames the section and migrates its asset entry to the new
// name key. When the asset side reports a name conflict the taxonomy rename
// is kept and a SyncWarning is returned alongside the updated section.
func (s *Service) RenameSection(ctx context.Context, actor, sectionID, newName string) (taxonomy.Section, *SyncWarning, error) {
	prev, err := s.taxonomy.Get(sectionID)
	if err != nil {
		return taxonomy.Section{}, nil, err
	}
	sec, err := s.taxonomy.RenameSection(sectionID, newName)
	if err != nil {
		return taxonomy.Section{}, nil, err
	}

	var warning *SyncWarning
	if err := s.assets.RenameSection(prev.Name, sec.Name); err != nil {
		if !errors.Is(err, assets.ErrNameConflict) {
			return taxonomy.Section{}, nil, err
		}
		warning = &SyncWarning{OldName: prev.Name, NewName: sec.Name}
		s.logger.Warn("asset rename conflict, binding orphaned until next reconciliation",
			"section_id", sectionID, "old_name", prev.Name, "new_name", sec.Name)
		if s.metrics != nil {
			s.metrics.SyncConflicts.Inc()
		}
	}

	detail := "previous name: " + prev.Name
	if warning != nil {
		detail += "; asset binding orphaned"
	}
	s.record(audit.Entry{Actor: actor, Op: audit.OpRenameSection, SectionID: sec.ID, SectionName: sec.Name, Detail: detail})
	s.count(audit.OpRenameSection)
	return sec, warning, nil
}

// DeleteSection removes the section and cascades the removal to the asset
// table.
func (s *Service) DeleteSection(ctx context.Context, actor, sectionID string) (taxonomy.Section, error) {
	removed, err := s.taxonomy.DeleteSection(sectionID)
	if err != nil {
		return taxonomy.Section{}, err
	}
	if err := s.assets.DeleteSection(removed.Name); err != nil {
		s.logger.Error("asset section cleanup failed", "section", removed.Name, "error", err)
	}
	s.record(audit.Entry{Actor: actor, Op: audit.OpDeleteSection, SectionID: removed.ID, SectionName: removed.Name,
		Detail: fmt.Sprintf("removed %d modes", len(removed.Modes))})
	s.count(audit.OpDeleteSection)
	return removed, nil
}

// AddMode creates a mode and registers its unset asset slot.
func (s *Service) AddMode(ctx context.Context, actor, sectionID, name string) (taxonomy.Section, taxonomy.Mode, error) {
	sec, mode, err := s.taxonomy.AddMode(sectionID, name)
	if err != nil {
		return taxonomy.Section{}, taxonomy.Mode{}, err
	}
	if err := s.assets.AddMode(sec.Name, mode.Name); err != nil {
		s.logger.Error("asset mode registration failed", "section", sec.Name, "mode", mode.Name, "error", err)
	}
	s.record(audit.Entry{Actor: actor, Op: audit.OpAddMode, SectionID: sec.ID, SectionName: sec.Name, ModeID: mode.ID, ModeName: mode.Name})
	s.count(audit.OpAddMode)
	return sec, mode, nil
}

// RenameMode renames the mode and migrates its bound reference under the new
// name key, with the same conflict semantics as RenameSection.
func (s *Service) RenameMode(ctx context.Context, actor, sectionID, modeID, newName string) (taxonomy.Section, taxonomy.Mode, *SyncWarning, error) {
	_, prevMode, err := s.taxonomy.GetMode(sectionID, modeID)
	if err != nil {
		return taxonomy.Section{}, taxonomy.Mode{}, nil, err
	}
	sec, mode, err := s.taxonomy.RenameMode(sectionID, modeID, newName)
	if err != nil {
		return taxonomy.Section{}, taxonomy.Mode{}, nil, err
	}

	var warning *SyncWarning
	if err := s.assets.RenameMode(sec.Name, prevMode.Name, mode.Name); err != nil {
		if !errors.Is(err, assets.ErrNameConflict) {
			return taxonomy.Section{}, taxonomy.Mode{}, nil, err
		}
		warning = &SyncWarning{OldName: prevMode.Name, NewName: mode.Name}
		s.logger.Warn("asset rename conflict, binding orphaned until next reconciliation",
			"section_id", sectionID, "mode_id", modeID, "old_name", prevMode.Name, "new_name", mode.Name)
		if s.metrics != nil {
			s.metrics.SyncConflicts.Inc()
		}
	}

	detail := "previous name: " + prevMode.Name
	if warning != nil {
		detail += "; asset binding orphaned"
	}
	s.record(audit.Entry{Actor: actor, Op: audit.OpRenameMode, SectionID: sec.ID, SectionName: sec.Name, ModeID: mode.ID, ModeName: mode.Name, Detail: detail})
	s.count(audit.OpRenameMode)
	return sec, mode, warning, nil
}

// DeleteMode removes the mode and its asset slot.
func (s *Service) DeleteMode(ctx context.Context, actor, sectionID, modeID string) (taxonomy.Section, taxonomy.Mode, error) {
	sec, removed, err := s.taxonomy.DeleteMode(sectionID, modeID)
	if err != nil {
		return taxonomy.Section{}, taxonomy.Mode{}, err
	}
	if err := s.assets.DeleteMode(sec.Name, removed.Name); err != nil {
		s.logger.Error("asset mode cleanup failed", "section", sec.Name, "mode", removed.Name, "error", err)
	}
	s.record(audit.Entry{Actor: actor, Op: audit.OpDeleteMode, SectionID: sec.ID, SectionName: sec.Name, ModeID: removed.ID, ModeName: removed.Name})
	s.count(audit.OpDeleteMode)
	return sec, removed, nil
}

// BindAsset resolves the pair's current names from the IDs and binds the
// reference under them. Names recorded earlier in a conversation may be
// stale; resolution always happens at commit time.
func (s *Service) BindAsset(ctx context.Context, actor, sectionID, modeID, reference string) (taxonomy.Section, taxonomy.Mode, error) {
	sec, mode, err := s.taxonomy.GetMode(sectionID, modeID)
	if err != nil {
		return taxonomy.Section{}, taxonomy.Mode{}, err
	}
	if err := s.assets.Set(sec.Name, mode.Name, reference); err != nil {
		return taxonomy.Section{}, taxonomy.Mode{}, err
	}
	s.record(audit.Entry{Actor: actor, Op: audit.OpBindAsset, SectionID: sec.ID, SectionName: sec.Name, ModeID: mode.ID, ModeName: mode.Name})
	s.count(audit.OpBindAsset)
	return sec, mode, nil
}

// Reconcile runs a reconciliation pass of the asset table against the
// current taxonomy and returns the number of repairs.
func (s *Service) Reconcile() (int, error) {
	repairs, err := s.assets.Reconcile(s.taxonomy.List())
	if err != nil {
		return 0, err
	}
	if repairs > 0 && s.metrics != nil {
		s.metrics.ReconcileRepairs.Add(float64(repairs))
	}
	return repairs, nil
}

// record appends an audit entry with a detached timeout context so ledger
// persistence survives caller cancellation. Failures are logged, never
// returned.
func (s *Service) record(e audit.Entry) {
	if s.auditLog == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.auditLog.Append(ctx, e); err != nil {
		s.logger.Error("failed to record mutation", "op", e.Op, "section_id", e.SectionID, "error", err)
	}
}

func (s *Service) count(op audit.Op) {
	if s.metrics != nil {
		s.metrics.Mutations.WithLabelValues(string(op)).Inc()
	}
}
