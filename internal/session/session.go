// ABOUTME: Per-conversation edit state machine for catalog administration
// ABOUTME: Holds transient edit intent until confirmed, cancelled, or abandoned

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/peakform/catalogd/internal/catalog"
	"github.com/peakform/catalogd/internal/taxonomy"
)

// State names the session's position in the edit flow.
type State string

const (
	StateIdle             State = "idle"
	StateChoosingCategory State = "choosing_category"
	StateChoosingMode     State = "choosing_mode"
	StateAwaitingAsset    State = "awaiting_asset_input"
	StateBrowsing         State = "browsing_taxonomy"
	StateSectionDetail    State = "section_detail"
	StateModeDetail       State = "mode_detail"
	StateAwaitingText     State = "awaiting_text_input"
	StateAwaitingConfirm  State = "awaiting_confirmation"
)

// Reply is what the transport should present after handling an input.
// Alert, when set, is a short toast-style notice (callback answers); Text
// plus Keyboard replace or follow the current message.
type Reply struct {
	Text     string
	Keyboard Keyboard
	Alert    string
}

// Session drives one conversation's multi-step edits. It holds no persisted
// data; every decision point re-reads the catalog, because another session
// may have renamed or deleted the same entity between turns.
type Session struct {
	svc    *catalog.Service
	actor  string
	logger *slog.Logger

	state State
	task  pendingTask

	// Asset-update flow context.
	assetSectionID string
	assetModeID    string

	// Taxonomy-management flow context.
	sectionID string
	modeID    string
}

// New creates an idle session for the given actor (transport identity used
// for audit attribution).
func New(svc *catalog.Service, actor string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		svc:    svc,
		actor:  actor,
		state:  StateIdle,
		logger: logger.With("component", "session", "actor", actor),
	}
}

// State returns the session's current state.
func (s *Session) State() State {
	return s.state
}

// Start resets the session and presents the admin root menu.
func (s *Session) Start() Reply {
	s.reset()
	return Reply{Text: "Choose an administration area:", Keyboard: rootMenu()}
}

// Cancel discards any pending edit intent and returns to idle.
func (s *Session) Cancel() Reply {
	s.reset()
	return Reply{Text: "Editing cancelled."}
}

func (s *Session) reset() {
	s.state = StateIdle
	s.task = nil
	s.assetSectionID = ""
	s.assetModeID = ""
	s.sectionID = ""
	s.modeID = ""
}

// HandleAction processes a discrete trigger. Store errors are mapped to
// user-facing replies; the session recovers toward the nearest stable
// browsing state rather than terminating.
func (s *Session) HandleAction(ctx context.Context, act Action) Reply {
	switch act.Name {
	case ActionAssets:
		sections := s.svc.Sections()
		if len(sections) == 0 {
			return Reply{Alert: "The catalog is empty. Add sections first."}
		}
		s.state = StateChoosingCategory
		return Reply{Text: "Choose a section to update:", Keyboard: assetSectionPicker(sections)}

	case ActionAssetsBack:
		if s.state == StateChoosingCategory {
			s.state = StateIdle
			return Reply{Text: "Choose an administration area:", Keyboard: rootMenu()}
		}
		s.state = StateChoosingCategory
		return Reply{Text: "Choose a section to update:", Keyboard: assetSectionPicker(s.svc.Sections())}

	case ActionAssetSection:
		sec, err := s.svc.Section(act.SectionID)
		if err != nil {
			return s.sectionGone()
		}
		s.assetSectionID = sec.ID
		s.state = StateChoosingMode
		return Reply{Text: fmt.Sprintf("%s: choose a mode to update", sec.Name), Keyboard: assetModePicker(sec)}

	case ActionAssetMode:
		sec, mode, err := s.svc.Mode(act.SectionID, act.ModeID)
		if err != nil {
			return s.modeGone()
		}
		s.assetSectionID = sec.ID
		s.assetModeID = mode.ID
		s.state = StateAwaitingAsset
		status := "not set"
		if _, ok := s.svc.Asset(sec.Name, mode.Name); ok {
			status = "set"
		}
		return Reply{Text: fmt.Sprintf("%s · %s\nCurrent asset: %s.\nSend the new media to update it, or cancel.", sec.Name, mode.Name, status)}

	case ActionBrowse:
		s.state = StateBrowsing
		return Reply{Text: "Catalog management. Choose a section:", Keyboard: sectionList(s.svc.Sections())}

	case ActionBrowseBack:
		s.state = StateIdle
		return Reply{Text: "Choose an administration area:", Keyboard: rootMenu()}

	case ActionAddSection:
		s.state = StateAwaitingText
		s.task = addSectionTask{}
		return Reply{Text: "Enter a name for the new section:"}

	case ActionSection:
		sec, err := s.svc.Section(act.SectionID)
		if err != nil {
			return s.sectionGone()
		}
		s.sectionID = sec.ID
		s.state = StateSectionDetail
		return s.sectionDetail(sec, "")

	case ActionSectionBack:
		s.state = StateBrowsing
		return Reply{Text: "Catalog management. Choose a section:", Keyboard: sectionList(s.svc.Sections())}

	case ActionRenameSection:
		sec, err := s.svc.Section(act.SectionID)
		if err != nil {
			return s.sectionGone()
		}
		s.state = StateAwaitingText
		s.task = renameSectionTask{sectionID: sec.ID, previousName: sec.Name}
		return Reply{Text: fmt.Sprintf("Enter a new name for section %q:", sec.Name)}

	case ActionDeleteSection:
		sec, err := s.svc.Section(act.SectionID)
		if err != nil {
			return s.sectionGone()
		}
		s.state = StateAwaitingConfirm
		s.task = deleteSectionTask{sectionID: sec.ID, name: sec.Name}
		return Reply{
			Text:     fmt.Sprintf("Delete section %q and all of its modes?", sec.Name),
			Keyboard: confirmKeyboard(ActionConfirmDelSection, ActionCancelDelSection, sec.ID, ""),
		}

	case ActionConfirmDelSection:
		task, ok := s.task.(deleteSectionTask)
		if !ok || task.sectionID != act.SectionID {
			// Stale confirmation: the session moved on since the prompt.
			return Reply{Alert: "This operation was already cancelled."}
		}
		if _, err := s.svc.DeleteSection(ctx, s.actor, task.sectionID); err != nil {
			if errors.Is(err, taxonomy.ErrNotFound) {
				return s.sectionGone()
			}
			s.logger.Error("section delete failed", "section_id", task.sectionID, "error", err)
			return Reply{Alert: "Could not delete the section. Try again."}
		}
		s.task = nil
		s.state = StateBrowsing
		return Reply{Text: "Section deleted. Choose a section:", Keyboard: sectionList(s.svc.Sections()), Alert: "Section deleted"}

	case ActionCancelDelSection:
		s.task = nil
		sec, err := s.svc.Section(act.SectionID)
		if err != nil {
			return s.sectionGone()
		}
		s.state = StateSectionDetail
		return s.sectionDetail(sec, "Cancelled")

	case ActionAddMode:
		sec, err := s.svc.Section(act.SectionID)
		if err != nil {
			return s.sectionGone()
		}
		s.state = StateAwaitingText
		s.task = addModeTask{sectionID: sec.ID}
		return Reply{Text: fmt.Sprintf("Enter a name for the new mode in section %q:", sec.Name)}

	case ActionMode:
		sec, mode, err := s.svc.Mode(act.SectionID, act.ModeID)
		if err != nil {
			return s.modeGone()
		}
		s.sectionID = sec.ID
		s.modeID = mode.ID
		s.state = StateModeDetail
		return Reply{Text: fmt.Sprintf("%s · %s. Choose an action:", sec.Name, mode.Name), Keyboard: modeMenu(sec, mode.ID)}

	case ActionModeBack:
		sectionID := s.sectionID
		if sectionID == "" {
			sectionID = act.SectionID
		}
		sec, err := s.svc.Section(sectionID)
		if err != nil {
			return s.sectionGone()
		}
		s.state = StateSectionDetail
		return s.sectionDetail(sec, "")

	case ActionRenameMode:
		sec, mode, err := s.svc.Mode(act.SectionID, act.ModeID)
		if err != nil {
			return s.modeGone()
		}
		s.state = StateAwaitingText
		s.task = renameModeTask{sectionID: sec.ID, modeID: mode.ID, previousName: mode.Name}
		return Reply{Text: fmt.Sprintf("Enter a new name for mode %q:", mode.Name)}

	case ActionDeleteMode:
		sec, mode, err := s.svc.Mode(act.SectionID, act.ModeID)
		if err != nil {
			return s.modeGone()
		}
		s.state = StateAwaitingConfirm
		s.task = deleteModeTask{sectionID: sec.ID, modeID: mode.ID, name: mode.Name}
		return Reply{
			Text:     fmt.Sprintf("Delete mode %q in section %q?", mode.Name, sec.Name),
			Keyboard: confirmKeyboard(ActionConfirmDelMode, ActionCancelDelMode, sec.ID, mode.ID),
		}

	case ActionConfirmDelMode:
		task, ok := s.task.(deleteModeTask)
		if !ok || task.sectionID != act.SectionID || task.modeID != act.ModeID {
			return Reply{Alert: "This operation was already cancelled."}
		}
		sec, _, err := s.svc.DeleteMode(ctx, s.actor, task.sectionID, task.modeID)
		if err != nil {
			if errors.Is(err, taxonomy.ErrNotFound) {
				return s.modeGone()
			}
			s.logger.Error("mode delete failed", "section_id", task.sectionID, "mode_id", task.modeID, "error", err)
			return Reply{Alert: "Could not delete the mode. Try again."}
		}
		s.task = nil
		s.modeID = ""
		s.state = StateSectionDetail
		reply := s.sectionDetail(sec, "Mode deleted")
		return reply

	case ActionCancelDelMode:
		s.task = nil
		sec, err := s.svc.Section(act.SectionID)
		if err != nil {
			return s.sectionGone()
		}
		s.state = StateSectionDetail
		return s.sectionDetail(sec, "Cancelled")
	}

	return Reply{Alert: "Unknown action."}
}

// HandleText processes free-text input. Outside of the text-awaiting state
// the input re-prompts without changing anything.
func (s *Session) HandleText(ctx context.Context, text string) Reply {
	if s.state == StateAwaitingAsset {
		return Reply{Text: "Please send a media attachment."}
	}
	if s.state != StateAwaitingText {
		return Reply{Text: "Use the menu buttons to navigate."}
	}

	text = trimName(text)
	if text == "" {
		return Reply{Text: "The name cannot be blank. Try again, or cancel."}
	}

	switch task := s.task.(type) {
	case addSectionTask:
		if s.svc.SectionNameTaken(text, "") {
			return Reply{Text: "A section with this name already exists."}
		}
		sec, err := s.svc.AddSection(ctx, s.actor, text)
		if err != nil {
			s.logger.Error("section add failed", "name", text, "error", err)
			return Reply{Text: "Could not create the section. Try again."}
		}
		s.finishTask(sec.ID, "")
		return s.sectionDetail(sec, fmt.Sprintf("Section %q created.", sec.Name))

	case renameSectionTask:
		if s.svc.SectionNameTaken(text, task.sectionID) {
			return Reply{Text: "Another section already uses this name."}
		}
		sec, warning, err := s.svc.RenameSection(ctx, s.actor, task.sectionID, text)
		if err != nil {
			if errors.Is(err, taxonomy.ErrNotFound) {
				return s.sectionGone()
			}
			s.logger.Error("section rename failed", "section_id", task.sectionID, "error", err)
			return Reply{Text: "Could not rename the section. Try again."}
		}
		s.finishTask(sec.ID, "")
		notice := fmt.Sprintf("Section renamed to %q.", sec.Name)
		if warning != nil {
			notice += " Warning: the asset binding could not follow the rename and will be rebuilt on the next reconciliation."
		}
		return s.sectionDetail(sec, notice)

	case addModeTask:
		if s.svc.ModeNameTaken(task.sectionID, text, "") {
			return Reply{Text: "A mode with this name already exists in this section."}
		}
		sec, mode, err := s.svc.AddMode(ctx, s.actor, task.sectionID, text)
		if err != nil {
			if errors.Is(err, taxonomy.ErrNotFound) {
				return s.sectionGone()
			}
			s.logger.Error("mode add failed", "section_id", task.sectionID, "error", err)
			return Reply{Text: "Could not create the mode. Try again."}
		}
		s.finishTask(sec.ID, "")
		return s.sectionDetail(sec, fmt.Sprintf("Mode %q added.", mode.Name))

	case renameModeTask:
		if s.svc.ModeNameTaken(task.sectionID, text, task.modeID) {
			return Reply{Text: "A mode with this name already exists."}
		}
		sec, mode, warning, err := s.svc.RenameMode(ctx, s.actor, task.sectionID, task.modeID, text)
		if err != nil {
			if errors.Is(err, taxonomy.ErrNotFound) {
				return s.modeGone()
			}
			s.logger.Error("mode rename failed", "section_id", task.sectionID, "mode_id", task.modeID, "error", err)
			return Reply{Text: "Could not rename the mode. Try again."}
		}
		s.finishTask(sec.ID, mode.ID)
		s.state = StateModeDetail
		notice := fmt.Sprintf("Mode renamed to %q.", mode.Name)
		if warning != nil {
			notice += " Warning: the asset binding could not follow the rename and will be rebuilt on the next reconciliation."
		}
		return Reply{Text: notice, Keyboard: modeMenu(sec, mode.ID)}
	}

	return Reply{Text: "Unknown operation. Cancel and try again."}
}

// HandleMedia processes a media input carrying an opaque reference token.
func (s *Session) HandleMedia(ctx context.Context, reference string) Reply {
	if s.state != StateAwaitingAsset {
		return Reply{Text: "Use the menu buttons to navigate."}
	}
	if s.assetSectionID == "" || s.assetModeID == "" {
		// Recovery is impossible without the recorded target.
		s.reset()
		return Reply{Text: "Could not determine the target mode. Start again."}
	}

	sec, mode, err := s.svc.BindAsset(ctx, s.actor, s.assetSectionID, s.assetModeID, reference)
	if err != nil {
		if errors.Is(err, taxonomy.ErrNotFound) {
			s.reset()
			return Reply{Text: "The mode no longer exists. Start again."}
		}
		s.logger.Error("asset bind failed", "section_id", s.assetSectionID, "mode_id", s.assetModeID, "error", err)
		return Reply{Text: "Could not store the asset. Try again."}
	}

	s.assetModeID = ""
	s.state = StateChoosingMode
	return Reply{
		Text:     fmt.Sprintf("Asset updated.\n%s: choose a mode to update", sec.Name),
		Keyboard: assetModePicker(sec),
		Alert:    fmt.Sprintf("Asset for %s updated", mode.Name),
	}
}

// finishTask clears the pending task and lands on the section detail state.
func (s *Session) finishTask(sectionID, modeID string) {
	s.task = nil
	s.sectionID = sectionID
	s.modeID = modeID
	s.state = StateSectionDetail
}

func (s *Session) sectionDetail(sec taxonomy.Section, notice string) Reply {
	text := fmt.Sprintf("Section %q. Choose an action:", sec.Name)
	if notice != "" {
		text = notice + "\n" + text
	}
	return Reply{Text: text, Keyboard: sectionMenu(sec), Alert: notice}
}

// sectionGone recovers from a concurrent section deletion or rename: it
// reports the loss and lands back on the section overview.
func (s *Session) sectionGone() Reply {
	s.task = nil
	s.sectionID = ""
	s.modeID = ""
	s.state = StateBrowsing
	return Reply{
		Text:     "The section no longer exists. Choose a section:",
		Keyboard: sectionList(s.svc.Sections()),
		Alert:    "Section not found",
	}
}

func trimName(text string) string {
	return strings.TrimSpace(text)
}

func (s *Session) modeGone() Reply {
	s.task = nil
	s.modeID = ""
	s.state = StateBrowsing
	return Reply{
		Text:     "The mode no longer exists. Choose a section:",
		Keyboard: sectionList(s.svc.Sections()),
		Alert:    "Mode not found",
	}
}
