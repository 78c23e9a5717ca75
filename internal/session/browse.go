// ABOUTME: Read-only end-user browsing over the catalog
// ABOUTME: Renders choices and resolves a bound reference for delivery

package session

import (
	"context"
	"fmt"

	"github.com/peakform/catalogd/internal/assets"
	"github.com/peakform/catalogd/internal/catalog"
	"github.com/peakform/catalogd/internal/taxonomy"
)

// Browser serves the end-user navigation flow. It never mutates catalog
// state, with one exception: Repin, which lets the transport swap a local
// file reference for its served token after first delivery.
type Browser struct {
	svc     *catalog.Service
	baseDir string
}

// NewBrowser creates a browser. baseDir anchors relative local-file
// references.
func NewBrowser(svc *catalog.Service, baseDir string) *Browser {
	return &Browser{svc: svc, baseDir: baseDir}
}

// Delivery is a resolved mode selection ready for the transport to send.
type Delivery struct {
	Caption   string
	Reference string
	Kind      assets.RefKind
	// Resolved is the absolute path for local-file references, otherwise
	// the reference unchanged.
	Resolved string
}

// Root lists the sections as a choice keyboard. ok is false when the
// taxonomy is empty and there is nothing to offer.
func (b *Browser) Root() (Keyboard, bool) {
	sections := b.svc.Sections()
	if len(sections) == 0 {
		return nil, false
	}
	var kb Keyboard
	var row []Button
	for _, sec := range sections {
		row = append(row, Button{Label: sec.Name, Action: Action{Name: ActionSection, SectionID: sec.ID}})
		if len(row) == 2 {
			kb = append(kb, row)
			row = nil
		}
	}
	if len(row) > 0 {
		kb = append(kb, row)
	}
	return kb, true
}

// Section lists a section's modes.
func (b *Browser) Section(sectionID string) (taxonomy.Section, Keyboard, error) {
	sec, err := b.svc.Section(sectionID)
	if err != nil {
		return taxonomy.Section{}, nil, err
	}
	var kb Keyboard
	for _, m := range sec.Modes {
		kb = append(kb, []Button{{Label: m.Name, Action: Action{Name: ActionMode, SectionID: sec.ID, ModeID: m.ID}}})
	}
	kb = append(kb, []Button{{Label: "Back", Action: Action{Name: ActionBrowseBack}}})
	return sec, kb, nil
}

// Mode resolves a mode selection to its bound reference. ok is false when no
// asset is bound yet.
func (b *Browser) Mode(sectionID, modeID string) (Delivery, bool, error) {
	sec, mode, err := b.svc.Mode(sectionID, modeID)
	if err != nil {
		return Delivery{}, false, err
	}
	ref, ok := b.svc.Asset(sec.Name, mode.Name)
	if !ok {
		return Delivery{Caption: caption(sec, mode)}, false, nil
	}
	kind, resolved := assets.ClassifyRef(ref, b.baseDir)
	return Delivery{
		Caption:   caption(sec, mode),
		Reference: ref,
		Kind:      kind,
		Resolved:  resolved,
	}, true, nil
}

// Repin replaces the stored reference after delivery, keyed by the pair's
// current names. Used when a local file was uploaded and the transport
// handed back a reusable token.
func (b *Browser) Repin(ctx context.Context, sectionID, modeID, newReference string) error {
	_, _, err := b.svc.BindAsset(ctx, "delivery", sectionID, modeID, newReference)
	return err
}

func caption(sec taxonomy.Section, mode taxonomy.Mode) string {
	return fmt.Sprintf("%s · %s", sec.Name, mode.Name)
}
