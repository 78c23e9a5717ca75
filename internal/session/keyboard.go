// ABOUTME: Transport-agnostic inline keyboard construction
// ABOUTME: Builders for the admin menus, pickers, and confirmation prompts

package session

import "github.com/peakform/catalogd/internal/taxonomy"

// Button is one pressable choice. The transport renders the label and sends
// the action back through the session router when pressed.
type Button struct {
	Label  string
	Action Action
}

// Keyboard is an ordered grid of buttons.
type Keyboard [][]Button

// rootMenu is the admin entry keyboard.
func rootMenu() Keyboard {
	return Keyboard{
		{{Label: "Assets", Action: Action{Name: ActionAssets}}},
		{{Label: "Catalog", Action: Action{Name: ActionBrowse}}},
	}
}

// assetSectionPicker lists sections for asset updates, two per row.
func assetSectionPicker(sections []taxonomy.Section) Keyboard {
	var kb Keyboard
	var row []Button
	for _, sec := range sections {
		row = append(row, Button{Label: sec.Name, Action: Action{Name: ActionAssetSection, SectionID: sec.ID}})
		if len(row) == 2 {
			kb = append(kb, row)
			row = nil
		}
	}
	if len(row) > 0 {
		kb = append(kb, row)
	}
	return append(kb, []Button{{Label: "Back", Action: Action{Name: ActionAssetsBack}}})
}

func assetModePicker(section taxonomy.Section) Keyboard {
	var kb Keyboard
	for _, m := range section.Modes {
		kb = append(kb, []Button{{Label: m.Name, Action: Action{Name: ActionAssetMode, SectionID: section.ID, ModeID: m.ID}}})
	}
	return append(kb, []Button{{Label: "Back", Action: Action{Name: ActionAssetsBack}}})
}

// sectionList is the taxonomy management overview.
func sectionList(sections []taxonomy.Section) Keyboard {
	var kb Keyboard
	for _, sec := range sections {
		kb = append(kb, []Button{{Label: sec.Name, Action: Action{Name: ActionSection, SectionID: sec.ID}}})
	}
	kb = append(kb, []Button{{Label: "Add section", Action: Action{Name: ActionAddSection}}})
	return append(kb, []Button{{Label: "Back", Action: Action{Name: ActionBrowseBack}}})
}

func sectionMenu(section taxonomy.Section) Keyboard {
	var kb Keyboard
	for _, m := range section.Modes {
		kb = append(kb, []Button{{Label: m.Name, Action: Action{Name: ActionMode, SectionID: section.ID, ModeID: m.ID}}})
	}
	kb = append(kb,
		[]Button{{Label: "Add mode", Action: Action{Name: ActionAddMode, SectionID: section.ID}}},
		[]Button{{Label: "Rename section", Action: Action{Name: ActionRenameSection, SectionID: section.ID}}},
		[]Button{{Label: "Delete section", Action: Action{Name: ActionDeleteSection, SectionID: section.ID}}},
		[]Button{{Label: "Back", Action: Action{Name: ActionSectionBack}}},
	)
	return kb
}

func modeMenu(section taxonomy.Section, modeID string) Keyboard {
	return Keyboard{
		{{Label: "Rename", Action: Action{Name: ActionRenameMode, SectionID: section.ID, ModeID: modeID}}},
		{{Label: "Delete", Action: Action{Name: ActionDeleteMode, SectionID: section.ID, ModeID: modeID}}},
		{{Label: "Back", Action: Action{Name: ActionModeBack, SectionID: section.ID}}},
	}
}

func confirmKeyboard(confirm, cancel ActionName, sectionID, modeID string) Keyboard {
	return Keyboard{{
		{Label: "Yes", Action: Action{Name: confirm, SectionID: sectionID, ModeID: modeID}},
		{Label: "No", Action: Action{Name: cancel, SectionID: sectionID, ModeID: modeID}},
	}}
}
