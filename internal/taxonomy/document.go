// ABOUTME: Decoder for the persisted taxonomy document
// ABOUTME: Upgrades legacy entries (bare names, missing or colliding IDs) on load

package taxonomy

import "fmt"

// decodeDocument validates the parsed JSON document and returns the section
// list plus whether any entry was upgraded and needs a re-persist.
//
// Accepted legacy shapes: a section given as a bare string (name only, no
// modes), a mode given as a bare string, and section/mode objects missing an
// "id" or carrying one that collides with an entry already seen. All of them
// receive freshly minted IDs.
func decodeDocument(raw any) ([]Section, bool, error) {
	entries, ok := raw.([]any)
	if !ok {
		return nil, false, fmt.Errorf("%w: top-level document must be a list", ErrMalformedDocument)
	}

	sections := make([]Section, 0, len(entries))
	usedSectionIDs := make(map[string]struct{})
	usedModeIDs := make(map[string]struct{})
	upgraded := false

	for _, entry := range entries {
		switch v := entry.(type) {
		case string:
			// Legacy format: bare section name, no modes.
			id := mintID("s", usedSectionIDs)
			usedSectionIDs[id] = struct{}{}
			sections = append(sections, Section{ID: id, Name: v, Modes: []Mode{}})
			upgraded = true

		case map[string]any:
			sec, secUpgraded, err := decodeSection(v, usedSectionIDs, usedModeIDs)
			if err != nil {
				return nil, false, err
			}
			upgraded = upgraded || secUpgraded
			sections = append(sections, sec)

		default:
			return nil, false, fmt.Errorf("%w: unsupported section entry", ErrMalformedDocument)
		}
	}

	return sections, upgraded, nil
}

func decodeSection(obj map[string]any, usedSectionIDs, usedModeIDs map[string]struct{}) (Section, bool, error) {
	name, ok := obj["name"].(string)
	if !ok {
		return Section{}, false, fmt.Errorf("%w: section name must be a string", ErrMalformedDocument)
	}

	upgraded := false
	id, ok := obj["id"].(string)
	if !ok {
		id = mintID("s", usedSectionIDs)
		upgraded = true
	}
	if _, taken := usedSectionIDs[id]; taken {
		id = mintID("s", usedSectionIDs)
		upgraded = true
	}
	usedSectionIDs[id] = struct{}{}

	modesRaw, present := obj["modes"]
	if !present {
		modesRaw = []any{}
	}
	modeEntries, ok := modesRaw.([]any)
	if !ok {
		return Section{}, false, fmt.Errorf("%w: section modes must be a list", ErrMalformedDocument)
	}

	modes := make([]Mode, 0, len(modeEntries))
	for _, entry := range modeEntries {
		mode, modeUpgraded, err := decodeMode(entry, usedModeIDs)
		if err != nil {
			return Section{}, false, err
		}
		upgraded = upgraded || modeUpgraded
		modes = append(modes, mode)
	}

	return Section{ID: id, Name: name, Modes: modes}, upgraded, nil
}

func decodeMode(entry any, usedModeIDs map[string]struct{}) (Mode, bool, error) {
	switch v := entry.(type) {
	case string:
		// Legacy format: bare mode name.
		id := mintID("m", usedModeIDs)
		usedModeIDs[id] = struct{}{}
		return Mode{ID: id, Name: v}, true, nil

	case map[string]any:
		name, ok := v["name"].(string)
		if !ok {
			return Mode{}, false, fmt.Errorf("%w: mode name must be a string", ErrMalformedDocument)
		}
		upgraded := false
		id, ok := v["id"].(string)
		if !ok {
			id = mintID("m", usedModeIDs)
			upgraded = true
		}
		if _, taken := usedModeIDs[id]; taken {
			id = mintID("m", usedModeIDs)
			upgraded = true
		}
		usedModeIDs[id] = struct{}{}
		return Mode{ID: id, Name: name}, upgraded, nil

	default:
		return Mode{}, false, fmt.Errorf("%w: mode entry must be a string or object", ErrMalformedDocument)
	}
}
