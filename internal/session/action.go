// ABOUTME: Discrete action triggers delivered by the conversational transport
// ABOUTME: Compact action names survive transports with small callback payload limits

package session

// ActionName identifies a discrete trigger from an inline keyboard press.
// The names are kept short because some transports cap callback payloads.
type ActionName string

const (
	ActionAssets       ActionName = "ast"
	ActionAssetSection ActionName = "ast_sec"
	ActionAssetMode    ActionName = "ast_mode"
	ActionAssetsBack   ActionName = "ast_back"

	ActionBrowse     ActionName = "tax"
	ActionBrowseBack ActionName = "tax_back"

	ActionSection           ActionName = "tax_sec"
	ActionSectionBack       ActionName = "tax_sec_back"
	ActionAddSection        ActionName = "tax_add_sec"
	ActionRenameSection     ActionName = "tax_sec_ren"
	ActionDeleteSection     ActionName = "tax_sec_del"
	ActionConfirmDelSection ActionName = "tax_sec_del_yes"
	ActionCancelDelSection  ActionName = "tax_sec_del_no"

	ActionMode           ActionName = "tax_mode"
	ActionModeBack       ActionName = "tax_mode_back"
	ActionAddMode        ActionName = "tax_mode_add"
	ActionRenameMode     ActionName = "tax_mode_ren"
	ActionDeleteMode     ActionName = "tax_mode_del"
	ActionConfirmDelMode ActionName = "tax_mode_del_yes"
	ActionCancelDelMode  ActionName = "tax_mode_del_no"
)

// Action is one discrete trigger with its target entity IDs.
type Action struct {
	Name      ActionName
	SectionID string
	ModeID    string
}
