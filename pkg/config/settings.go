package config

// Setting keys persisted in the state store.
const (
	KeyGlobalHotkeys         = "globalHotkeys"
	KeyContextOverlay        = "contextOverlay"
	KeyContextWatermark      = "contextWatermark"
	KeyReplaceIcons          = "replaceIcons"
	KeyHaulWorktype          = "haulUrgentlyWorktype"
	KeyFinishOffWorktype     = "finishOffWorktype"
	KeyExtendedContextAction = "extendedContextActionKey"
	KeyReverseDesignatorPick = "reverseDesignatorPick"
	KeyFinishOffUnforbids    = "finishOffUnforbids"
	KeyPartyHunt             = "partyHunt"
	KeyPartyHuntFinish       = "partyHuntFinish"
	KeyPartyHuntDesignated   = "partyHuntDesignated"
	KeyStorageSpaceAlert     = "storageSpaceAlert"
	KeyFinishOffSkill        = "finishOffSkill"
	KeySelectionLimit        = "selectionLimit"
)

// Per-definition key prefixes.
const (
	ToolPrefix    = "show"
	ReversePrefix = "showrev"
	MenuPrefix    = "contextmenu_"
)

// Selection limit bounds.
const (
	SelectionLimitDefault = 200
	SelectionLimitMin     = 50
	SelectionLimitMax     = 100000
)

// Setting groups.
const (
	GroupGeneral = "general"
	GroupTools   = "tools"
	GroupReverse = "reverse"
	GroupMenus   = "context_menus"
)

// Handle describes one boolean setting.
type Handle struct {
	Key     string `json:"key"`
	Group   string `json:"group"`
	Label   string `json:"label"`
	Default bool   `json:"default"`
	// Hidden handles are never listed for editing. They still resolve.
	Hidden  bool `json:"hidden,omitempty"`
	DevOnly bool `json:"dev_only,omitempty"`
}

// generalHandles is the fixed part of the settings catalog.
var generalHandles = []Handle{
	{Key: KeyGlobalHotkeys, Label: "Global hotkeys", Default: true},
	{Key: KeyContextOverlay, Label: "Context menu overlay", Default: true},
	{Key: KeyContextWatermark, Label: "Context menu watermark", Default: true},
	{Key: KeyReplaceIcons, Label: "Replace stock icons", Default: true},
	{Key: KeyHaulWorktype, Label: "Urgent haul work type", Default: true},
	{Key: KeyFinishOffWorktype, Label: "Finish off work type", Default: false},
	{Key: KeyExtendedContextAction, Label: "Extended context action key", Default: true},
	{Key: KeyReverseDesignatorPick, Label: "Reverse designator pick", Default: true},
	{Key: KeyFinishOffUnforbids, Label: "Finish off unforbids", Default: true},
	{Key: KeyPartyHunt, Label: "Party hunt", Default: true},
	{Key: KeyPartyHuntFinish, Label: "Party hunt: finish off", Default: true, Hidden: true},
	{Key: KeyPartyHuntDesignated, Label: "Party hunt: designated only", Default: false, Hidden: true},
	{Key: KeyStorageSpaceAlert, Label: "Storage space alert", Default: true},
	{Key: KeyFinishOffSkill, Label: "Finish off skill requirement", Default: true, DevOnly: true},
}

// ToolKey returns the enablement key for a tool definition.
func ToolKey(name string) string { return ToolPrefix + name }

// ReverseKey returns the enablement key for a reverse definition.
func ReverseKey(name string) string { return ReversePrefix + name }

// MenuKey returns the enablement key for a context menu entry.
func MenuKey(suffix string) string { return MenuPrefix + suffix }
