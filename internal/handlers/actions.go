package handlers

// Action types for logging and user updates
const (
	ActionCommandStart   = "command_start"
	ActionCommandHelp    = "command_help"
	ActionCommandInit    = "command_init"
	ActionCommandBan     = "command_ban"
	ActionCommandUnban   = "command_unban"
	ActionCommandStatus  = "command_status"
	ActionCommandVersion = "command_version"
	ActionSubmitPhoto    = "submit_photo"
	ActionSubmitVideo    = "submit_video"
)
