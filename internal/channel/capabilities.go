package channel

// These constructors reify the spec's "static factories" as plain value
// objects (§9 design notes): no process-wide mutable singleton, just a
// function returning a fresh Capabilities per call.

// SlackCapabilities describes Slack's feature surface.
func SlackCapabilities() Capabilities {
	return Capabilities{
		Text: true, RichMessages: true, Attachments: true, Reactions: true,
		Threads: true, Editing: true, Deleting: true, Typing: true, Files: true,
		Buttons: true, Menus: true, Modals: true, Ephemeral: true, Commands: true,
		MaxMessageLength: 40000, MaxFileSize: 1 << 30, MaxBlocksPerMessage: 50,
	}
}

// DiscordCapabilities describes Discord's feature surface.
func DiscordCapabilities() Capabilities {
	return Capabilities{
		Text: true, RichMessages: true, Attachments: true, Reactions: true,
		Threads: true, Editing: true, Deleting: true, Typing: true, Files: true,
		Buttons: true, Menus: true, Modals: true, Ephemeral: false, Commands: true,
		MaxMessageLength: 2000, MaxFileSize: 25 << 20, MaxBlocksPerMessage: 10,
	}
}

// TelegramCapabilities describes Telegram's feature surface.
func TelegramCapabilities() Capabilities {
	return Capabilities{
		Text: true, RichMessages: false, Attachments: true, Reactions: true,
		Threads: false, Editing: true, Deleting: true, Typing: true, Files: true,
		Buttons: true, Menus: false, Modals: false, Ephemeral: false, Commands: true,
		MaxMessageLength: 4096, MaxFileSize: 50 << 20, MaxBlocksPerMessage: 0,
	}
}

// TeamsCapabilities describes Microsoft Teams' feature surface.
func TeamsCapabilities() Capabilities {
	return Capabilities{
		Text: true, RichMessages: true, Attachments: true, Reactions: false,
		Threads: true, Editing: true, Deleting: true, Typing: false, Files: true,
		Buttons: true, Menus: true, Modals: true, Ephemeral: false, Commands: true,
		MaxMessageLength: 28000, MaxFileSize: 250 << 20, MaxBlocksPerMessage: 6,
	}
}

// WebhookCapabilities is a minimal capability set for generic inbound-only
// webhook platforms.
func WebhookCapabilities() Capabilities {
	return Capabilities{Text: true, RichMessages: false, Attachments: false}
}
