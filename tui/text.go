package tui

// UI Text Constants
const (
	TextFooter       = "↑/↓ select | l toggle EN/中文 | t trigger job | q quit"
	TextFooterNoAuth = "↑/↓ select | l toggle EN/中文 | q quit (start with -secret to enable t)"
	TextNoItems      = "No briefing items yet."
)
