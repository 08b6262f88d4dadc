// Package listview provides a generic, virtually scrolled list model for Bubble Tea.
// Only rows near the viewport are rendered, so large result sets open immediately.
package listview
