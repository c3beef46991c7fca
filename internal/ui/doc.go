// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for searching and downloading songs:
//  1. [QueryView] : Enter a search query
//  2. [SearchingView] : Wait for the aggregate search
//  3. [ResultsView] : Browse merged YouTube/Spotify results
//  4. [DownloadView] : Monitor real-time retrieval progress
//  5. [ResultView] : Display the saved file or the failure
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the DownloadEngine, providing non-blocking status reporting during retrievals.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
