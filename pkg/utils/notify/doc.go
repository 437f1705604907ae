// Package notify prints the human-readable progress lines of a kci run.
//
// Each message type has its own symbol and color: success (✔), error (✗),
// warning (⚠, highlighted), info (ℹ), activity (►) and stage titles with an emoji.
// A [Notifier] also mirrors every line into the debug log so the log file contains
// the full console transcript next to the command output it explains.
package notify
