// Package logtail reads the end of the client's own log file for the TUI's
// log pane.
//
// Read keeps a ring buffer of the last maxLines lines, so memory stays
// bounded however large the file grows. Each line is parsed for the logrus
// level=... field so the pane can color warnings and errors.
//
//	lines, err := logtail.Read(cfg.LogFile, 200)
package logtail
