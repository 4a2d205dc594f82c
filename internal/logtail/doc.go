// Package logtail reads the client's own log file back for display.
//
// # Reading
//
// Read returns the last N lines of a file using a ring buffer of N entries,
// so memory use does not depend on file size. A missing file is not an error;
// it simply has no lines yet.
//
//	lines, err := logtail.Read(cfg.LogFile, 200)
//
// # Parsing
//
// The logging package writes logrus JSON, one object per line. Parse pulls
// out the standard keys (time, level, msg, error) plus the "component" field
// every package attaches, and keeps the rest in Fields. Lines that are not
// JSON, such as a panic trace appended by the runtime, are kept verbatim in
// Raw.
//
// ParseLines applies a minimum level. logrus numbers levels from most severe
// (panic) to least (trace), so "at or above info" means Level <= InfoLevel.
//
// # Rendering
//
// Entry.String gives a compact single-line form for plain terminals. The TUI
// and the `shelf logs` command colour entries by level themselves.
package logtail
