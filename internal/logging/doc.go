// Package logging builds the root slog.Logger from configuration.
//
// Output always goes to stdout. When a log file is configured it is also
// written there through a lumberjack rotating writer.
package logging
