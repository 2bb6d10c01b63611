// Package logging builds the process-wide slog logger. It offers a compact
// console format for interactive use and a JSON format for log files, and
// promotes well-known fields such as the component and queue item into a
// readable prefix.
package logging
