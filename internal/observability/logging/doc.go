// Package logging builds the process logger and carries request-scoped
// loggers through contexts.
//
// Output is JSON by default (LOG_FORMAT=text for local runs) and the level
// comes from LOG_LEVEL (debug, info, warn, error). Request ids set by the
// requestid middleware are attached with WithRequestID.
package logging
