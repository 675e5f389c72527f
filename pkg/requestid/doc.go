// Package requestid tags every API request with a correlation ID that is
// echoed in the X-Request-ID response header and attached to log records
// through LoggerExtractor.
package requestid
