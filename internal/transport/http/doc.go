// Package http provides the HTTP transport layer: Chi-based handlers for
// sales data ingestion, forecast configuration, forecast generation, and
// health probes. All error responses follow RFC 7807 Problem Details.
package http
