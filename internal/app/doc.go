// Package app assembles the retailcast server: configuration, structured
// logging, OpenTelemetry metrics, the forecast service, and the Chi
// router with its middleware chain.
package app
