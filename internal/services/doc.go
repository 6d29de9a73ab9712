// Package services contains the application service layer. ForecastService
// is the concurrency boundary around the data processor and forecast
// engine: the processing core is not thread-safe, so the service serializes
// all access behind a mutex and adds logging and business metrics.
package services
