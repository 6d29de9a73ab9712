// Package exporter provides CSV export functionality for forecast reports.
//
// CSVWriter is the core writing layer, with optional UTF-8 BOM support for
// Excel compatibility. ForecastExporter renders forecast tables either to
// an io.Writer (HTTP downloads) or to a report file on disk.
package exporter
