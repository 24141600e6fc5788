// Package http contains the chi HTTP handlers for the stats API: file
// ingestion, partition and category listing, view computation, CSV export,
// and the selection state endpoints. Errors are rendered as RFC 7807
// problem details.
package http
