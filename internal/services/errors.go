package services

import "errors"

// Sentinel errors returned by the stats service. The HTTP layer maps
// these onto problem responses; everything else surfaces as an internal
// error.
var (
	// ErrPartitionNotFound means the requested partition key has never
	// been ingested.
	ErrPartitionNotFound = errors.New("partition key not found")

	// ErrInvalidCategory means the requested category is outside the
	// fixed category set.
	ErrInvalidCategory = errors.New("invalid category")

	// ErrNoData means no file has been ingested yet, so there is no
	// active selection to view.
	ErrNoData = errors.New("no data ingested")
)
