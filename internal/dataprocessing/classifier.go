package dataprocessing

import (
	"errors"
	"path/filepath"
	"strings"

	"prepstats/pkg/contracts/domain"
)

// Classification errors. Files failing classification are dropped
// silently by callers; these errors exist so the caller can tell the two
// rejection reasons apart for logging and metrics.
var (
	// ErrMalformedName means the file name does not have the
	// <KEY>_<category>_<anything> shape.
	ErrMalformedName = errors.New("malformed stats file name")

	// ErrUnknownCategory means the name parsed but the category segment
	// is outside the fixed category set.
	ErrUnknownCategory = errors.New("unknown stats category")
)

// Classify derives the partition key and category from a stats file name
// of the form <KEY>_<category>_<anything>, e.g. "pa_batting_stats.csv".
// The key is uppercased and the category lowercased; the category must
// match the closed category set case-insensitively. Directory components
// are ignored so callers may pass full paths.
func Classify(fileName string) (domain.Classification, error) {
	base := filepath.Base(fileName)

	segments := strings.Split(base, "_")
	if len(segments) < 3 {
		return domain.Classification{}, ErrMalformedName
	}

	category, ok := domain.ParseCategory(segments[1])
	if !ok {
		return domain.Classification{}, ErrUnknownCategory
	}

	return domain.Classification{
		Key:      strings.ToUpper(segments[0]),
		Category: category,
	}, nil
}
