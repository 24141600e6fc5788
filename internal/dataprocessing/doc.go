// Package dataprocessing converts raw stats files into domain datasets.
//
// It has two responsibilities: classifying a file name into its
// (partition key, category) pair, and parsing tabular file contents into
// ordered row records. Both are pure operations with no shared state,
// which keeps ingestion trivially safe to run for many files at once.
package dataprocessing
