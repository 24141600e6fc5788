// Package services contains the application services sitting between the
// HTTP transport and the domain packages. Services hold no HTTP concerns;
// they return typed sentinel errors that the transport maps to problem
// responses.
package services
