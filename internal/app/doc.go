// Package app assembles the server: it loads configuration, initializes
// logging, builds the store and services, registers the HTTP routes and
// manages graceful startup and shutdown.
package app
