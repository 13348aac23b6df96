// Package http implements the HTTP transport layer of the sync server.
//
// It exposes route wiring, the wire-envelope endpoint, and middleware.
// Cross-cutting concerns such as request tracing and access logging are
// handled here before envelopes are delegated to the sync engine.
package http
