// Package observability binds session lifecycle hooks to Prometheus collectors
// and structured logs.
package observability
