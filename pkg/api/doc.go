// Package api assembles the HTTP surface: middleware chain, public auth
// routes, and permission-gated catalog and social routes, plus a separate
// health/metrics server for probes.
package api
