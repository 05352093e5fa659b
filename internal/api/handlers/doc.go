// Package handlers implements the HTTP API for snkr-price-watch.
//
// Business endpoints are registered through Huma for schema validation
// and OpenAPI generation; the operational probes (healthz, readyz) are
// plain Echo handlers outside the documented surface.
package handlers
