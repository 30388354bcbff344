// Package openapi exposes the contracts for loading the backend's OpenAPI
// description and extracting the operations the admin forms are built from.
// Implementations live under internal/openapi so kin-openapi types stay out
// of the public surface.
package openapi
