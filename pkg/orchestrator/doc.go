// Package orchestrator wires the contract loader, operation parser, form
// model builder and renderer into a single Generate call used by the admin
// editor and the calculator pages.
package orchestrator
