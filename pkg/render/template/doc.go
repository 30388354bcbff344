// Package template defines the template engine contract shared by the form
// renderer and the site pages. The pongo subpackage implements it.
package template
