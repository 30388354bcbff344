// Package api talks to the REST backend that owns posts and videos.
//
// The backend is opaque: responses may be bare JSON or wrapped in a
// {"data": ...} envelope, and documents are normalised at fetch time so the
// rest of the site can rely on non-nil collections.
package api
