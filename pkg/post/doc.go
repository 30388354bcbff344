// Package post defines the article and video documents served by the remote
// content backend, together with the normalisation rules applied whenever a
// document is decoded from the wire.
//
// Decoding is intentionally lenient: backends have shipped summary and body
// blocks as null, as a single object, or as a bare string. After decoding (or an
// explicit call to Normalize) Content.Summary and Content.Body are always
// non-nil slices, so views and the admin editor never need nil checks.
package post
