// Package editor holds the server-side state of the admin post form.
//
// Every input is addressed by a dotted path (content.body.1.subsections.0.subheading),
// the same convention the vanilla renderer uses for prefill values and error
// placement. Structural changes (add, remove, move) are expressed as actions
// submitted with the form, so the nested editors for summary items, body
// sections, subsections, hyperlinks and related studies need no client script.
package editor
