// Package pun recognises pun-shaped posts and renders them as document
// entries.
//
// A pun post is a setup, a blank line, then a punchline. Entries are laid
// out as
//
//	01/02/2024
//	Why did the scarecrow win an award?
//		Because he was outstanding in his field.
//
// followed by a blank line. Format reports where each part landed in the
// rendered text so the caller can style it without recounting separators.
package pun
