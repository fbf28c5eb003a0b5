// Package preview serves a built site locally and rebuilds it when the
// working tree changes.
package preview
