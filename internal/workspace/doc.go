// Package workspace manages the build output directory: preparing it,
// keeping writes inside it and copying source files into it.
package workspace
