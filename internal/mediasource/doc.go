// Package mediasource asks the operator where the captured media lives and
// lists the files to import from it.
//
// Only the top level of the chosen directory is considered. Subdirectories
// are skipped, symlinks are followed, and no extension filtering is applied.
package mediasource
