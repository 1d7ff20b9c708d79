// Package procfile loads procedures authored in HCL. It is responsible for
// file discovery, parsing, and the translation of procedure, instruction and
// variable blocks into model items.
package procfile
