// Package sequencer is the in-process execution engine for procedures.
//
// A Procedure is a forest of Instructions plus a Workspace of variables.
// Setup expands include-like instructions into a runtime tree and gives every
// node of that tree a stable pre-order index; the index is the identity used
// by everything outside the engine. A Runner executes the root instruction
// synchronously on the calling goroutine and reports progress through the
// UserInterface callbacks, which may block (user input, pausing).
//
// Instruction behaviour is pluggable: the engine itself knows nothing about
// concrete instruction kinds, those are registered by modules.
package sequencer
