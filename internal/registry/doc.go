// Package registry provides the central "glue" for the module system.
//
// The Registry maps the type names used in procedures (e.g. "Sequence",
// "Local") to the compiled Go factories that implement them. One Registry is
// constructed at application start, filled by the compiled-in modules and
// then passed to everything that needs to create domain objects. It is never
// reloaded while the application runs.
//
// A module failing to register is logged and skipped: the application keeps
// running without the capability that module would have provided.
package registry
