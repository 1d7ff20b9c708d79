// Package model holds the user-facing mirror of procedures and jobs: the
// authored instruction trees and workspaces, and the job items that track
// one execution each. It is owned by the event loop goroutine and is not
// safe for concurrent use.
package model
