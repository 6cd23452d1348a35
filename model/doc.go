// Package model defines the shared value types of the grepgo scan pipeline.
//
// These types cross the boundary between the public API and the internal
// scan, matcher, and source packages. They are plain data: no hidden state,
// safe to copy, and safe to share across goroutines once constructed.
package model
