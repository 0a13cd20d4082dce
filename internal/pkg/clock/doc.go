// Package clock provides a small time abstraction.
//
// Business code depends on the Clocker interface instead of calling time.Now
// or time.Sleep directly. Tests swap in a fake clock that returns a fixed time
// and records requested pauses, so rate-limit and retry delays never slow
// down a test run.
package clock
