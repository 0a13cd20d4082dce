// Package uid generates identifiers.
//
// Snowflake ids are used for campaigns because they sort by creation time
// and fit in an int64. UUIDv7 strings are used for correlation ids.
package uid

// NumberID generates numeric identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}
