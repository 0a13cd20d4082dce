// Package validator provides a small validation abstraction for request and
// domain structs.
//
// Business code depends on the Validator interface. The go-playground v10
// implementation reports failures as a field-path to message map whose keys
// follow the snake_case JSON names, e.g. "recipients[2].name".
package validator
