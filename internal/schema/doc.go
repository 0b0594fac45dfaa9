// Package schema compiles JSON Schema documents into reusable checkers and
// reports violations as path/message pairs. It backs plugin configuration
// validation and the plugin manifest checks.
package schema
