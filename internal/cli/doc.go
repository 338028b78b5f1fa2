// Package cli renders keel's command output.
//
// Every renderer supports three formats: a rounded go-pretty table for
// humans, and JSON or YAML for scripts. Long-running commands show a spinner
// on stderr unless --quiet is set.
package cli
