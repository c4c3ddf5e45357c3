// Package app wires the application together: it owns the logger, loads the
// run configuration, constructs the generation pass collaborators, and runs
// one pass per invocation.
package app
