// Package runtime provides a reference environment for the metered
// interpreter. It executes code against an in-memory world state, runs
// nested calls and creations through one interpreter factory, and settles
// refunds, logs and suicides at the end of a top-level execution.
package runtime
