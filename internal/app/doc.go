// Package app wires a chat session from configuration.
//
// It merges the optional config file with command-line values, composes the
// relay topology, connects the relay pool and builds the session loop,
// exposing them through Wire for the CLI to run and close.
package app
