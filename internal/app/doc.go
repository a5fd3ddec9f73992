// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the regeneration lifecycle (bootstrap,
// discovery, concurrent regeneration, reformat), decoupled from the CLI.
package app
