// Package commands defines the nostrdm CLI.
//
// Commands
//
//   - nostrdm          Chat with one peer over NIP-17 direct messages
//   - nostrdm keygen   Generate a new identity and print its nsec and npub
//   - nostrdm relays   Print the relay topology a chat would use
//   - nostrdm version  Print the build version
//
// # Configuration
//
// Relay lists, one-shot mode, the log level and the send timeout can come
// from a TOML file given with --config. Flags are layered over the file and
// relay lists from both are merged. The log level can also be set with the
// NOSTRDM_LOG_LEVEL environment variable. Secret keys are never read from
// the config file: pass --nsec or answer the prompt.
package commands
