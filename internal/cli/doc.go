// Package cli defines the Cobra command tree for the fnos CLI. Each file in
// this package registers one group of top-level commands (login, config,
// create-plugin, the API dispatch commands, etc.) with the root command.
// Plugin commands are mounted at startup from the plugin registry.
package cli
