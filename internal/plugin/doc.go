// Package plugin implements the plugin subsystem of the CLI: configuration
// resolution, the registry of accepted plugins, the loader pipeline that
// turns plugin directories into Plugin records, and the registrar that
// mounts plugin commands on the cobra command tree.
//
// The loader runs each candidate directory through a fixed sequence:
// manifest discovery, manifest validation, entry resolution, entry loading,
// configuration resolution and validation, initialization, and a command
// conflict check. A failure in any step rejects only that candidate.
// Initialization errors are the exception: the plugin is accepted with no
// commands.
//
// How an entry file becomes a Definition is left to an EntryLoader; see
// package runtime for the builtin, exec and node loaders.
package plugin
