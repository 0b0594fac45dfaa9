// Package scaffold generates new fnos CLI plugins from embedded templates. It
// powers the "fnos create-plugin" command, producing a plugin.yaml manifest and
// an entry point that speaks the plugin protocol for the chosen runtime.
package scaffold
