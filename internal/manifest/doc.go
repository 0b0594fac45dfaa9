// Package manifest handles discovery, parsing and validation of plugin
// manifests. A plugin directory carries a plugin.yaml (or plugin.json)
// naming the plugin, its version and the entry file the runtime loads.
// Validation runs the document against an embedded JSON schema and checks
// the version fields with semver.
package manifest
