// Package runtime turns plugin entry files into plugin definitions. The
// Dispatcher picks a loader from the manifest's runtime field: builtin
// plugins are linked into the binary, exec plugins are executables speaking
// the JSON protocol of package sdk, and node plugins speak the same protocol
// through `node <entry>`.
package runtime
