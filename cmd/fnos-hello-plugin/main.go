// Command fnos-hello-plugin serves the hello example plugin over the exec
// plugin protocol. Point a plugin.yaml with runtime "exec" at the built binary
// to load it as an external plugin.
package main

import (
	"github.com/fnos-labs/fnos-cli/internal/builtin/hello"
	"github.com/fnos-labs/fnos-cli/internal/sdk"
)

func main() {
	sdk.Main(hello.New())
}
