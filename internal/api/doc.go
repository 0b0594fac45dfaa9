// Package api is the client for the fnOS management API. It provides the
// connection used by the built-in dispatch commands, the service factory
// handed to plugins, and the table of built-in "<group>.<command>" commands.
package api
