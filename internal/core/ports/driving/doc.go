// Package driving declares what the CLI, TUI and MCP server may ask of the
// core. internal/core/services implements every interface here.
package driving
