package commands

import (
	"github.com/spf13/cobra"

	"github.com/moasq/podmedic/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the repair MCP server over stdio",
	Long:  "Starts an MCP server exposing each repair as a typed tool call, so build agents can drive podmedic without parsing CLI output. Blocks until the client disconnects.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcpserver.Run(cmd.Context(), Version)
	},
}
