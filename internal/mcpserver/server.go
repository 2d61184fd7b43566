// Package mcpserver exposes the repair operations as MCP tools over stdio,
// so build agents can drive podmedic without shelling out to the CLI.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Run starts the podmedic MCP server over stdio.
// It blocks until the client disconnects or the context is cancelled.
func Run(ctx context.Context, version string) error {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "podmedic",
			Version: version,
		},
		nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "repair_bundle_identifiers",
		Description: "Repair duplicate PRODUCT_BUNDLE_IDENTIFIER values in the Runner project descriptor. Test targets get a .tests suffix, extra main targets a .app.N suffix. Backs the descriptor up first. Idempotent. Example: repair_bundle_identifiers(project_dir: \"/workspace/app\", base_identifier: \"com.example.myapp\")",
	}, handleRepairBundleIdentifiers)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "repair_pods_identifiers",
		Description: "Give placeholder-prefixed pod targets in Pods.xcodeproj unique .pod.<name> identifiers. Run after pod install when pods collide with the app identifier.",
	}, handleRepairPodsIdentifiers)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_info_plist",
		Description: "Check the Runner Info.plist for structural validity (plutil -lint) and the required keys. Read-only.",
	}, handleValidateInfoPlist)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "fix_info_plist",
		Description: "Insert missing or empty required keys into the Runner Info.plist with sensible defaults, then revalidate. Backs the plist up first.",
	}, handleFixInfoPlist)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reset_pods",
		Description: "Reset the CocoaPods environment: remove Podfile.lock, Pods/ and .symlinks/, regenerate the Podfile from the known-good template, then run pod install (falling back to a cache-clean retry). Backs the old Podfile up first.",
	}, handleResetPods)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "verify_toolchain",
		Description: "Verify the Xcode, iOS SDK and CocoaPods versions against the configured floors. Read-only; reports fatal and advisory findings.",
	}, handleVerifyToolchain)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "recover_project",
		Description: "Recover a missing or corrupt project.pbxproj: restore the newest valid backup, or regenerate the iOS platform directory with flutter create and reapply safe settings and dependencies.",
	}, handleRecoverProject)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "fix_scripts",
		Description: "Strip UTF-8 BOMs, normalize shebang lines and convert CRLF endings in the project's *.sh build scripts. Backs each changed script up first.",
	}, handleFixScripts)

	return server.Run(ctx, &mcp.StdioTransport{})
}
