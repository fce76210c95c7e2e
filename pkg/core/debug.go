package core

// DebugMode enables diagnostics such as duplicate-key warnings. It
// defaults to true in builds tagged loomdebug.
var DebugMode = debugBuild

// SetDebugMode enables or disables debug diagnostics.
func SetDebugMode(debug bool) {
	DebugMode = debug
}
