package ir

// Version constants for the IR schema and tool.
const (
	// IRVersion is the IR schema version.
	IRVersion = "1"

	// ToolVersion is the shank extractor version.
	ToolVersion = "0.1.0"
)
