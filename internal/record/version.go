package record

// Version constants reported in the User-Agent header and the run journal.
const (
	// ToolName is the name of the command-line tool.
	ToolName = "pagesweep"

	// ToolVersion is the pagesweep release version.
	ToolVersion = "0.1.0"
)
