package main

// Command names
const (
	CmdNameRender   = "render"
	CmdNameValidate = "validate"
	CmdNameVersion  = "version"
	CmdNameHelp     = "help"
)

// Flag names - long form
const (
	FlagPath       = "path"
	FlagTemplate   = "template"
	FlagData       = "data"
	FlagDataFile   = "data-file"
	FlagConfig     = "config"
	FlagLayout     = "layout"
	FlagLayoutFile = "layout-file"
	FlagOutput     = "output"
	FlagFormat     = "format"
	FlagVerbose    = "verbose"
)

// Flag names - short form
const (
	FlagTemplateShort = "t"
	FlagDataShort     = "d"
	FlagDataFileShort = "f"
	FlagOutputShort   = "o"
	FlagFormatShort   = "F"
	FlagVerboseShort  = "v"
)

// Flag default values
const (
	FlagDefaultPath   = "."
	FlagDefaultOutput = "-" // stdout
	FlagDefaultFormat = "text"
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// Exit codes
const (
	ExitCodeSuccess         = 0
	ExitCodeError           = 1
	ExitCodeUsageError      = 2
	ExitCodeValidationError = 3
	ExitCodeInputError      = 4
)

// Input source indicators
const (
	InputSourceStdin = "-"
)

// Error messages - ALL must be constants
const (
	ErrMsgUnknownCommand    = "unknown command"
	ErrMsgMissingTemplate   = "template name required"
	ErrMsgInvalidFlags      = "invalid flags"
	ErrMsgInvalidJSON       = "invalid JSON data"
	ErrMsgLoadConfigFailed  = "failed to load configuration"
	ErrMsgCreateManager     = "failed to create view manager"
	ErrMsgRenderFailed      = "render failed"
	ErrMsgWriteOutputFailed = "failed to write output"
	ErrMsgInvalidFormat     = "invalid output format"
)

// Help text templates
const (
	HelpMainUsage = `views - template rendering CLI

Usage:
    views <command> [options]

Commands:
    render      Render a template by name
    validate    Compile a template without rendering it
    version     Show version information
    help        Show help for a command

Use "views help <command>" for more information about a command.`

	HelpRenderUsage = `Render a template by name

Usage:
    views render [options]

Options:
    --path <dir>            Template directory (default: ".")
    -t, --template <name>   Template name, extension optional
    -d, --data <json>       JSON data string
    -f, --data-file <file>  JSON data file (use "-" for stdin)
    --config <file>         YAML manager configuration
    --layout                Render inside the layout
    --layout-file <name>    Layout template name (default: "layout")
    -o, --output <file>     Output file (default: stdout)
    -v, --verbose           Log pipeline steps to stderr

Examples:
    views render --path templates -t users/show -d '{"name": "Alice"}'
    views render --path templates -t page --layout -f data.json
    echo '{"name": "Bob"}' | views render --path templates -t page -f -
    views render --config views.yaml -t page -o page.html`

	HelpValidateUsage = `Compile a template without rendering it

Usage:
    views validate [options]

Options:
    --path <dir>            Template directory (default: ".")
    -t, --template <name>   Template name, extension optional
    --config <file>         YAML manager configuration
    -F, --format <format>   Output format: text, json (default: text)

Examples:
    views validate --path templates -t users/show
    views validate --config views.yaml -t page -F json`

	HelpVersionUsage = `Show version information

Usage:
    views version [options]

Options:
    -F, --format <format>   Output format: text, json (default: text)`

	HelpHelpUsage = `Show help for a command

Usage:
    views help [command]

Commands:
    render      Show help for render command
    validate    Show help for validate command
    version     Show help for version command`
)

// Version output format templates
const (
	VersionTextTemplate = "views version %s\nCommit: %s\nBranch: %s\nBuilt: %s\nGo: %s"
	VersionUnknown      = "unknown"
	VersionsFileName    = "versions.yaml"
)

// Validation output
const (
	ValidationTextSuccess = "Template is valid"
	ValidationTextFailure = "Template is invalid"
)

// CLI metadata
const (
	CLIName        = "views"
	CLIDescription = "template rendering CLI"
)

// File permission constant
const (
	FilePermissions = 0644
)

// Format string constants
const (
	FmtErrorWithDetail = "%s: %s\n"
	FmtErrorWithCause  = "%s: %v\n"
	FmtNewline         = "\n"
)
