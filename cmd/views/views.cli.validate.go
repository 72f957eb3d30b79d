package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/itsatony/go-views"
)

// validateConfig holds parsed validate command configuration
type validateConfig struct {
	managerFlags
	templateName string
	format       string
}

// validationOutput represents JSON output for validation
type validationOutput struct {
	Valid    bool   `json:"valid"`
	Template string `json:"template"`
	Kind     string `json:"kind,omitempty"`
	Stage    string `json:"stage,omitempty"`
	Message  string `json:"message,omitempty"`
}

func runValidate(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseValidateFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidFlags, err)
		return ExitCodeUsageError
	}

	viewsCfg, err := cfg.loadConfig()
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgLoadConfigFailed, err)
		return ExitCodeInputError
	}

	logger := cfg.logger(stderr)
	defer func() { _ = logger.Sync() }()

	m, err := views.New(viewsCfg, views.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgCreateManager, err)
		return ExitCodeError
	}

	compileErr := m.Precompile(context.Background(), cfg.templateName)

	if cfg.format == OutputFormatJSON {
		return outputValidationJSON(cfg.templateName, compileErr, stdout)
	}
	return outputValidationText(compileErr, stdout)
}

func parseValidateFlags(args []string) (*validateConfig, error) {
	fs := flag.NewFlagSet(CmdNameValidate, flag.ContinueOnError)
	fs.SetOutput(io.Discard) // Suppress default error messages

	cfg := &validateConfig{}

	fs.StringVar(&cfg.path, FlagPath, FlagDefaultPath, "")
	fs.StringVar(&cfg.configPath, FlagConfig, "", "")
	fs.BoolVar(&cfg.verbose, FlagVerbose, false, "")
	fs.BoolVar(&cfg.verbose, FlagVerboseShort, false, "")
	fs.StringVar(&cfg.templateName, FlagTemplate, "", "")
	fs.StringVar(&cfg.templateName, FlagTemplateShort, "", "")
	fs.StringVar(&cfg.format, FlagFormat, FlagDefaultFormat, "")
	fs.StringVar(&cfg.format, FlagFormatShort, FlagDefaultFormat, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.templateName == "" {
		return nil, errors.New(ErrMsgMissingTemplate)
	}

	if cfg.format != OutputFormatText && cfg.format != OutputFormatJSON {
		return nil, errors.New(ErrMsgInvalidFormat)
	}

	return cfg, nil
}

func outputValidationText(compileErr error, stdout io.Writer) int {
	if compileErr == nil {
		fmt.Fprintln(stdout, ValidationTextSuccess)
		return ExitCodeSuccess
	}

	fmt.Fprintf(stdout, FmtErrorWithCause, ValidationTextFailure, compileErr)
	return ExitCodeValidationError
}

func outputValidationJSON(name string, compileErr error, stdout io.Writer) int {
	output := validationOutput{
		Valid:    compileErr == nil,
		Template: name,
	}

	if compileErr != nil {
		output.Message = compileErr.Error()
		var ve *views.ViewError
		if errors.As(compileErr, &ve) {
			output.Kind = string(ve.Kind)
			output.Stage = string(ve.Stage)
		}
	}

	jsonBytes, _ := json.MarshalIndent(output, "", "  ")
	fmt.Fprintln(stdout, string(jsonBytes))

	if !output.Valid {
		return ExitCodeValidationError
	}
	return ExitCodeSuccess
}
