package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/probelab/swapnest/internal/config"
)

// ErrConfigInvalid indicates the config file failed schema validation.
var ErrConfigInvalid = errors.New("config failed schema validation")

// ValidateCommand holds the state for the validate command execution.
type ValidateCommand struct {
	schemaPath string
	noColor    bool
}

// NewValidateCommand creates the validate command with its flag set.
func NewValidateCommand() *cobra.Command {
	vc := &ValidateCommand{}

	cmd := &cobra.Command{
		Use:   "validate <config.yaml|->",
		Short: "Validate a config file against the embedded schema",
		Long: `Validate a swapnest YAML config file against the embedded JSON schema.

Examples:
  swapnest validate swapnest.yaml
  swapnest validate - < swapnest.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: vc.run,
	}

	cmd.Flags().StringVar(&vc.schemaPath, "schema", "", "Path to an alternate JSON schema (default: embedded)")
	cmd.Flags().BoolVar(&vc.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func (vc *ValidateCommand) run(cmd *cobra.Command, args []string) error {
	if vc.noColor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	}

	data, label, err := vc.readInput(cmd, args[0])
	if err != nil {
		return err
	}

	var doc any

	err = yaml.Unmarshal(data, &doc)
	if err != nil {
		return fmt.Errorf("parse %s: %w", label, err)
	}

	schemaLoader, err := vc.schemaLoader()
	if err != nil {
		return err
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	writer := cmd.OutOrStdout()

	if result.Valid() {
		color.New(color.FgGreen).Fprintf(writer, "config is valid (%s)\n", label)

		return nil
	}

	color.New(color.FgRed).Fprintf(writer, "config validation failed (%s)\n", label)

	for _, verr := range result.Errors() {
		color.New(color.FgRed).Fprintf(writer, "  - %s: %s\n", verr.Field(), verr.Description())
	}

	return ErrConfigInvalid
}

// readInput loads the config bytes from a file or, for "-", from stdin.
func (vc *ValidateCommand) readInput(cmd *cobra.Command, path string) ([]byte, string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}

		return data, "stdin", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read config: %w", err)
	}

	return data, path, nil
}

// schemaLoader returns the embedded schema unless an override path is set.
func (vc *ValidateCommand) schemaLoader() (gojsonschema.JSONLoader, error) {
	if vc.schemaPath == "" {
		schemaBytes, err := config.SchemaFS.ReadFile(config.SchemaFilename)
		if err != nil {
			return nil, fmt.Errorf("read embedded schema: %w", err)
		}

		return gojsonschema.NewBytesLoader(schemaBytes), nil
	}

	schemaBytes, err := os.ReadFile(vc.schemaPath)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}

	return gojsonschema.NewBytesLoader(schemaBytes), nil
}
