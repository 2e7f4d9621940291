package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"aggrolog/engine/sim"
)

var (
	schemaOut  string
	schemaKind string
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Write the JSON schema for the fight input or augmented output",
	RunE:  writeSchemaFile,
}

func init() {
	schemaCmd.Flags().StringVar(&schemaOut, "out", "", "Path to write the JSON schema")
	schemaCmd.Flags().StringVar(&schemaKind, "kind", "input", "Which schema to emit: input or output")
	_ = schemaCmd.MarkFlagRequired("out")
}

func writeSchemaFile(cmd *cobra.Command, args []string) error {
	schema, err := buildSchema(schemaKind)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(schemaOut), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}
	tmpPath := schemaOut + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}
	if err := os.Rename(tmpPath, schemaOut); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}
	return nil
}

func buildSchema(kind string) (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	switch kind {
	case "input":
		schema := reflector.Reflect(new(sim.FightDocument))
		schema.Title = "Aggrolog Fight Document"
		schema.Description = "Validates the fight input consumed by aggrolog run"
		return schema, nil
	case "output":
		schema := reflector.Reflect(new(sim.Result))
		schema.Title = "Aggrolog Augmented Stream"
		schema.Description = "Describes the augmented event stream produced by aggrolog run"
		return schema, nil
	}
	return nil, fmt.Errorf("unknown schema kind %q", kind)
}
