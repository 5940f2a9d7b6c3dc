// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Tool to generate the JSON schema of the deployment kit manifest.

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"maps"

	"github.com/alecthomas/kong"
	"github.com/invopop/jsonschema"
	"github.com/microsoft/roomsystems-media-tools/internal/exekong"
	"github.com/microsoft/roomsystems-media-tools/internal/file"
	"github.com/microsoft/roomsystems-media-tools/internal/logger"
	"github.com/microsoft/roomsystems-media-tools/internal/ptrutils"
	"github.com/microsoft/roomsystems-media-tools/mediacreatorapi"
	"github.com/microsoft/roomsystems-media-tools/pkg/mediacreatorlib"
)

type KitSchemaCmd struct {
	Output string `name:"output" short:"o" help:"Path to the output JSON schema file." required:""`
	exekong.LogFlags
}

func main() {
	cli := &KitSchemaCmd{}

	vars := kong.Vars{
		"version": mediacreatorlib.ToolVersion,
	}
	maps.Copy(vars, exekong.KongVars)

	_ = kong.Parse(cli,
		vars,
		kong.HelpOptions{
			Compact:   true,
			FlagsLast: true,
		},
		kong.UsageOnError())

	logger.InitBestEffort(ptrutils.PtrTo(cli.LogFlags.AsLoggerFlags()))

	err := generateJSONSchema(cli.Output)
	if err != nil {
		log.Fatalf("schema generation failed:\n%v", err)
	}

	fmt.Printf("JSON schema has been written to %s\n", cli.Output)
}

func generateJSONSchema(outputFile string) error {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
	}

	schema := reflector.Reflect(&mediacreatorapi.KitManifest{})
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	if err := file.Write(string(schemaJSON), outputFile); err != nil {
		return fmt.Errorf("failed to write schema to file: %w", err)
	}

	return nil
}
