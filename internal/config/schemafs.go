package config

import "embed"

// SchemaFilename is the name of the embedded configuration schema.
const SchemaFilename = "swapnest-schema.json"

// SchemaFS contains the embedded configuration JSON schema.
//
//go:embed swapnest-schema.json
var SchemaFS embed.FS
