// Package schemas embeds the JSON Schemas for slidestats configuration files.
package schemas

import _ "embed"

//go:embed config.schema.json
var ConfigSchemaJSON string
