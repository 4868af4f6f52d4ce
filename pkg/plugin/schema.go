package plugin

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// InfoSchema is the JSON Schema the metadata returned by a guest's init
// call must satisfy before it is decoded. Schema validation catches shape
// problems (wrong types, missing fields, unknown fields); the name and
// version rules are enforced afterwards by ValidateInfo.
const InfoSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Plugin Info",
  "type": "object",
  "required": ["name", "description", "version", "commands"],
  "additionalProperties": false,
  "properties": {
    "name": {
      "type": "string",
      "minLength": 1
    },
    "description": {
      "type": "string"
    },
    "version": {
      "type": "string",
      "minLength": 1
    },
    "commands": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "usage", "description"],
        "additionalProperties": false,
        "properties": {
          "name": {
            "type": "string",
            "minLength": 1
          },
          "usage": {
            "type": "string"
          },
          "description": {
            "type": "string"
          }
        }
      }
    }
  }
}`

var infoSchemaLoader = gojsonschema.NewStringLoader(InfoSchema)

// decodeInfo validates the raw init payload against InfoSchema and decodes
// it into an Info.
func decodeInfo(data []byte) (*Info, error) {
	result, err := gojsonschema.Validate(infoSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("init payload is not valid JSON: %w", err)
	}
	if !result.Valid() {
		var errMsg string
		for i, verr := range result.Errors() {
			if i > 0 {
				errMsg += "; "
			}
			errMsg += verr.String()
		}
		return nil, fmt.Errorf("init payload schema violations: %s", errMsg)
	}

	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to decode init payload: %w", err)
	}
	if info.Commands == nil {
		info.Commands = []Command{}
	}
	return &info, nil
}
