// internal/flow/loader.go
package flow

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"

	apperrors "onboarding-engine/internal/common/errors"
)

// registrySchema is the JSON schema a file-loaded step registry must satisfy
// before structural validation in NewRegistry runs.
const registrySchema = `{
  "type": "object",
  "required": ["version", "steps"],
  "properties": {
    "version": {"type": "string"},
    "steps": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "kind"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "kind": {
            "type": "string",
            "enum": ["intro", "choice-grid", "free-text-search", "numeric",
                     "scaled-score", "month-picker", "auto-search",
                     "auto-match", "preview"]
          },
          "prompt": {"type": "string"},
          "flows": {
            "type": "array",
            "items": {
              "type": "string",
              "enum": ["find_university", "get_loan", "compare_universities"]
            }
          },
          "skipIf": {
            "type": "object",
            "required": ["stepId", "value"],
            "properties": {
              "stepId": {"type": "string", "minLength": 1},
              "value": {"type": "string"}
            }
          }
        }
      }
    }
  }
}`

type registryFile struct {
	Version string `json:"version"`
	Steps   []Step `json:"steps"`
}

// LoadRegistry reads a step registry from a JSON file, validates it against
// the registry schema and then structurally via NewRegistry. Any failure is
// a fatal configuration error.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewRegistryInvalidError(fmt.Sprintf("read %s: %v", path, err))
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(registrySchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, apperrors.NewRegistryInvalidError(fmt.Sprintf("schema validation: %v", err))
	}
	if !result.Valid() {
		details := ""
		for _, desc := range result.Errors() {
			if details != "" {
				details += "; "
			}
			details += desc.String()
		}
		return nil, apperrors.NewRegistryInvalidError(details)
	}

	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, apperrors.NewRegistryInvalidError(fmt.Sprintf("parse %s: %v", path, err))
	}

	return NewRegistry(file.Steps)
}
