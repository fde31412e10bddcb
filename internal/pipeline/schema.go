// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pipeline

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const narrativesSchemaJSON = `{
  "type": "object",
  "required": ["narratives"],
  "properties": {
    "narratives": {
      "type": "array",
      "minItems": 4,
      "maxItems": 4,
      "items": {
        "type": "object",
        "required": ["id", "title", "description", "angle"],
        "properties": {
          "id": {"type": ["string", "integer"]},
          "title": {"type": "string", "minLength": 1},
          "description": {"type": "string", "minLength": 1},
          "angle": {"type": "string", "minLength": 1},
          "hook": {"type": "string"},
          "core_belief": {"type": "string"},
          "status_quo_challenged": {"type": "string"},
          "keywords": {"type": "array", "items": {"type": "string"}},
          "tone": {"type": "string"}
        }
      }
    }
  }
}`

const carouselV43SchemaJSON = `{
  "type": "object",
  "required": ["capa", "slides"],
  "properties": {
    "capa": {
      "type": "object",
      "required": ["titulo"],
      "properties": {
        "titulo": {"type": "string", "minLength": 1},
        "subtitulo": {"type": "string"}
      }
    },
    "slides": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["titulo", "corpo"],
        "properties": {
          "numero": {"type": "integer"},
          "tipo": {"type": "string"},
          "titulo": {"type": "string"},
          "corpo": {"type": "string"},
          "conexao_proximo": {"type": "string"}
        }
      }
    },
    "legenda": {"type": "string"},
    "throughline": {"type": "string"},
    "valor_central": {"type": "string"}
  }
}`

var (
	narrativesSchema  = mustSchema(narrativesSchemaJSON)
	carouselV43Schema = mustSchema(carouselV43SchemaJSON)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic("pipeline: invalid embedded schema: " + err.Error())
	}
	return s
}

// validateSchema checks doc against schema and folds every violation
// into a single ValidationError.
func validateSchema(stage string, schema *gojsonschema.Schema, doc string) error {
	result, err := schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return invalid(stage, "not valid JSON: %v", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return invalid(stage, "%s", strings.Join(msgs, "; "))
}
