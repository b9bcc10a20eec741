// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jllopis/agentcore/pkg/errors"
	"github.com/mark3labs/mcp-go/mcp"
)

// ValidateInput checks input against the structural contract of schema.
// Required keys must be present and declared primitive types must match.
// Values are never coerced.
func ValidateInput(schema mcp.ToolInputSchema, input map[string]any) error {
	if schema.Type != "" && schema.Type != "object" {
		return nil
	}
	var missing []string
	for _, key := range schema.Required {
		if _, ok := input[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return errors.Newf(errors.CodeInvalidInput, "missing required field(s): %s", strings.Join(missing, ", "))
	}

	keys := make([]string, 0, len(input))
	for key := range input {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		want := propertyType(schema.Properties[key])
		if want == "" {
			continue
		}
		if !matchesType(want, input[key]) {
			return errors.Newf(errors.CodeInvalidInput, "field %q must be of type %s, got %T", key, want, input[key])
		}
	}
	return nil
}

func propertyType(prop any) string {
	switch p := prop.(type) {
	case map[string]any:
		t, _ := p["type"].(string)
		return t
	case map[string]string:
		return p["type"]
	}
	return ""
}

func matchesType(want string, value any) bool {
	switch want {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		return isNumber(value)
	case "integer":
		switch v := value.(type) {
		case int, int32, int64:
			return true
		case float64:
			return v == float64(int64(v))
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		switch value.(type) {
		case []any, []string:
			return true
		}
		return false
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}

func isNumber(value any) bool {
	switch value.(type) {
	case int, int32, int64, float32, float64:
		return true
	}
	return false
}

// StringArg returns the trimmed string value of key, or an InvalidInput error.
func StringArg(input map[string]any, key string) (string, error) {
	raw, ok := input[key]
	if !ok {
		return "", errors.Newf(errors.CodeInvalidInput, "missing required field %q", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", errors.Newf(errors.CodeInvalidInput, "field %q must be a string", key)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New(errors.CodeInvalidInput, fmt.Sprintf("field %q must not be empty", key), nil)
	}
	return s, nil
}
