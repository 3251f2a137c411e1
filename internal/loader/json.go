package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/gridwalk-cli/gridwalk"
)

// jsonShapeSchema accepts either a bare array of row objects, or an envelope
// of the form {"columns": [...], "data": [...]}. Validated by marshaling a
// schema map into jsonschema.Schema, resolving it, then validating the
// decoded value.
var jsonShapeSchema = map[string]any{
	"oneOf": []any{
		map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "object"},
		},
		map[string]any{
			"type":     "object",
			"required": []any{"columns", "data"},
			"properties": map[string]any{
				"columns": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
				"data": map[string]any{"type": "array"},
			},
		},
	},
}

func validateJSONShape(v any) error {
	schemaBytes, err := json.Marshal(jsonShapeSchema)
	if err != nil {
		return gridwalk.NewInternalError("json_schema_marshal_failed", err.Error())
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(schemaBytes, &schema); err != nil {
		return gridwalk.NewInternalError("json_schema_unmarshal_failed", err.Error())
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return gridwalk.NewInternalError("json_schema_resolve_failed", err.Error())
	}
	if err := resolved.Validate(v); err != nil {
		return gridwalk.NewLoadError("json_shape_invalid",
			"JSON input must be an array of objects, or {\"columns\": [...], \"data\": [...]}").WithCause(err)
	}
	return nil
}

// DecodeJSON accepts the two top-level shapes the engine loads: an array of
// flat objects (columns are the union of keys: object by object, each key not
// seen before is appended in alphabetical order; the key order written in the
// JSON text is not preserved), or an
// explicit {columns, data} envelope where data rows are either arrays
// (positional) or objects (keyed by column name).
func DecodeJSON(r io.Reader) ([]string, [][]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, gridwalk.NewLoadError("json_read_failed", err.Error())
	}

	var shapeCheck any
	if err := json.Unmarshal(raw, &shapeCheck); err != nil {
		return nil, nil, gridwalk.NewLoadError("json_parse_failed", err.Error())
	}
	if err := validateJSONShape(shapeCheck); err != nil {
		return nil, nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, nil, gridwalk.NewLoadError("json_decode_failed", err.Error())
	}

	switch v := doc.(type) {
	case []any:
		return decodeObjectArray(v)
	case map[string]any:
		return decodeEnvelope(v)
	default:
		return nil, nil, gridwalk.NewLoadError("json_shape_invalid", "unsupported top-level JSON value")
	}
}

func decodeObjectArray(items []any) ([]string, [][]string, error) {
	seen := make(map[string]bool)
	var header []string
	objects := make([]map[string]any, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, nil, gridwalk.NewLoadError("json_row_not_object", fmt.Sprintf("row %d is not an object", i))
		}
		objects = append(objects, obj)
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
	}

	rows := make([][]string, len(objects))
	for i, obj := range objects {
		row := make([]string, len(header))
		for c, col := range header {
			row[c] = scalarToRaw(obj[col])
		}
		rows[i] = row
	}
	return header, rows, nil
}

func decodeEnvelope(doc map[string]any) ([]string, [][]string, error) {
	rawColumns, ok := doc["columns"].([]any)
	if !ok {
		return nil, nil, gridwalk.NewLoadError("json_columns_missing", "envelope is missing a \"columns\" array")
	}
	header := make([]string, len(rawColumns))
	for i, c := range rawColumns {
		name, ok := c.(string)
		if !ok {
			return nil, nil, gridwalk.NewLoadError("json_column_not_string", fmt.Sprintf("column %d is not a string", i))
		}
		header[i] = name
	}

	rawData, ok := doc["data"].([]any)
	if !ok {
		return nil, nil, gridwalk.NewLoadError("json_data_missing", "envelope is missing a \"data\" array")
	}
	rows := make([][]string, len(rawData))
	for i, item := range rawData {
		switch r := item.(type) {
		case []any:
			row := make([]string, len(r))
			for c, v := range r {
				row[c] = scalarToRaw(v)
			}
			rows[i] = row
		case map[string]any:
			row := make([]string, len(header))
			for c, col := range header {
				row[c] = scalarToRaw(r[col])
			}
			rows[i] = row
		default:
			return nil, nil, gridwalk.NewLoadError("json_row_shape_invalid", fmt.Sprintf("data row %d is neither an array nor an object", i))
		}
	}
	return header, rows, nil
}

func scalarToRaw(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
