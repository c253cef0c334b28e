// cmd/tools/worker-generator/generator.go
package main

import (
	"bytes"
	"fmt"
	"go/format"
	"sort"
	"strings"
	"text/template"
	"time"

	"lead-magnet-workers/pkg/registry"
)

const modulePath = "lead-magnet-workers"

// WorkerData holds data for templates
type WorkerData struct {
	Name            string
	PackageName     string
	TaskType        string
	Description     string
	Mode            string
	Timeout         string
	InputFields     []Field
	InputSchemaJSON string
	HasLeadMagnetID bool
	ErrorCodes      []string
}

// Field is one generated struct field.
type Field struct {
	GoName  string
	GoType  string
	JSONTag string
	Comment string
}

// modeRequirements lists the input properties each generation mode reads.
var modeRequirements = map[string][]string{
	"structured": {"user_answers", "firm_profile"},
	"freeform":   {"prompt"},
}

// newWorkerData validates the activity and derives template data from it.
func newWorkerData(activity *registry.Activity, schemaJSON string) (*WorkerData, error) {
	required, ok := modeRequirements[activity.GenerationMode]
	if !ok {
		return nil, fmt.Errorf("activity %s: generationMode must be structured or freeform, got %q", activity.ID, activity.GenerationMode)
	}

	properties := parseSchema(activity.InputSchema)
	for _, prop := range required {
		if _, ok := properties[prop]; !ok {
			return nil, fmt.Errorf("activity %s: %s mode needs input property %q", activity.ID, activity.GenerationMode, prop)
		}
	}

	timeout, err := durationLiteral(activity.Timeout)
	if err != nil {
		return nil, fmt.Errorf("activity %s: %w", activity.ID, err)
	}

	_, hasID := properties["lead_magnet_id"]
	return &WorkerData{
		Name:            activity.DisplayName,
		PackageName:     packageName(activity.TaskType),
		TaskType:        activity.TaskType,
		Description:     activity.Description,
		Mode:            activity.GenerationMode,
		Timeout:         timeout,
		InputFields:     generateStructFields(properties),
		InputSchemaJSON: schemaJSON,
		HasLeadMagnetID: hasID,
		ErrorCodes:      activity.ErrorCodes,
	}, nil
}

// durationLiteral renders a registry timeout as a Go expression.
func durationLiteral(timeout string) (string, error) {
	if timeout == "" {
		return "30 * time.Second", nil
	}
	d, err := time.ParseDuration(timeout)
	if err != nil || d <= 0 {
		return "", fmt.Errorf("invalid timeout %q", timeout)
	}
	if d%time.Second == 0 {
		return fmt.Sprintf("%d * time.Second", d/time.Second), nil
	}
	return fmt.Sprintf("%d * time.Millisecond", d/time.Millisecond), nil
}

// parseSchema extracts properties from a JSON schema object
func parseSchema(schema map[string]interface{}) map[string]interface{} {
	if props, ok := schema["properties"].(map[string]interface{}); ok {
		return props
	}
	return map[string]interface{}{}
}

// goTypeFromJSONType maps JSON schema types to Go types
func goTypeFromJSONType(jsonType interface{}) string {
	switch jsonType {
	case "string":
		return "string"
	case "number":
		return "float64"
	case "integer":
		return "int"
	case "boolean":
		return "bool"
	case "object":
		return "map[string]interface{}"
	case "array":
		return "[]interface{}"
	default:
		return "interface{}"
	}
}

// generateStructFields returns fields sorted by property name so output is stable.
func generateStructFields(properties map[string]interface{}) []Field {
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		details, _ := properties[name].(map[string]interface{})
		comment, _ := details["description"].(string)
		fields = append(fields, Field{
			GoName:  goName(name),
			GoType:  goTypeFromJSONType(details["type"]),
			JSONTag: fmt.Sprintf("`json:\"%s,omitempty\"`", name),
			Comment: comment,
		})
	}
	return fields
}

// goName converts snake or kebab case to an exported Go identifier.
func goName(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' })
	for i, p := range parts {
		switch strings.ToLower(p) {
		case "id", "url", "api":
			parts[i] = strings.ToUpper(p)
		default:
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "")
}

func packageName(taskType string) string {
	return strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(taskType))
}

var templates = map[string]string{
	"config.go":       configTemplate,
	"models.go":       modelsTemplate,
	"handler.go":      handlerTemplate,
	"handler_test.go": testTemplate,
}

// render executes every template and gofmts the result.
func render(data *WorkerData) (map[string][]byte, error) {
	files := make(map[string][]byte, len(templates))
	for name, text := range templates {
		tmpl, err := template.New(name).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("render %s: %w", name, err)
		}

		src, err := format.Source(buf.Bytes())
		if err != nil {
			return nil, fmt.Errorf("format %s: %w", name, err)
		}
		files[name] = src
	}
	return files, nil
}
