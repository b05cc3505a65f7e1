package prompts

import (
	"fmt"
	"sort"
	"strings"
)

// GenerateXMLExample creates a concrete XML example from a JSON Schema.
// Only required parameters are shown.
func GenerateXMLExample(schema map[string]interface{}, toolName string) string {
	var builder strings.Builder

	builder.WriteString("<tool>\n")
	fmt.Fprintf(&builder, "<tool_name>%s</tool_name>\n", toolName)
	builder.WriteString("<arguments>\n")

	properties, ok := schema["properties"].(map[string]interface{})
	if ok && len(properties) > 0 {
		required := requiredSet(schema)
		names := make([]string, 0, len(properties))
		for name := range properties {
			if required[name] {
				names = append(names, name)
			}
		}
		sort.Strings(names)

		for _, name := range names {
			propMap, ok := properties[name].(map[string]interface{})
			if !ok {
				continue
			}
			builder.WriteString(generatePropertyExample(name, propMap, "  "))
		}
	}

	builder.WriteString("</arguments>\n")
	builder.WriteString("</tool>")

	return builder.String()
}

// generatePropertyExample creates an XML example for a single property
func generatePropertyExample(name string, propSchema map[string]interface{}, indent string) string {
	propType, _ := propSchema["type"].(string) //nolint:errcheck

	switch propType {
	case "string":
		return generateStringExample(name, propSchema, indent)
	case "integer":
		return fmt.Sprintf("%s<%s>42</%s>\n", indent, name, name)
	case "number":
		return fmt.Sprintf("%s<%s>3.14</%s>\n", indent, name, name)
	case "boolean":
		return fmt.Sprintf("%s<%s>true</%s>\n", indent, name, name)
	case "array":
		return fmt.Sprintf("%s<%s>[]</%s>\n", indent, name, name)
	case "object":
		return fmt.Sprintf("%s<%s>{}</%s>\n", indent, name, name)
	default:
		return fmt.Sprintf("%s<%s>value</%s>\n", indent, name, name)
	}
}

// generateStringExample creates example for string properties
func generateStringExample(name string, propSchema map[string]interface{}, indent string) string {
	// Markup and selectors are where unescaped characters usually break parsing.
	if strings.Contains(name, "html") || strings.Contains(name, "selector") || strings.Contains(name, "code") {
		return fmt.Sprintf("%s<%s>&lt;example&gt; &amp; value</%s>\n", indent, name, name)
	}

	exampleValue := "value"
	if enum, ok := propSchema["enum"].([]interface{}); ok && len(enum) > 0 {
		if str, ok := enum[0].(string); ok {
			exampleValue = str
		}
	}
	if enum, ok := propSchema["enum"].([]string); ok && len(enum) > 0 {
		exampleValue = enum[0]
	}

	return fmt.Sprintf("%s<%s>%s</%s>\n", indent, name, exampleValue, name)
}
