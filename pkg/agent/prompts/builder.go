// Package prompts assembles system prompts and the corrective messages the
// agent loop feeds back after a failed tool call.
package prompts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tsurutan/e2e-generator-sub000/pkg/agent/tools"
)

// PromptBuilder constructs system prompts for the agent loop
type PromptBuilder struct {
	role               string
	sections           []section
	xmlTools           []tools.Tool
	customInstructions string
}

type section struct {
	tag  string
	body string
}

// NewPromptBuilder creates a builder for an agent playing the given role.
func NewPromptBuilder(role string) *PromptBuilder {
	return &PromptBuilder{role: role}
}

// WithSection adds a tagged section after the role text. Empty bodies are
// skipped.
func (pb *PromptBuilder) WithSection(tag, body string) *PromptBuilder {
	if strings.TrimSpace(body) != "" {
		pb.sections = append(pb.sections, section{tag: tag, body: body})
	}
	return pb
}

// WithXMLTools documents the given tools in the XML calling format for models
// that do not support native function calling.
func (pb *PromptBuilder) WithXMLTools(toolsList []tools.Tool) *PromptBuilder {
	pb.xmlTools = toolsList
	return pb
}

// WithCustomInstructions adds custom user-provided instructions
func (pb *PromptBuilder) WithCustomInstructions(instructions string) *PromptBuilder {
	pb.customInstructions = instructions
	return pb
}

// Build constructs the complete system prompt by assembling all sections
func (pb *PromptBuilder) Build() string {
	var builder strings.Builder

	if pb.customInstructions != "" {
		builder.WriteString("<custom_instructions>\n")
		builder.WriteString(pb.customInstructions)
		builder.WriteString("\n</custom_instructions>\n\n")
	}

	builder.WriteString(strings.TrimSpace(pb.role))
	builder.WriteString("\n\n")

	for _, s := range pb.sections {
		fmt.Fprintf(&builder, "<%s>\n%s\n</%s>\n\n", s.tag, strings.TrimSpace(s.body), s.tag)
	}

	builder.WriteString(AgentLoopPrompt)
	builder.WriteString("\n\n")
	builder.WriteString(ChainOfThoughtPrompt)
	builder.WriteString("\n\n")

	if len(pb.xmlTools) > 0 {
		builder.WriteString(XMLToolCallingPrompt)
		builder.WriteString("\n\n<available_tools>\n")
		builder.WriteString(FormatToolSchemas(pb.xmlTools))
		builder.WriteString("</available_tools>\n\n")
	}

	builder.WriteString(ToolUseRulesPrompt)

	return builder.String()
}

// FormatToolSchemas documents each tool with its parameters and an XML
// example.
func FormatToolSchemas(list []tools.Tool) string {
	var builder strings.Builder
	for _, t := range list {
		builder.WriteString(FormatToolSchema(t))
		builder.WriteString("\n")
	}
	return builder.String()
}

// FormatToolSchema documents a single tool.
func FormatToolSchema(t tools.Tool) string {
	var builder strings.Builder
	schema := t.Schema()

	fmt.Fprintf(&builder, "## %s\n%s\n", t.Name(), t.Description())

	required := requiredSet(schema)
	if props, ok := schema["properties"].(map[string]interface{}); ok && len(props) > 0 {
		builder.WriteString("Parameters:\n")
		names := make([]string, 0, len(props))
		for name := range props {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			prop, _ := props[name].(map[string]interface{})
			typ, _ := prop["type"].(string)
			desc, _ := prop["description"].(string)
			req := "optional"
			if required[name] {
				req = "required"
			}
			fmt.Fprintf(&builder, "- %s (%s, %s): %s\n", name, typ, req, desc)
		}
	}

	builder.WriteString("Example:\n")
	builder.WriteString(GenerateXMLExample(schema, t.Name()))
	builder.WriteString("\n")
	return builder.String()
}

func requiredSet(schema map[string]interface{}) map[string]bool {
	out := make(map[string]bool)
	switch req := schema["required"].(type) {
	case []string:
		for _, r := range req {
			out[r] = true
		}
	case []interface{}:
		for _, r := range req {
			if s, ok := r.(string); ok {
				out[s] = true
			}
		}
	}
	return out
}
