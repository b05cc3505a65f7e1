package codegen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tsurutan/e2e-generator-sub000/pkg/agent/prompts"
	"github.com/tsurutan/e2e-generator-sub000/pkg/agent/tools"
	"github.com/tsurutan/e2e-generator-sub000/pkg/graph"
	"github.com/tsurutan/e2e-generator-sub000/pkg/runner"
)

const generatorRole = `You are a test automation engineer. You write one self-contained Playwright
test in TypeScript that implements a behavioral scenario against a web
application. Prefer the selectors of the known labels; use the browser tools
to confirm selectors or discover missing ones, and the graph tools to look up
pages, UI states and edges.`

const outputSection = `- Import from '@playwright/test' and declare exactly one test().
- Start by navigating to the project URL.
- Assert every Then step with expect().
- Reply with the complete file in a single fenced code block and no tool calls.`

// maxStackLines bounds the stack trace included in a repair prompt.
const maxStackLines = 30

func systemPrompt(projectURL, instructions string, xmlTools []tools.Tool) string {
	return prompts.NewPromptBuilder(generatorRole).
		WithSection("project", "URL: "+projectURL).
		WithSection("output_format", outputSection).
		WithXMLTools(xmlTools).
		WithCustomInstructions(instructions).
		Build()
}

// generationPrompt seeds a generation run with the scenario and labels.
func generationPrompt(s *Scenario, projectURL string, labels []*graph.Label) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a Playwright test for this scenario against %s.\n\n", projectURL)
	b.WriteString(s.Text())
	b.WriteString("\n\nKnown labels (name | selector | description):\n")
	b.WriteString(RenderLabels(labels))
	return b.String()
}

// repairPrompt asks for a fixed version of code after a failed run.
func repairPrompt(s *Scenario, code string, result *runner.Result, attempt, maxAttempts int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Attempt %d of %d failed. Fix the test so it passes.\n\n", attempt, maxAttempts)
	b.WriteString(s.Text())
	b.WriteString("\n\nCode that failed:\n```typescript\n")
	b.WriteString(strings.TrimSpace(code))
	b.WriteString("\n```\n\nError:\n")
	b.WriteString(result.ErrorMessage())
	if stack := strings.TrimSpace(result.StackTrace); stack != "" {
		lines := strings.Split(stack, "\n")
		if len(lines) > maxStackLines {
			lines = lines[:maxStackLines]
		}
		b.WriteString("\n\nStack trace:\n")
		b.WriteString(strings.Join(lines, "\n"))
	}
	b.WriteString("\n\nReply with the corrected file in a single fenced code block.")
	return b.String()
}

// RenderLabels lists labels one per line as name, selector and description.
func RenderLabels(labels []*graph.Label) string {
	if len(labels) == 0 {
		return "(none recorded)\n"
	}
	var b strings.Builder
	for _, l := range labels {
		fmt.Fprintf(&b, "- %s | %s | %s", l.Name, l.Selector, oneLine(l.Description))
		if l.URL != "" {
			fmt.Fprintf(&b, " (on %s)", l.URL)
		}
		b.WriteString("\n")
		for _, a := range l.TriggerActions {
			fmt.Fprintf(&b, "    revealed by: %s\n", oneLine(a.Type+" "+a.Selector+" "+a.Value))
		}
	}
	return b.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var fencedBlock = regexp.MustCompile("(?s)```[^\\n`]*\\n(.*?)```")

// ExtractCode returns the body of the first fenced code block in response,
// or the whole trimmed response when there is none.
func ExtractCode(response string) string {
	if m := fencedBlock.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(response)
}
