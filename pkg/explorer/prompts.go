package explorer

import (
	"fmt"

	"github.com/tsurutan/e2e-generator-sub000/pkg/agent/prompts"
	"github.com/tsurutan/e2e-generator-sub000/pkg/agent/tools"
	"github.com/tsurutan/e2e-generator-sub000/pkg/graph"
)

const explorerRole = `You are a UI exploration agent. You drive a real browser through a web
application and record what you find as a graph: the pages of the site, the
distinct UI states each page can be in, the transitions between those states,
and labels for the elements a test would interact with.`

const graphModelSection = `- A page is a unique URL. Save it with save_page before saving any UI state on it.
- A UI state is one distinguishable configuration of a page (a modal open, a form
  showing validation errors, a menu expanded). Each page has at most one default
  state: the one shown right after navigation. Mark only that one is_default.
- An edge connects two UI states you have actually observed, with a description of
  the user action that causes the transition. Both states must be saved first; use
  the ids returned by save_ui_state or get_ui_states.
- A label names an element (button, link, input) with a stable CSS selector and the
  URL it lives on. Link it to the UI state it appears in when you know it.
- Call get_ui_states, get_pages, get_edges or get_labels before saving to avoid
  duplicates. Saving the same edge twice is rejected.`

const explorationStrategySection = `1. Navigate to the start URL and take a snapshot.
2. Save the page and its default UI state.
3. Label the interactive elements that matter to a user.
4. Interact with one element at a time. When the page changes into a new state,
   save it and connect it with an edge from the state you came from.
5. Stay on the site. Navigation outside the allowed URLs is refused.
6. When the reachable states are recorded, reply with a short summary and no tool calls.`

// SystemPrompt returns the system prompt for exploring project. When
// xmlTools is non-empty the tools are documented in the XML calling format.
func SystemPrompt(project *graph.Project, instructions string, xmlTools []tools.Tool) string {
	return prompts.NewPromptBuilder(explorerRole).
		WithSection("project", fmt.Sprintf("Name: %s\nStart URL: %s", project.Name, project.URL)).
		WithSection("graph_model", graphModelSection).
		WithSection("exploration_strategy", explorationStrategySection).
		WithXMLTools(xmlTools).
		WithCustomInstructions(instructions).
		Build()
}

// UserPrompt is the opening message of an exploration run.
func UserPrompt(project *graph.Project) string {
	return fmt.Sprintf("Explore the web application at %s and record its pages, UI states, edges and labels for project %q.",
		project.URL, project.Name)
}
