// Package graphtools exposes the UI-state graph to an agent as tools.
//
// The reference tier (get_pages, get_labels, get_edges, get_ui_states) reads
// the graph of one project; the mutation tier (save_page, save_label,
// save_edge, save_ui_state) writes it through the service layer, so every
// call is validated and misuse comes back as a typed error.
package graphtools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tsurutan/e2e-generator-sub000/pkg/agent/tools"
	"github.com/tsurutan/e2e-generator-sub000/pkg/graph"
	"github.com/tsurutan/e2e-generator-sub000/pkg/service"
)

// UnknownToolError is returned by Dispatch for a name outside the registry.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown graph tool %q", e.Name)
}

// HTMLCleaner reduces a markup snapshot before it is stored.
type HTMLCleaner func(html string) (string, error)

// Registry binds the graph tools to one project.
type Registry struct {
	services      *service.Services
	projectID     string
	referenceOnly bool
	cleanHTML     HTMLCleaner
}

// Option configures a Registry.
type Option func(*Registry)

// ReferenceOnly restricts the registry to the read-only tools.
func ReferenceOnly() Option {
	return func(r *Registry) {
		r.referenceOnly = true
	}
}

// WithHTMLCleaner cleans markup passed to save_ui_state.
func WithHTMLCleaner(fn HTMLCleaner) Option {
	return func(r *Registry) {
		r.cleanHTML = fn
	}
}

// New creates a registry for projectID.
func New(services *service.Services, projectID string, opts ...Option) *Registry {
	r := &Registry{services: services, projectID: projectID}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ProjectID returns the project the registry is bound to.
func (r *Registry) ProjectID() string {
	return r.projectID
}

// Kinds returns the kinds this registry serves.
func (r *Registry) Kinds() []Kind {
	var out []Kind
	for _, k := range AllKinds() {
		if r.referenceOnly && !k.IsReference() {
			continue
		}
		out = append(out, k)
	}
	return out
}

// Tools implements tools.Toolset.
func (r *Registry) Tools(context.Context) ([]tools.Tool, error) {
	return r.ToolList(), nil
}

// ToolList returns the registry's tools.
func (r *Registry) ToolList() []tools.Tool {
	kinds := r.Kinds()
	out := make([]tools.Tool, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, &graphTool{kind: k, registry: r})
	}
	return out
}

// Dispatch executes the named tool with JSON arguments and returns its JSON
// result.
func (r *Registry) Dispatch(ctx context.Context, name string, raw json.RawMessage) (string, error) {
	kind, ok := ParseKind(name)
	if !ok || (r.referenceOnly && !kind.IsReference()) {
		return "", &UnknownToolError{Name: name}
	}

	var (
		result interface{}
		err    error
	)
	switch kind {
	case KindGetPages:
		result, err = r.services.Pages.ListByProject(ctx, r.projectID)
	case KindGetLabels:
		var args GetLabelsArgs
		if err = tools.DecodeArgs(raw, &args); err == nil {
			result, err = r.getLabels(ctx, args)
		}
	case KindGetEdges:
		result, err = r.services.Edges.ListByProject(ctx, r.projectID)
	case KindGetUiStates:
		result, err = r.getUiStates(ctx)
	case KindSavePage:
		var args SavePageArgs
		if err = tools.DecodeArgs(raw, &args); err == nil {
			result, err = r.savePage(ctx, args)
		}
	case KindSaveLabel:
		var args SaveLabelArgs
		if err = tools.DecodeArgs(raw, &args); err == nil {
			result, err = r.saveLabel(ctx, args)
		}
	case KindSaveEdge:
		var args SaveEdgeArgs
		if err = tools.DecodeArgs(raw, &args); err == nil {
			result, err = r.saveEdge(ctx, args)
		}
	case KindSaveUiState:
		var args SaveUiStateArgs
		if err = tools.DecodeArgs(raw, &args); err == nil {
			result, err = r.saveUiState(ctx, args)
		}
	default:
		return "", &UnknownToolError{Name: name}
	}
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s result: %w", kind, err)
	}
	return string(out), nil
}

func (r *Registry) getLabels(ctx context.Context, args GetLabelsArgs) ([]*graph.Label, error) {
	if args.URL != "" {
		return r.services.Labels.ListByURL(ctx, r.projectID, args.URL)
	}
	return r.services.Labels.ListByProject(ctx, r.projectID)
}

func (r *Registry) getUiStates(ctx context.Context) ([]*graph.UiState, error) {
	states, err := r.services.UiStates.ListByProject(ctx, r.projectID)
	if err != nil {
		return nil, err
	}
	for _, st := range states {
		st.HTML = nil
	}
	return states, nil
}

func (r *Registry) savePage(ctx context.Context, args SavePageArgs) (*graph.Page, error) {
	if err := requireFields(field("url", args.URL)); err != nil {
		return nil, err
	}
	return r.services.Pages.Upsert(ctx, r.projectID, args.URL, args.Title)
}

func (r *Registry) saveLabel(ctx context.Context, args SaveLabelArgs) (*graph.Label, error) {
	if err := requireFields(field("name", args.Name), field("selector", args.Selector), field("url", args.URL)); err != nil {
		return nil, err
	}
	return r.services.Labels.Create(ctx, service.CreateLabelInput{
		ProjectID:      r.projectID,
		Name:           args.Name,
		Description:    args.Description,
		Selector:       args.Selector,
		XPath:          args.XPath,
		ElementText:    args.ElementText,
		URL:            args.URL,
		UIStateID:      args.UIStateID,
		TriggerActions: args.TriggerActions,
	})
}

func (r *Registry) saveEdge(ctx context.Context, args SaveEdgeArgs) (*graph.Edge, error) {
	if err := requireFields(field("from_ui_state_id", args.FromUIStateID), field("to_ui_state_id", args.ToUIStateID)); err != nil {
		return nil, err
	}
	return r.services.Edges.Create(ctx, service.CreateEdgeInput{
		ProjectID:     r.projectID,
		FromUIStateID: args.FromUIStateID,
		ToUIStateID:   args.ToUIStateID,
		Description:   args.Description,
		TriggeredBy:   args.TriggeredBy,
		TriggerType:   args.TriggerType,
	})
}

func (r *Registry) saveUiState(ctx context.Context, args SaveUiStateArgs) (*graph.UiState, error) {
	if err := requireFields(field("title", args.Title), field("page_url", args.PageURL)); err != nil {
		return nil, err
	}

	html := args.HTML
	if html != nil && r.cleanHTML != nil {
		cleaned, err := r.cleanHTML(*html)
		if err != nil {
			return nil, graph.BadRequest("html could not be parsed: %v", err)
		}
		html = &cleaned
	}

	st, err := r.services.UiStates.Create(ctx, service.CreateUiStateInput{
		ProjectID:   r.projectID,
		PageURL:     args.PageURL,
		Title:       args.Title,
		Description: args.Description,
		IsDefault:   args.IsDefault,
		HTML:        html,
	})
	if err != nil {
		return nil, err
	}
	st.HTML = nil
	return st, nil
}

// graphTool adapts one Kind to the tools.Tool interface.
type graphTool struct {
	kind     Kind
	registry *Registry
}

func (t *graphTool) Name() string                   { return t.kind.String() }
func (t *graphTool) Description() string            { return descriptions[t.kind] }
func (t *graphTool) Schema() map[string]interface{} { return schemaFor(t.kind) }

func (t *graphTool) Execute(ctx context.Context, arguments json.RawMessage) (string, error) {
	return t.registry.Dispatch(ctx, t.kind.String(), arguments)
}
