// Package graph defines the UI-state graph: projects, pages, the states a
// page can be in, the edges between those states, element labels and the
// recorded operation sessions that feed them.
package graph

import (
	"encoding/json"
	"time"
)

// Project is the root tenant. Every other entity is owned by a project id.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Page is a unique URL within a project.
type Page struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UiState is one distinguishable configuration of a page. PageID is resolved
// from (ProjectID, PageURL) when the state is created; PageURL is kept for
// display and lookup.
type UiState struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId"`
	PageID      string    `json:"pageId"`
	PageURL     string    `json:"pageUrl"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsDefault   bool      `json:"isDefault"`
	HTML        *string   `json:"html,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Edge is a directed, described transition between two UI states of the
// same project. Self-loops are allowed.
type Edge struct {
	ID            string    `json:"id"`
	ProjectID     string    `json:"projectId"`
	FromUIStateID string    `json:"fromUIStateId"`
	ToUIStateID   string    `json:"toUIStateId"`
	Description   string    `json:"description"`
	TriggeredBy   *string   `json:"triggeredBy,omitempty"`
	TriggerType   *string   `json:"triggerType,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// EdgeSet partitions the edges touching a single UI state.
type EdgeSet struct {
	Outgoing []*Edge `json:"outgoing"`
	Incoming []*Edge `json:"incoming"`
}

// TriggerAction is one step of the action sequence that revealed a labelled
// element.
type TriggerAction struct {
	Type        string `json:"type"`
	Selector    string `json:"selector,omitempty"`
	Text        string `json:"text,omitempty"`
	Value       string `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
}

// Label is a named, located reference to a DOM element.
type Label struct {
	ID             string          `json:"id"`
	ProjectID      string          `json:"projectId"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Selector       string          `json:"selector"`
	XPath          *string         `json:"xpath,omitempty"`
	ElementText    *string         `json:"elementText,omitempty"`
	URL            string          `json:"url"`
	QueryParams    *string         `json:"queryParams,omitempty"`
	UIStateID      *string         `json:"uiStateId,omitempty"`
	TriggerActions []TriggerAction `json:"triggerActions,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// SessionStatus is the lifecycle state of an OperationSession.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionAbandoned SessionStatus = "abandoned"
)

// OperationSession is a bounded, recorded interaction episode over a project.
// TransitionCount is derived from the stored transitions on every read.
type OperationSession struct {
	ID              string          `json:"id"`
	ProjectID       string          `json:"projectId"`
	StartTime       time.Time       `json:"startTime"`
	EndTime         *time.Time      `json:"endTime,omitempty"`
	UserGoal        *string         `json:"userGoal,omitempty"`
	Status          SessionStatus   `json:"status"`
	Summary         json.RawMessage `json:"summary,omitempty"`
	TransitionCount int             `json:"transitionCount"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// ElementDescriptor identifies the element a recorded action targeted.
type ElementDescriptor struct {
	TagName    string            `json:"tagName"`
	ID         string            `json:"id,omitempty"`
	ClassName  string            `json:"className,omitempty"`
	Text       string            `json:"text,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RecordedAction is the user action that triggered a transition. Timestamp
// is in unix milliseconds as reported by the recording client.
type RecordedAction struct {
	Type        string            `json:"type"`
	Element     ElementDescriptor `json:"element"`
	Selector    string            `json:"selector"`
	Text        string            `json:"text,omitempty"`
	Value       string            `json:"value,omitempty"`
	Timestamp   int64             `json:"timestamp"`
	Coordinates *Point            `json:"coordinates,omitempty"`
	Size        *Size             `json:"size,omitempty"`
}

// DOMDiff lists selectors that changed between two snapshots.
type DOMDiff struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
	Changed []string `json:"changed,omitempty"`
}

// DOMSnapshot captures the observable document state around an action.
type DOMSnapshot struct {
	VisibleElements []string          `json:"visibleElements"`
	HiddenElements  []string          `json:"hiddenElements"`
	FormValues      map[string]string `json:"formValues"`
	ScrollPosition  Point             `json:"scrollPosition"`
	ActiveElement   string            `json:"activeElement,omitempty"`
	Diffs           *DOMDiff          `json:"diffs,omitempty"`
}

// UIStateTransition is one recorded step within an OperationSession. It is
// never updated in place.
type UIStateTransition struct {
	ID            string          `json:"id"`
	SessionID     string          `json:"sessionId"`
	ProjectID     string          `json:"projectId"`
	FromUIStateID *string         `json:"fromUIStateId,omitempty"`
	ToUIStateID   string          `json:"toUIStateId"`
	TriggerAction RecordedAction  `json:"triggerAction"`
	BeforeState   DOMSnapshot     `json:"beforeState"`
	AfterState    DOMSnapshot     `json:"afterState"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// TransitionWithStates is a transition joined with the titles of its
// endpoint states.
type TransitionWithStates struct {
	UIStateTransition
	FromUIStateTitle *string `json:"fromUIStateTitle,omitempty"`
	ToUIStateTitle   string  `json:"toUIStateTitle"`
}
