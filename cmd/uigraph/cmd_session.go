package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsurutan/e2e-generator-sub000/pkg/graph"
	"github.com/tsurutan/e2e-generator-sub000/pkg/recorder"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and import recorded operation sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list <project-id>",
	Short: "List a project's sessions",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionList,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session's transitions with their state titles",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionShow,
}

var sessionImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Record a session from a JSON file of transitions",
	Long: `Import creates a session for --project, records every transition of the
file in one batch (transitions already recorded are skipped) and completes the
session. The file looks like:

  {
    "userGoal": "check out a product",
    "summary": {"notes": "..."},
    "transitions": [
      {"fromUIStateId": "...", "toUIStateId": "...",
       "triggerAction": {"type": "click", "selector": "#buy", "element": {"tagName": "button"}, "timestamp": 1700000000000},
       "beforeState": {...}, "afterState": {...}}
    ]
  }`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionImport,
}

var sessionAbandonCmd = &cobra.Command{
	Use:   "abandon <session-id>",
	Short: "Mark an active session abandoned",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionAbandon,
}

var importProject string

func init() {
	sessionImportCmd.Flags().StringVarP(&importProject, "project", "p", "", "project id")
	_ = sessionImportCmd.MarkFlagRequired("project")
	sessionCmd.AddCommand(sessionListCmd, sessionShowCmd, sessionImportCmd, sessionAbandonCmd)
}

type sessionFile struct {
	UserGoal    *string           `json:"userGoal"`
	Summary     json.RawMessage   `json:"summary"`
	Transitions []transitionEntry `json:"transitions"`
}

type transitionEntry struct {
	FromUIStateID *string              `json:"fromUIStateId"`
	ToUIStateID   string               `json:"toUIStateId"`
	TriggerAction graph.RecordedAction `json:"triggerAction"`
	BeforeState   graph.DOMSnapshot    `json:"beforeState"`
	AfterState    graph.DOMSnapshot    `json:"afterState"`
	Metadata      json.RawMessage      `json:"metadata"`
}

func runSessionList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.services.Projects.Get(cmd.Context(), args[0]); err != nil {
		return err
	}
	sessions, err := a.recorder.ListSessions(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tSTARTED\tTRANSITIONS\tGOAL")
	for _, s := range sessions {
		goal := ""
		if s.UserGoal != nil {
			goal = *s.UserGoal
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", s.ID, s.Status, s.StartTime.Local().Format(time.DateTime), s.TransitionCount, goal)
	}
	return w.Flush()
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	session, err := a.recorder.GetSession(ctx, args[0])
	if err != nil {
		return err
	}
	transitions, err := a.recorder.ListTransitionsWithStates(ctx, session.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session %s (%s), %d transitions\n", session.ID, session.Status, session.TransitionCount)
	for i, t := range transitions {
		from := "(start)"
		if t.FromUIStateTitle != nil {
			from = *t.FromUIStateTitle
		}
		fmt.Fprintf(out, "%3d. %s → %s  [%s %s]\n", i+1, from, t.ToUIStateTitle, t.TriggerAction.Type, t.TriggerAction.Selector)
	}
	return nil
}

func runSessionImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	var file sessionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	session, err := a.recorder.CreateSession(ctx, recorder.CreateSessionInput{
		ProjectID: importProject,
		UserGoal:  file.UserGoal,
	})
	if err != nil {
		return err
	}

	batch := make([]recorder.TransitionInput, 0, len(file.Transitions))
	for _, t := range file.Transitions {
		batch = append(batch, recorder.TransitionInput{
			SessionID:     session.ID,
			ProjectID:     importProject,
			FromUIStateID: t.FromUIStateID,
			ToUIStateID:   t.ToUIStateID,
			TriggerAction: t.TriggerAction,
			BeforeState:   t.BeforeState,
			AfterState:    t.AfterState,
			Metadata:      t.Metadata,
		})
	}
	inserted, err := a.recorder.RecordBatch(ctx, batch)
	if err != nil {
		if _, abandonErr := a.recorder.AbandonSession(ctx, session.ID); abandonErr != nil {
			return fmt.Errorf("%w (abandoning session: %v)", err, abandonErr)
		}
		return err
	}

	session, err = a.recorder.EndSession(ctx, session.ID, file.Summary)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded session %s: %d of %d transitions inserted\n",
		session.ID, inserted, len(file.Transitions))
	return nil
}

func runSessionAbandon(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	session, err := a.recorder.AbandonSession(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Session %s %s\n", session.ID, session.Status)
	return nil
}
