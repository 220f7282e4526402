package dto

import (
	"encoding/json"

	"assembly-dashboard-be/pkg/dashboard/engine"
	"assembly-dashboard-be/pkg/dashboard/records"
	"assembly-dashboard-be/pkg/dashboard/selection"
	"assembly-dashboard-be/pkg/store"
)

type DispatchEventRequest struct {
	Kind    engine.Kind     `json:"kind" validate:"required,oneof=parent_changed child_changed filter_changed reveal_requested tab_switched"`
	Payload json.RawMessage `json:"payload" validate:"required"`
}

// SelectorOptions is what one selector group may currently choose from.
type SelectorOptions struct {
	Terms    []int `json:"terms"`
	Sessions []int `json:"sessions"`
}

type DashboardStateResponse struct {
	Dashboard store.Snapshot                     `json:"dashboard"`
	Options   map[selection.Side]SelectorOptions `json:"options"`
}

type DispatchEventResponse struct {
	Outcome engine.Outcome         `json:"outcome"`
	State   DashboardStateResponse `json:"state"`
}

// ViewResponse is one tab's page of rows. A failed fetch fills Error and leaves the rest of the
// dashboard untouched; a superseded fetch is returned with Stale set and no rows.
type ViewResponse struct {
	View     store.View       `json:"view"`
	Session  int              `json:"session,omitempty"`
	Sequence uint64           `json:"sequence"`
	Total    int              `json:"total"`
	Matched  int              `json:"matched"`
	Shown    int              `json:"shown"`
	HasMore  bool             `json:"has_more"`
	Rows     []records.Record `json:"rows"`
	Options  []string         `json:"options,omitempty"`
	Stale    bool             `json:"stale,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// PushMessage is what the websocket hub delivers to a dashboard's listeners.
type PushMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	Data      json.RawMessage `json:"data"`
}

// Websocket frame actions.
const (
	ActionDispatch = "dispatch"
	ActionLoadView = "load_view"
	ActionState    = "state"
)

// ClientFrame is an inbound websocket message. Kind and Payload go with dispatch, View with
// load_view.
type ClientFrame struct {
	Action  string          `json:"action" validate:"required,oneof=dispatch load_view state"`
	Kind    engine.Kind     `json:"kind,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	View    store.View      `json:"view,omitempty"`
}
