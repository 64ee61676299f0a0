// Package models defines the core domain types for the Neona assistant.
package models

import (
	"encoding/json"
	"time"
)

// EntityMatch is one candidate object an utterance might refer to.
type EntityMatch struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"` // story, task, project, sprint
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Confidence  float64        `json:"confidence,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// EntityRef points at an entity the UI already has in view.
type EntityRef struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// ActionCommand is a fully-specified action awaiting confirmation.
type ActionCommand struct {
	Type        string         `json:"type"` // e.g. create_story, update_task, move_task
	EntityType  string         `json:"entityType,omitempty"`
	EntityID    string         `json:"entityId,omitempty"`
	ProjectID   string         `json:"projectId,omitempty"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// IntentResult is the interpretation of a single utterance.
type IntentResult struct {
	Intent          string         `json:"intent,omitempty"`
	Entities        []EntityMatch  `json:"entities"`
	SuggestedAction *ActionCommand `json:"suggestedAction,omitempty"`
	AutoSelect      bool           `json:"autoSelect"`
}

// ActionError is a structured, per-field execution error.
type ActionError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ActionResult is the outcome of executing an ActionCommand.
type ActionResult struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data,omitempty"`
	Errors     []ActionError   `json:"errors,omitempty"`
	ExecutedAt time.Time       `json:"executedAt"`
}

// AISuggestion is a proactive, backend-sourced recommendation for one project.
type AISuggestion struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId"`
	Type        string    `json:"type"` // story_split, readiness, task_breakdown, ...
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    string    `json:"priority,omitempty"` // low, medium, high
	EntityType  string    `json:"entityType,omitempty"`
	EntityID    string    `json:"entityId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SuggestionActionType is a user decision on a suggestion.
type SuggestionActionType string

const (
	SuggestionDismiss SuggestionActionType = "dismiss"
	SuggestionAccept  SuggestionActionType = "accept"
	SuggestionEdit    SuggestionActionType = "edit"
)

// SuggestionAction carries a user decision about one suggestion.
type SuggestionAction struct {
	Type         SuggestionActionType `json:"type"`
	SuggestionID string               `json:"suggestionId"`
	Payload      map[string]any       `json:"payload,omitempty"`
}

// ActionForCandidate binds a suggested action to a manually chosen candidate.
// The input action is never modified; nil is returned when there is nothing to bind.
func ActionForCandidate(suggested *ActionCommand, match EntityMatch) *ActionCommand {
	if suggested == nil {
		return nil
	}
	bound := *suggested
	if suggested.Parameters != nil {
		bound.Parameters = make(map[string]any, len(suggested.Parameters))
		for k, v := range suggested.Parameters {
			bound.Parameters[k] = v
		}
	}
	bound.EntityID = match.ID
	if match.Type != "" {
		bound.EntityType = match.Type
	}
	return &bound
}
