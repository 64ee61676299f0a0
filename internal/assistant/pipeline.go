package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/fentz26/neona-assist/internal/models"
	"github.com/fentz26/neona-assist/internal/orchestrator"
	"go.uber.org/zap"
)

// SetUtterance replaces the input text. It never touches the network.
func (s *Store) SetUtterance(text string) {
	s.update(func(c *core) bool {
		if c.utterance == text {
			return false
		}
		c.utterance = text
		return true
	})
}

// SubmitUtterance sends text for interpretation against the active project.
//
// Every submission starts a new request generation. A response that arrives
// after a newer submission or a cancel is discarded and leaves the state
// alone; a discarded failure is still returned to the caller.
func (s *Store) SubmitUtterance(ctx context.Context, text string, contextEntities ...models.EntityRef) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyUtterance
	}

	var (
		projectID string
		gen       uint64
		missing   bool
	)
	s.update(func(c *core) bool {
		if c.activeProjectID == "" {
			missing = true
			c.err = MsgNoActiveProject
			return true
		}
		s.generation++
		gen = s.generation
		projectID = c.activeProjectID
		c.phase = PhaseProcessing
		c.err = ""
		c.clearInteraction()
		return true
	})
	if missing {
		return ErrNoActiveProject
	}

	s.logger.Debug("interpreting utterance",
		zap.String("project_id", projectID),
		zap.Uint64("generation", gen),
	)
	result, err := s.client.InterpretUtterance(ctx, orchestrator.InterpretRequest{
		Utterance:       text,
		ProjectID:       projectID,
		ContextEntities: contextEntities,
	})
	if err == nil && result == nil {
		err = errNoResult
	}

	var stale bool
	s.update(func(c *core) bool {
		if gen != s.generation {
			stale = true
			return false
		}
		c.phase = PhaseIdle
		if err != nil {
			c.err = errorMessage(err, MsgInterpretFailed)
			return true
		}
		if result.Entities == nil {
			result.Entities = []models.EntityMatch{}
		}
		c.intent = result
		c.phase = PhaseAwaitingConfirmation
		if result.AutoSelect && len(result.Entities) > 0 {
			selected := result.Entities[0]
			c.candidate = &selected
			if result.SuggestedAction != nil {
				pending := *result.SuggestedAction
				c.pending = &pending
			}
		}
		c.ledger.AddUtterance(text)
		c.utterance = ""
		return true
	})

	if stale {
		s.logger.Debug("discarding superseded interpretation", zap.Uint64("generation", gen), zap.Error(err))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInterpretFailed, err)
		}
		return nil
	}
	if err != nil {
		s.logger.Warn("interpretation failed", zap.String("project_id", projectID), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrInterpretFailed, err)
	}
	return nil
}

// SelectCandidate marks match as the chosen candidate and drops any pending
// action. Use SetPendingAction to bind a new action to the choice.
func (s *Store) SelectCandidate(match models.EntityMatch) {
	s.update(func(c *core) bool {
		selected := match
		c.candidate = &selected
		c.pending = nil
		return true
	})
}

// SetPendingAction stages cmd for confirmation. It requires an intent result.
func (s *Store) SetPendingAction(cmd models.ActionCommand) error {
	var missing bool
	s.update(func(c *core) bool {
		if c.intent == nil {
			missing = true
			return false
		}
		if cmd.ProjectID == "" {
			cmd.ProjectID = c.activeProjectID
		}
		c.pending = &cmd
		c.phase = PhaseAwaitingConfirmation
		return true
	})
	if missing {
		return ErrNoIntentResult
	}
	return nil
}

// ConfirmAction executes the pending action. With nothing pending it does
// nothing. A result that arrives after the interaction was cancelled or
// replaced is still recorded in the ledger but leaves the newer state alone.
func (s *Store) ConfirmAction(ctx context.Context) error {
	var (
		cmd       models.ActionCommand
		projectID string
		gen       uint64
		idle      bool
		missing   bool
	)
	s.update(func(c *core) bool {
		if c.pending == nil {
			idle = true
			return false
		}
		projectID = c.pending.ProjectID
		if projectID == "" {
			projectID = c.activeProjectID
		}
		if projectID == "" {
			missing = true
			c.err = MsgNoActiveProject
			return true
		}
		cmd = *c.pending
		s.generation++
		gen = s.generation
		c.phase = PhaseExecuting
		c.err = ""
		return true
	})
	if idle {
		return nil
	}
	if missing {
		return ErrNoActiveProject
	}

	s.logger.Info("executing action",
		zap.String("project_id", projectID),
		zap.String("action", cmd.Type),
		zap.String("entity_id", cmd.EntityID),
	)
	result, err := s.client.ExecuteAction(ctx, orchestrator.ExecuteRequest{
		Action:    cmd,
		ProjectID: projectID,
		UserID:    s.userID(),
	})
	if err == nil && result == nil {
		err = errNoResult
	}

	s.update(func(c *core) bool {
		current := gen == s.generation
		if err != nil {
			if !current {
				return false
			}
			c.phase = PhaseIdle
			c.err = errorMessage(err, MsgExecuteFailed)
			return true
		}
		c.ledger.AddAction(*result)
		if current {
			c.phase = PhaseIdle
			c.clearInteraction()
		}
		return true
	})

	if s.recorder != nil {
		if rerr := s.recorder.RecordExecution(ctx, projectID, cmd, result, err); rerr != nil {
			s.logger.Warn("failed to record action", zap.Error(rerr))
		}
	}

	if err != nil {
		s.logger.Warn("action execution failed", zap.String("action", cmd.Type), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrExecuteFailed, err)
	}
	return nil
}

// CancelAction abandons the current interaction without touching the network.
func (s *Store) CancelAction() {
	s.update(func(c *core) bool {
		s.generation++
		c.clearInteraction()
		c.phase = PhaseIdle
		return true
	})
}

// ClearError resets the error message only.
func (s *Store) ClearError() {
	s.update(func(c *core) bool {
		if c.err == "" {
			return false
		}
		c.err = ""
		return true
	})
}

// ClearHistory empties both the utterance history and the recent actions.
func (s *Store) ClearHistory() {
	s.update(func(c *core) bool {
		c.ledger.Clear()
		return true
	})
}
