// Package audit provides PDR (Process Decision Record) writing for executed actions.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/fentz26/neona-assist/internal/models"
	"github.com/fentz26/neona-assist/internal/store"
	"github.com/google/uuid"
)

// Sink persists PDR entries.
type Sink interface {
	WritePDR(ctx context.Context, entry *store.PDREntry) error
}

// PDRWriter writes Process Decision Records for audit trails.
type PDRWriter struct {
	sink Sink
}

// NewPDRWriter creates a new PDR writer.
func NewPDRWriter(s Sink) *PDRWriter {
	return &PDRWriter{sink: s}
}

// RecordExecution writes a PDR entry for one confirmed action.
func (w *PDRWriter) RecordExecution(ctx context.Context, projectID string, cmd models.ActionCommand, result *models.ActionResult, execErr error) error {
	outcome := "success"
	details := ""
	switch {
	case execErr != nil:
		outcome = "error"
		details = execErr.Error()
	case result != nil && !result.Success:
		outcome = "failed"
		details = result.Message
	case result != nil:
		details = result.Message
	}

	return w.sink.WritePDR(ctx, &store.PDREntry{
		ID:         uuid.New().String(),
		Action:     cmd.Type,
		InputsHash: hashInputs(cmd),
		Outcome:    outcome,
		ProjectID:  projectID,
		Details:    details,
	})
}

// hashInputs creates a SHA256 hash of the inputs for reproducibility.
func hashInputs(inputs interface{}) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
