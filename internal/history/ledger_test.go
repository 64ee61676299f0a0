package history

import (
	"fmt"
	"testing"

	"github.com/fentz26/neona-assist/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushUtterance_RejectsBlankAndHeadDuplicate(t *testing.T) {
	list, ok := PushUtterance(nil, "   ")
	assert.False(t, ok)
	assert.Empty(t, list)

	list, ok = PushUtterance(list, "show my tasks")
	require.True(t, ok)

	list, ok = PushUtterance(list, "show my tasks")
	assert.False(t, ok)
	assert.Equal(t, []string{"show my tasks"}, list)

	// Non-consecutive repeats are allowed.
	list, _ = PushUtterance(list, "create a login story")
	list, ok = PushUtterance(list, "show my tasks")
	assert.True(t, ok)
	assert.Equal(t, []string{"show my tasks", "create a login story", "show my tasks"}, list)
}

func TestPushUtterance_BoundedMostRecentFirst(t *testing.T) {
	var list []string
	for i := 0; i < 25; i++ {
		list, _ = PushUtterance(list, fmt.Sprintf("utterance %d", i))
		require.LessOrEqual(t, len(list), MaxUtterances)
	}
	require.Len(t, list, MaxUtterances)
	assert.Equal(t, "utterance 24", list[0])
	assert.Equal(t, "utterance 15", list[MaxUtterances-1])
}

func TestPushUtterance_DoesNotAliasInput(t *testing.T) {
	orig := []string{"b", "c"}
	out, ok := PushUtterance(orig, "a")
	require.True(t, ok)
	out[1] = "changed"
	assert.Equal(t, []string{"b", "c"}, orig)
}

func TestPushAction_BoundedMostRecentFirst(t *testing.T) {
	var list []models.ActionResult
	for i := 0; i < 30; i++ {
		list = PushAction(list, models.ActionResult{Success: true, Message: fmt.Sprintf("action %d", i)})
		require.LessOrEqual(t, len(list), MaxActions)
	}
	require.Len(t, list, MaxActions)
	assert.Equal(t, "action 29", list[0].Message)
	assert.Equal(t, "action 10", list[MaxActions-1].Message)
}

func TestPushAction_NoDedup(t *testing.T) {
	r := models.ActionResult{Success: true, Message: "Story created"}
	list := PushAction(PushAction(nil, r), r)
	assert.Len(t, list, 2)
}

func TestLedgerClear(t *testing.T) {
	var l Ledger
	l.AddUtterance("hello")
	l.AddAction(models.ActionResult{Message: "done"})
	l.Clear()
	assert.Empty(t, l.Utterances)
	assert.Empty(t, l.Actions)
	assert.NotNil(t, l.Utterances)
}
