package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadFormSoftTrigger(t *testing.T) {
	l := newLeadForm()

	t.Run("below threshold", func(t *testing.T) {
		assert.False(t, l.maybeTriggerSoft(4, 5, false, "s1"))
		assert.Equal(t, LeadFormNone, l.mode)
	})

	t.Run("at threshold", func(t *testing.T) {
		require.True(t, l.maybeTriggerSoft(5, 5, false, "s1"))
		assert.Equal(t, LeadFormSoft, l.mode)
		assert.Equal(t, "s1", l.sessionID)
	})

	t.Run("no retrigger while showing", func(t *testing.T) {
		assert.False(t, l.maybeTriggerSoft(6, 5, false, "s1"))
	})

	t.Run("dismissal suppresses for the session", func(t *testing.T) {
		l.dismiss()
		assert.Equal(t, LeadFormNone, l.mode)
		assert.False(t, l.maybeTriggerSoft(7, 5, false, "s1"))
	})

	t.Run("reset re-arms", func(t *testing.T) {
		l.reset()
		assert.True(t, l.maybeTriggerSoft(5, 5, false, "s2"))
	})
}

func TestLeadFormInfoKnownSuppressesSoft(t *testing.T) {
	l := newLeadForm()
	assert.False(t, l.maybeTriggerSoft(10, 5, true, "s1"))
}

func TestLeadFormEscalationDismissal(t *testing.T) {
	l := newLeadForm()
	l.openEscalation("s1")
	require.Equal(t, LeadFormEscalation, l.mode)

	// Escalation dismissal is not permanent
	l.dismiss()
	assert.False(t, l.softDismissed)
	l.openEscalation("s1")
	assert.Equal(t, LeadFormEscalation, l.mode)
}

func TestLeadFormCloseDismissesSoftPermanently(t *testing.T) {
	l := newLeadForm()
	l.openEscalation("s1")

	// Submission via any mode permanently dismisses the soft prompt
	l.close()
	assert.Equal(t, LeadFormNone, l.mode)
	assert.True(t, l.softDismissed)
	assert.False(t, l.maybeTriggerSoft(10, 5, false, "s1"))
}

func TestHumanRequestText(t *testing.T) {
	assert.Equal(t, humanRequestOnline, humanRequestText(true))
	assert.Equal(t, humanRequestOffline, humanRequestText(false))
}
