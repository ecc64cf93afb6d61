package chat

// LeadFormMode says whether a lead-capture prompt is showing and which flavor.
type LeadFormMode string

const (
	// LeadFormNone means no prompt is showing.
	LeadFormNone LeadFormMode = "none"
	// LeadFormSoft is the low-friction inline prompt, dismissible without
	// consequence beyond per-session suppression.
	LeadFormSoft LeadFormMode = "soft"
	// LeadFormEscalation gates a human hand-off on contact info.
	LeadFormEscalation LeadFormMode = "escalation"
)

// Canned human-request messages, chosen by admin reachability.
const (
	humanRequestOnline  = "I'd like to talk to a human please"
	humanRequestOffline = "I'd like to leave a message for Mursalin"
)

// leadForm is the lead-capture state machine. Soft-prompt suppression is
// deliberately in-memory and per-session: a dismissal holds until the session
// is reset or replaced, never across reloads.
type leadForm struct {
	mode          LeadFormMode
	softDismissed bool
	// sessionID is the session the open form targets. Submissions are checked
	// against it so a form left open across a session switch is ignored.
	sessionID string
}

func newLeadForm() leadForm {
	return leadForm{mode: LeadFormNone}
}

// maybeTriggerSoft opens the soft prompt when the visitor-message count
// reaches the threshold, no visitor info is known, nothing is showing, and
// the prompt has not been dismissed this session. Level-triggered: callers
// re-evaluate on every count change, and the permanent-dismissal flag is what
// makes it fire at most once.
func (l *leadForm) maybeTriggerSoft(visitorCount, threshold int, infoKnown bool, sessionID string) bool {
	if visitorCount < threshold || infoKnown || l.softDismissed || l.mode != LeadFormNone {
		return false
	}
	l.mode = LeadFormSoft
	l.sessionID = sessionID
	return true
}

// openEscalation shows the escalation prompt for the given session.
func (l *leadForm) openEscalation(sessionID string) {
	l.mode = LeadFormEscalation
	l.sessionID = sessionID
}

// close hides the prompt after a submission. Submission permanently dismisses
// the soft prompt for this session regardless of which mode was showing.
func (l *leadForm) close() {
	l.mode = LeadFormNone
	l.softDismissed = true
	l.sessionID = ""
}

// dismiss hides the prompt without a submission. Soft dismissal is permanent
// for the session; escalation dismissal is not, the visitor can re-request a
// human later.
func (l *leadForm) dismiss() {
	if l.mode == LeadFormSoft {
		l.softDismissed = true
	}
	l.mode = LeadFormNone
	l.sessionID = ""
}

// reset returns the machine to its initial state for a new session.
func (l *leadForm) reset() {
	l.mode = LeadFormNone
	l.softDismissed = false
	l.sessionID = ""
}

// humanRequestText picks the canned message for a human request.
func humanRequestText(adminOnline bool) string {
	if adminOnline {
		return humanRequestOnline
	}
	return humanRequestOffline
}
