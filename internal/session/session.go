package session

// Flash is a one-shot user-facing notice. It is shown on the next rendered
// page and discarded.
type Flash struct {
	Kind    string // "success" or "error"
	Message string
}

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Session is the per-client state: at most one signed-in username and at
// most one pending flash. A session moves Anonymous -> Authenticated on
// sign-in and back on sign-out; there are no other states.
type Session struct {
	ID       string
	Username string
	flash    *Flash
}

// SignedIn reports whether the session holds an authenticated principal.
func (s *Session) SignedIn() bool {
	return s.Username != ""
}

// SetFlash attaches a one-shot notice, replacing any pending one.
func (s *Session) SetFlash(kind, message string) {
	s.flash = &Flash{Kind: kind, Message: message}
}

// PopFlash returns the pending flash and clears it. The second return is
// false when no flash is pending. Callers must persist the session after a
// successful pop so the message is shown exactly once.
func (s *Session) PopFlash() (Flash, bool) {
	if s.flash == nil {
		return Flash{}, false
	}
	f := *s.flash
	s.flash = nil
	return f, true
}

// peekFlash exposes the pending flash for persistence without consuming it.
func (s *Session) peekFlash() *Flash {
	return s.flash
}

// restoreFlash sets the pending flash from storage.
func (s *Session) restoreFlash(f *Flash) {
	s.flash = f
}
