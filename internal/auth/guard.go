package auth

import (
	"github.com/mpernat/vellum/internal/errors"
	"github.com/mpernat/vellum/internal/session"
)

// Guard gates mutating operations behind a signed-in session and drives the
// Anonymous <-> Authenticated transitions.
type Guard struct {
	creds *Credentials
}

// NewGuard creates a Guard over the given credential store.
func NewGuard(creds *Credentials) *Guard {
	return &Guard{creds: creds}
}

// RequireSignedIn fails with UNAUTHENTICATED when the session is anonymous.
// It must run before any mutation work starts, never after.
func (g *Guard) RequireSignedIn(sess *session.Session) error {
	if !sess.SignedIn() {
		return errors.NewUnauthenticated()
	}
	return nil
}

// SignIn authenticates the session. On success the session holds the
// username and a "Welcome!" flash; on bad credentials it stays anonymous
// and the caller redisplays the form.
func (g *Guard) SignIn(sess *session.Session, username, password string) error {
	ok, err := g.creds.Verify(username, password)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewInvalidCredentials()
	}

	sess.Username = username
	sess.SetFlash(session.FlashSuccess, "Welcome!")
	return nil
}

// SignOut returns the session to Anonymous.
func (g *Guard) SignOut(sess *session.Session) {
	sess.Username = ""
	sess.SetFlash(session.FlashSuccess, "You have been signed out.")
}

// SignUp registers a new account and signs the session in immediately.
func (g *Guard) SignUp(sess *session.Session, username, password string) error {
	if err := g.creds.Append(username, password); err != nil {
		return err
	}

	sess.Username = username
	sess.SetFlash(session.FlashSuccess, "Welcome!")
	return nil
}
