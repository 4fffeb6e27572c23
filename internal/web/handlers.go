package web

import (
	"fmt"
	"net/http"

	"github.com/mpernat/vellum/internal/auth"
	"github.com/mpernat/vellum/internal/document"
	"github.com/mpernat/vellum/internal/errors"
	"github.com/mpernat/vellum/internal/render"
	"github.com/mpernat/vellum/internal/session"
	"github.com/mpernat/vellum/internal/vcs"
)

// sessionCookie is the name of the session ID cookie.
const sessionCookie = "vellum_session"

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	docs      *document.Store
	guard     *auth.Guard
	sessions  *session.Manager
	committer *vcs.Committer
	renderer  *Renderer
}

// loadSession resolves the client's session from the request cookie,
// creating a fresh anonymous one when absent or expired.
func (h *Handlers) loadSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := ""
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}

	sess, err := h.sessions.Load(r.Context(), id)
	if err != nil {
		h.renderer.renderError(w, err)
		return nil, false
	}
	return sess, true
}

// saveSession persists the session and refreshes the client cookie.
func (h *Handlers) saveSession(w http.ResponseWriter, r *http.Request, sess *session.Session) bool {
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		h.renderer.renderError(w, err)
		return false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return true
}

// flashAndRedirect attaches a one-shot flash and redirects. Recoverable
// errors (validation, not-found, guard failures) all funnel through here.
func (h *Handlers) flashAndRedirect(w http.ResponseWriter, r *http.Request, sess *session.Session, kind, message, target string) {
	sess.SetFlash(kind, message)
	if !h.saveSession(w, r, sess) {
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// requireSignedIn runs the auth guard before any mutating work. On failure
// it sets the guard's flash and redirects home, telling the caller to stop.
func (h *Handlers) requireSignedIn(w http.ResponseWriter, r *http.Request, sess *session.Session) bool {
	if err := h.guard.RequireSignedIn(sess); err != nil {
		vErr := err.(*errors.VellumError)
		h.flashAndRedirect(w, r, sess, session.FlashError, vErr.Message, "/")
		return false
	}
	return true
}

// page builds the common template data, consuming the pending flash. The
// pop is persisted so the message shows exactly once.
func (h *Handlers) page(w http.ResponseWriter, r *http.Request, sess *session.Session, title string) (PageData, bool) {
	data := PageData{
		Title:    title,
		Version:  h.renderer.version,
		Username: sess.Username,
	}
	if flash, ok := sess.PopFlash(); ok {
		data.Flash = &flash
	}
	if !h.saveSession(w, r, sess) {
		return PageData{}, false
	}
	return data, true
}

// recoverable reports whether an error should become a flash message
// rather than an error page.
func recoverable(err error) bool {
	return errors.Is(err, errors.ErrNotFound) ||
		errors.Is(err, errors.ErrInvalidName) ||
		errors.Is(err, errors.ErrAlreadyExists) ||
		errors.Is(err, errors.ErrInvalidRequest) ||
		errors.Is(err, errors.ErrIO)
}

// HandleIndex handles GET / — the document listing.
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	names, err := h.docs.List()
	if err != nil {
		h.renderer.renderError(w, err)
		return
	}

	data, ok := h.page(w, r, sess, "Documents")
	if !ok {
		return
	}
	h.renderer.renderPage(w, "index", IndexPageData{
		PageData:  data,
		Documents: names,
	})
}

// HandleView handles GET /documents/{name} — the raw document view.
// Markdown is rendered to HTML but the response is still labeled
// text/plain, matching the listing interface contract.
func (h *Handlers) HandleView(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	name := r.PathValue("name")

	content, err := h.docs.Read(name)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			h.flashAndRedirect(w, r, sess, session.FlashError,
				fmt.Sprintf("%s does not exist.", name), "/")
			return
		}
		h.renderer.renderError(w, err)
		return
	}

	out := render.Render(name, content)
	w.Header().Set("Content-Type", out.ContentType)
	_, _ = w.Write([]byte(out.Body))
}

// HandleNewForm handles GET /documents/new — the new-document form.
func (h *Handlers) HandleNewForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	if !h.requireSignedIn(w, r, sess) {
		return
	}

	data, ok := h.page(w, r, sess, "New Document")
	if !ok {
		return
	}
	h.renderer.renderPage(w, "new", NewPageData{PageData: data})
}

// HandleCreate handles POST /documents — create an empty document.
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	if !h.requireSignedIn(w, r, sess) {
		return
	}

	name := r.FormValue("name")
	if err := h.docs.Create(name); err != nil {
		if recoverable(err) {
			h.flashAndRedirect(w, r, sess, session.FlashError,
				err.(*errors.VellumError).Message, "/")
			return
		}
		h.renderer.renderError(w, err)
		return
	}

	h.committer.Record(vcs.ActionCreate, name)
	h.flashAndRedirect(w, r, sess, session.FlashSuccess,
		fmt.Sprintf("%s has been created.", name), "/")
}

// HandleEditForm handles GET /documents/{name}/edit — the edit form.
func (h *Handlers) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	if !h.requireSignedIn(w, r, sess) {
		return
	}
	name := r.PathValue("name")

	content, err := h.docs.Read(name)
	if err != nil {
		if recoverable(err) {
			h.flashAndRedirect(w, r, sess, session.FlashError,
				err.(*errors.VellumError).Message, "/")
			return
		}
		h.renderer.renderError(w, err)
		return
	}

	data, ok := h.page(w, r, sess, "Edit "+name)
	if !ok {
		return
	}
	h.renderer.renderPage(w, "edit", EditPageData{
		PageData: data,
		Name:     name,
		Content:  content,
	})
}

// HandleEdit handles POST /documents/{name} — full content replace.
func (h *Handlers) HandleEdit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	if !h.requireSignedIn(w, r, sess) {
		return
	}
	name := r.PathValue("name")

	if !h.docs.Exists(name) {
		h.flashAndRedirect(w, r, sess, session.FlashError,
			fmt.Sprintf("%s does not exist.", name), "/")
		return
	}

	if err := h.docs.Write(name, r.FormValue("content")); err != nil {
		if recoverable(err) {
			h.flashAndRedirect(w, r, sess, session.FlashError,
				err.(*errors.VellumError).Message, "/")
			return
		}
		h.renderer.renderError(w, err)
		return
	}

	h.committer.Record(vcs.ActionUpdate, name)
	h.flashAndRedirect(w, r, sess, session.FlashSuccess,
		fmt.Sprintf("%s was updated.", name), "/")
}

// HandleDuplicateForm handles GET /documents/{name}/duplicate.
func (h *Handlers) HandleDuplicateForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	if !h.requireSignedIn(w, r, sess) {
		return
	}
	name := r.PathValue("name")

	if !h.docs.Exists(name) {
		h.flashAndRedirect(w, r, sess, session.FlashError,
			fmt.Sprintf("%s does not exist.", name), "/")
		return
	}

	data, ok := h.page(w, r, sess, "Duplicate "+name)
	if !ok {
		return
	}
	h.renderer.renderPage(w, "duplicate", DuplicatePageData{
		PageData: data,
		Source:   name,
	})
}

// HandleDuplicate handles POST /documents/{name}/duplicate — byte-for-byte
// copy under a new, validated name.
func (h *Handlers) HandleDuplicate(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	if !h.requireSignedIn(w, r, sess) {
		return
	}
	source := r.PathValue("name")
	newName := r.FormValue("name")

	if err := h.docs.Duplicate(source, newName); err != nil {
		if recoverable(err) {
			h.flashAndRedirect(w, r, sess, session.FlashError,
				err.(*errors.VellumError).Message, "/")
			return
		}
		h.renderer.renderError(w, err)
		return
	}

	h.committer.Record(vcs.ActionDuplicate, newName)
	h.flashAndRedirect(w, r, sess, session.FlashSuccess,
		fmt.Sprintf("%s has been created.", newName), "/")
}

// HandleDelete handles POST /documents/{name}/delete — permanent removal.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	if !h.requireSignedIn(w, r, sess) {
		return
	}
	name := r.PathValue("name")

	if err := h.docs.Delete(name); err != nil {
		if recoverable(err) {
			h.flashAndRedirect(w, r, sess, session.FlashError,
				err.(*errors.VellumError).Message, "/")
			return
		}
		h.renderer.renderError(w, err)
		return
	}

	h.committer.Record(vcs.ActionDelete, name)
	h.flashAndRedirect(w, r, sess, session.FlashSuccess,
		fmt.Sprintf("%s has been deleted.", name), "/")
}

// HandleSignInForm handles GET /signin.
func (h *Handlers) HandleSignInForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	data, ok := h.page(w, r, sess, "Sign In")
	if !ok {
		return
	}
	h.renderer.renderPage(w, "signin", SignInPageData{PageData: data})
}

// HandleSignIn handles POST /signin. A failed attempt redisplays the form
// with the submitted username pre-filled and a 422 status; the password is
// never echoed back.
func (h *Handlers) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	username := r.FormValue("username")
	password := r.FormValue("password")

	if err := h.guard.SignIn(sess, username, password); err != nil {
		if errors.Is(err, errors.ErrInvalidCredentials) {
			data, ok := h.page(w, r, sess, "Sign In")
			if !ok {
				return
			}
			data.Flash = &session.Flash{Kind: session.FlashError, Message: "Invalid Credentials"}
			h.renderer.renderPageStatus(w, http.StatusUnprocessableEntity, "signin", SignInPageData{
				PageData:     data,
				FormUsername: username,
			})
			return
		}
		h.renderer.renderError(w, err)
		return
	}

	if !h.saveSession(w, r, sess) {
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// HandleSignOut handles POST /signout.
func (h *Handlers) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	h.guard.SignOut(sess)
	if !h.saveSession(w, r, sess) {
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// HandleSignUpForm handles GET /signup.
func (h *Handlers) HandleSignUpForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	data, ok := h.page(w, r, sess, "Sign Up")
	if !ok {
		return
	}
	h.renderer.renderPage(w, "signup", SignUpPageData{PageData: data})
}

// HandleSignUp handles POST /signup — register and sign in immediately.
func (h *Handlers) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	username := r.FormValue("username")
	password := r.FormValue("password")

	if err := h.guard.SignUp(sess, username, password); err != nil {
		if recoverable(err) {
			data, ok := h.page(w, r, sess, "Sign Up")
			if !ok {
				return
			}
			vErr := err.(*errors.VellumError)
			data.Flash = &session.Flash{Kind: session.FlashError, Message: vErr.Message}
			h.renderer.renderPageStatus(w, http.StatusUnprocessableEntity, "signup", SignUpPageData{
				PageData:     data,
				FormUsername: username,
			})
			return
		}
		h.renderer.renderError(w, err)
		return
	}

	if !h.saveSession(w, r, sess) {
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
