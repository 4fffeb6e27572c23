package web

import (
	"context"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mpernat/vellum/internal/auth"
	"github.com/mpernat/vellum/internal/db"
	"github.com/mpernat/vellum/internal/document"
	"github.com/mpernat/vellum/internal/session"
	"github.com/mpernat/vellum/internal/vcs"
)

func setupTest(t *testing.T) *Handlers {
	t.Helper()
	root := t.TempDir()

	docs, err := document.New(filepath.Join(root, "data"), []string{"txt", "md"})
	if err != nil {
		t.Fatalf("document.New: %v", err)
	}

	creds := auth.NewCredentials(filepath.Join(root, "users.txt"))
	if err := creds.Append("admin", "correct"); err != nil {
		t.Fatalf("seed account: %v", err)
	}

	database, err := db.Init(root)
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		t.Fatalf("template sub-FS: %v", err)
	}

	return &Handlers{
		docs:      docs,
		guard:     auth.NewGuard(creds),
		sessions:  session.NewManager(database, time.Hour),
		committer: vcs.NewCommitter(docs.Root(), false),
		renderer:  NewRenderer(templateSub, "test"),
	}
}

// signedInCookie creates a persisted authenticated session and returns its cookie.
func signedInCookie(t *testing.T, h *Handlers) *http.Cookie {
	t.Helper()
	sess, err := h.sessions.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("session load: %v", err)
	}
	sess.Username = "admin"
	if err := h.sessions.Save(context.Background(), sess); err != nil {
		t.Fatalf("session save: %v", err)
	}
	return &http.Cookie{Name: sessionCookie, Value: sess.ID}
}

// formReq builds a POST request with form values.
func formReq(target string, form url.Values, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest("POST", target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

// sessionCookieFrom extracts the session cookie set by a response.
func sessionCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("response did not set a session cookie")
	return nil
}

// --- Index ---

func TestHandleIndex_ListsDocuments(t *testing.T) {
	h := setupTest(t)
	for _, name := range []string{"changes.txt", "about.txt"} {
		if err := h.docs.Create(name); err != nil {
			t.Fatalf("seed doc: %v", err)
		}
	}

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	h.HandleIndex(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "about.txt") || !strings.Contains(body, "changes.txt") {
		t.Error("expected seeded documents in listing")
	}
	// Lexicographic order
	if strings.Index(body, "about.txt") > strings.Index(body, "changes.txt") {
		t.Error("expected about.txt before changes.txt")
	}
}

// --- View ---

func TestHandleView_MarkdownRendered(t *testing.T) {
	h := setupTest(t)
	if err := h.docs.Write("markdown.md", "# This is a h1\n\nThis is a paragraph"); err != nil {
		t.Fatalf("seed doc: %v", err)
	}

	req := httptest.NewRequest("GET", "/documents/markdown.md", nil)
	req.SetPathValue("name", "markdown.md")
	rec := httptest.NewRecorder()
	h.HandleView(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<h1>This is a h1</h1>") {
		t.Errorf("expected rendered heading, got:\n%s", body)
	}
	if !strings.Contains(body, "<p>This is a paragraph</p>") {
		t.Errorf("expected rendered paragraph, got:\n%s", body)
	}
}

func TestHandleView_PlainTextUnchanged(t *testing.T) {
	h := setupTest(t)
	if err := h.docs.Write("about.txt", "# H1"); err != nil {
		t.Fatalf("seed doc: %v", err)
	}

	req := httptest.NewRequest("GET", "/documents/about.txt", nil)
	req.SetPathValue("name", "about.txt")
	rec := httptest.NewRecorder()
	h.HandleView(rec, req)

	if rec.Body.String() != "# H1" {
		t.Errorf("body = %q, want passthrough", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/plain" {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
}

func TestHandleView_MissingFlashShownOnce(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("GET", "/documents/nonexistent.txt", nil)
	req.SetPathValue("name", "nonexistent.txt")
	rec := httptest.NewRecorder()
	h.HandleView(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}
	cookie := sessionCookieFrom(t, rec)

	// First index render carries the flash.
	req = httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.HandleIndex(rec, req)
	if !strings.Contains(rec.Body.String(), "nonexistent.txt does not exist.") {
		t.Error("expected flash on first page after redirect")
	}

	// Second render must not.
	req = httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.HandleIndex(rec, req)
	if strings.Contains(rec.Body.String(), "nonexistent.txt does not exist.") {
		t.Error("flash should be shown exactly once")
	}
}

// --- Create ---

func TestHandleCreate_RequiresAuth(t *testing.T) {
	h := setupTest(t)

	rec := httptest.NewRecorder()
	h.HandleCreate(rec, formReq("/documents", url.Values{"name": {"sneaky.txt"}}))

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if h.docs.Exists("sneaky.txt") {
		t.Error("anonymous create must not touch the store")
	}

	cookie := sessionCookieFrom(t, rec)
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.HandleIndex(rec, req)
	if !strings.Contains(rec.Body.String(), "You must be signed in to do that.") {
		t.Error("expected guard flash")
	}
}

func TestHandleCreate_Success(t *testing.T) {
	h := setupTest(t)
	cookie := signedInCookie(t, h)

	rec := httptest.NewRecorder()
	h.HandleCreate(rec, formReq("/documents", url.Values{"name": {"new.md"}}, cookie))

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if !h.docs.Exists("new.md") {
		t.Error("document should exist after create")
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.HandleIndex(rec, req)
	if !strings.Contains(rec.Body.String(), "new.md has been created.") {
		t.Error("expected creation flash")
	}
}

func TestHandleCreate_InvalidName(t *testing.T) {
	h := setupTest(t)
	cookie := signedInCookie(t, h)

	tests := []struct {
		name    string
		wantMsg string
	}{
		{"", "A name is required."},
		{"a", "Filename requires an extension."},
		{"a.b.c", "Filename must not contain a &#39;.&#39;."},
		{"a.exe", "File extension invalid. Please use txt, md"},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.HandleCreate(rec, formReq("/documents", url.Values{"name": {tt.name}}, cookie))
		if rec.Code != http.StatusFound {
			t.Fatalf("status = %d, want 302", rec.Code)
		}

		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(cookie)
		rec = httptest.NewRecorder()
		h.HandleIndex(rec, req)
		if !strings.Contains(rec.Body.String(), tt.wantMsg) {
			t.Errorf("create(%q): expected flash %q in page", tt.name, tt.wantMsg)
		}
	}
}

// --- Edit ---

func TestHandleEdit_FullReplace(t *testing.T) {
	h := setupTest(t)
	cookie := signedInCookie(t, h)
	if err := h.docs.Write("doc.txt", "old"); err != nil {
		t.Fatalf("seed doc: %v", err)
	}

	req := formReq("/documents/doc.txt", url.Values{"content": {"new content"}}, cookie)
	req.SetPathValue("name", "doc.txt")
	rec := httptest.NewRecorder()
	h.HandleEdit(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	content, err := h.docs.Read("doc.txt")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if content != "new content" {
		t.Errorf("content = %q, want full replace", content)
	}

	idx := httptest.NewRequest("GET", "/", nil)
	idx.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.HandleIndex(rec, idx)
	if !strings.Contains(rec.Body.String(), "doc.txt was updated.") {
		t.Error("expected update flash")
	}
}

func TestHandleEditForm_ShowsContent(t *testing.T) {
	h := setupTest(t)
	cookie := signedInCookie(t, h)
	if err := h.docs.Write("markdown.md", "# This is a h1"); err != nil {
		t.Fatalf("seed doc: %v", err)
	}

	req := httptest.NewRequest("GET", "/documents/markdown.md/edit", nil)
	req.SetPathValue("name", "markdown.md")
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.HandleEditForm(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "# This is a h1</textarea>") {
		t.Error("expected raw source in textarea")
	}
}

// --- Duplicate ---

func TestHandleDuplicate(t *testing.T) {
	h := setupTest(t)
	cookie := signedInCookie(t, h)
	if err := h.docs.Write("source.md", "body"); err != nil {
		t.Fatalf("seed doc: %v", err)
	}

	req := formReq("/documents/source.md/duplicate", url.Values{"name": {"copy.md"}}, cookie)
	req.SetPathValue("name", "source.md")
	rec := httptest.NewRecorder()
	h.HandleDuplicate(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	content, err := h.docs.Read("copy.md")
	if err != nil {
		t.Fatalf("Read copy: %v", err)
	}
	if content != "body" {
		t.Errorf("copy content = %q", content)
	}
}

func TestHandleDuplicate_MissingSource(t *testing.T) {
	h := setupTest(t)
	cookie := signedInCookie(t, h)

	req := formReq("/documents/missing.txt/duplicate", url.Values{"name": {"ok.txt"}}, cookie)
	req.SetPathValue("name", "missing.txt")
	rec := httptest.NewRecorder()
	h.HandleDuplicate(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if h.docs.Exists("ok.txt") {
		t.Error("failed duplicate must not create the target")
	}
}

// --- Delete ---

func TestHandleDelete_RequiresAuth(t *testing.T) {
	h := setupTest(t)
	if err := h.docs.Create("keep.txt"); err != nil {
		t.Fatalf("seed doc: %v", err)
	}

	req := formReq("/documents/keep.txt/delete", url.Values{})
	req.SetPathValue("name", "keep.txt")
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	names, _ := h.docs.List()
	if len(names) != 1 || names[0] != "keep.txt" {
		t.Errorf("guarded delete must leave the document, List() = %v", names)
	}
}

func TestHandleDelete_Authenticated(t *testing.T) {
	h := setupTest(t)
	cookie := signedInCookie(t, h)
	if err := h.docs.Create("gone.txt"); err != nil {
		t.Fatalf("seed doc: %v", err)
	}

	req := formReq("/documents/gone.txt/delete", url.Values{}, cookie)
	req.SetPathValue("name", "gone.txt")
	rec := httptest.NewRecorder()
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	names, _ := h.docs.List()
	if len(names) != 0 {
		t.Errorf("List after delete = %v, want empty", names)
	}

	idx := httptest.NewRequest("GET", "/", nil)
	idx.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.HandleIndex(rec, idx)
	if !strings.Contains(rec.Body.String(), "gone.txt has been deleted.") {
		t.Error("expected deletion flash")
	}
}

// --- Auth ---

func TestHandleSignIn_Invalid(t *testing.T) {
	h := setupTest(t)

	rec := httptest.NewRecorder()
	h.HandleSignIn(rec, formReq("/signin", url.Values{
		"username": {"admin"},
		"password": {"wrong"},
	}))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Invalid Credentials") {
		t.Error("expected Invalid Credentials message")
	}
	if !strings.Contains(body, `value="admin"`) {
		t.Error("expected username pre-filled")
	}
	if strings.Contains(body, "wrong") {
		t.Error("password must never be redisplayed")
	}
}

func TestHandleSignIn_Success(t *testing.T) {
	h := setupTest(t)

	rec := httptest.NewRecorder()
	h.HandleSignIn(rec, formReq("/signin", url.Values{
		"username": {"admin"},
		"password": {"correct"},
	}))

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	cookie := sessionCookieFrom(t, rec)

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.HandleIndex(rec, req)
	body := rec.Body.String()
	if !strings.Contains(body, "Welcome!") {
		t.Error("expected welcome flash")
	}
	if !strings.Contains(body, "Signed in as admin") {
		t.Error("expected signed-in nav state")
	}
}

func TestHandleSignOut(t *testing.T) {
	h := setupTest(t)
	cookie := signedInCookie(t, h)

	rec := httptest.NewRecorder()
	h.HandleSignOut(rec, formReq("/signout", url.Values{}, cookie))

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.HandleIndex(rec, req)
	body := rec.Body.String()
	if !strings.Contains(body, "You have been signed out.") {
		t.Error("expected sign-out flash")
	}
	if strings.Contains(body, "Signed in as") {
		t.Error("session should be anonymous after sign-out")
	}
}

func TestHandleSignUp_SignsInImmediately(t *testing.T) {
	h := setupTest(t)

	rec := httptest.NewRecorder()
	h.HandleSignUp(rec, formReq("/signup", url.Values{
		"username": {"newbie"},
		"password": {"pw"},
	}))

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	cookie := sessionCookieFrom(t, rec)

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.HandleIndex(rec, req)
	if !strings.Contains(rec.Body.String(), "Signed in as newbie") {
		t.Error("signup should sign the new user in")
	}
}

func TestHandleSignUp_DuplicateUsername(t *testing.T) {
	h := setupTest(t)

	rec := httptest.NewRecorder()
	h.HandleSignUp(rec, formReq("/signup", url.Values{
		"username": {"admin"},
		"password": {"pw"},
	}))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "already taken") {
		t.Error("expected duplicate-username message")
	}
}
