package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/inkwell/inkwell-be/internal/database"
	"github.com/inkwell/inkwell-be/internal/services"
	"github.com/inkwell/inkwell-be/internal/uploads"
	"github.com/inkwell/inkwell-be/internal/websocket"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db open: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	profileImages, err := uploads.New(t.TempDir(), []string{"jpg", "png"}, 1<<20)
	if err != nil {
		t.Fatalf("profile store: %v", err)
	}
	blogImages, err := uploads.New(t.TempDir(), []string{"jpg", "png"}, 1<<20)
	if err != nil {
		t.Fatalf("blog store: %v", err)
	}

	hub := websocket.NewHub()
	go hub.Run()

	eventService := services.NewEventService(db)
	userService := services.NewUserService(db, eventService)
	sessionService := services.NewSessionService(db, time.Hour)
	blogService := services.NewBlogService(db, blogImages, eventService)

	return NewRouter(hub, userService, sessionService, blogService, eventService,
		profileImages, blogImages, []string{"http://localhost:3000"})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v (%s)", err, w.Body.String())
	}
	return body
}

func registerAndLogin(t *testing.T, h http.Handler, username, email string) *http.Cookie {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"first_name": "Test",
		"last_name":  "User",
		"username":   username,
		"email":      email,
		"password":   "pw123",
		"role":       "author",
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register code %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, h, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": email, "password": "pw123",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login code %d: %s", w.Code, w.Body.String())
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("no session cookie set")
	}
	return cookies[0]
}

func TestRegisterLoginFlow(t *testing.T) {
	h := newTestRouter(t)

	w := doJSON(t, h, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"first_name": "Ada", "last_name": "Lovelace", "username": "ada",
		"email": "a@x.com", "password": "pw123", "role": "author",
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register code %d: %s", w.Code, w.Body.String())
	}
	if body := decodeBody(t, w); body["status"] != "success" {
		t.Fatalf("register envelope: %v", body)
	}

	w = doJSON(t, h, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "a@x.com", "password": "pw123",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login code %d", w.Code)
	}
	if body := decodeBody(t, w); body["status"] != "success" {
		t.Fatalf("login envelope: %v", body)
	}

	w = doJSON(t, h, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "a@x.com", "password": "wrong",
	}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password code %d", w.Code)
	}
	if body := decodeBody(t, w); body["status"] != "error" {
		t.Fatalf("wrong password envelope: %v", body)
	}
}

func TestRegisterMissingFieldsRejected(t *testing.T) {
	h := newTestRouter(t)

	w := doJSON(t, h, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": "a@x.com", "password": "pw123",
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	h := newTestRouter(t)
	registerAndLogin(t, h, "ada", "a@x.com")

	w := doJSON(t, h, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"first_name": "Other", "last_name": "User", "username": "other",
		"email": "a@x.com", "password": "pw123", "role": "author",
	}, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCheckAuth(t *testing.T) {
	h := newTestRouter(t)

	w := doJSON(t, h, http.MethodGet, "/api/v1/auth/check", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous check code %d", w.Code)
	}

	cookie := registerAndLogin(t, h, "ada", "a@x.com")
	w = doJSON(t, h, http.MethodGet, "/api/v1/auth/check", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("authenticated check code %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	user, ok := body["user"].(map[string]any)
	if !ok {
		t.Fatalf("check response missing user: %v", body)
	}
	if user["username"] != "ada" {
		t.Fatalf("wrong user: %v", user)
	}
	if strings.Contains(strings.ToLower(w.Body.String()), "password") {
		t.Fatalf("password material leaked in response: %s", w.Body.String())
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	h := newTestRouter(t)
	cookie := registerAndLogin(t, h, "ada", "a@x.com")

	w := doJSON(t, h, http.MethodPost, "/api/v1/auth/logout", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("logout code %d", w.Code)
	}

	// The old token must be dead server-side, not just cookie-cleared.
	w = doJSON(t, h, http.MethodGet, "/api/v1/auth/check", nil, cookie)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("session survived logout: code %d", w.Code)
	}
}

func TestBlogCRUDOverHTTP(t *testing.T) {
	h := newTestRouter(t)
	ada := registerAndLogin(t, h, "ada", "a@x.com")
	bob := registerAndLogin(t, h, "bob", "b@x.com")

	// Unauthenticated create is rejected.
	w := doJSON(t, h, http.MethodPost, "/api/v1/blogs", map[string]string{
		"title": "x", "content": "y",
	}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create code %d", w.Code)
	}

	// Create as ada.
	w = doJSON(t, h, http.MethodPost, "/api/v1/blogs", map[string]string{
		"title": "Hello", "content": "World",
	}, ada)
	if w.Code != http.StatusCreated {
		t.Fatalf("create code %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	blog, ok := body["blog"].(map[string]any)
	if !ok {
		t.Fatalf("create response missing blog: %v", body)
	}
	id := int64(blog["id"].(float64))

	// Everyone can read.
	w = doJSON(t, h, http.MethodGet, "/api/v1/blogs", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("readAll code %d", w.Code)
	}
	if blogs, ok := decodeBody(t, w)["blogs"].([]any); !ok || len(blogs) != 1 {
		t.Fatalf("readAll payload: %s", w.Body.String())
	}

	w = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/v1/blogs/%d", id), nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("readSingle code %d", w.Code)
	}

	// Bob cannot touch ada's post.
	w = doJSON(t, h, http.MethodPut, fmt.Sprintf("/api/v1/blogs/%d", id), map[string]string{
		"title": "Stolen", "content": "Hacked",
	}, bob)
	if w.Code != http.StatusForbidden {
		t.Fatalf("cross-user update code %d", w.Code)
	}
	w = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/api/v1/blogs/%d", id), nil, bob)
	if w.Code != http.StatusForbidden {
		t.Fatalf("cross-user delete code %d", w.Code)
	}

	// The row is unchanged.
	w = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/v1/blogs/%d", id), nil, nil)
	if got := decodeBody(t, w)["blog"].(map[string]any); got["title"] != "Hello" {
		t.Fatalf("row changed by non-owner: %v", got)
	}

	// Ada can update and delete.
	w = doJSON(t, h, http.MethodPut, fmt.Sprintf("/api/v1/blogs/%d", id), map[string]string{
		"title": "Hello v2", "content": "World",
	}, ada)
	if w.Code != http.StatusOK {
		t.Fatalf("owner update code %d: %s", w.Code, w.Body.String())
	}
	w = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/api/v1/blogs/%d", id), nil, ada)
	if w.Code != http.StatusOK {
		t.Fatalf("owner delete code %d: %s", w.Code, w.Body.String())
	}
	w = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/v1/blogs/%d", id), nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("deleted blog still readable: code %d", w.Code)
	}
}

func multipartUpload(t *testing.T, field, filename string, content []byte, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range extra {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write file: %v", err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestProfileImageUpload(t *testing.T) {
	h := newTestRouter(t)
	cookie := registerAndLogin(t, h, "ada", "a@x.com")

	body, contentType := multipartUpload(t, "image", "avatar.png", []byte("png-bytes"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/profile/image", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("upload code %d: %s", w.Code, w.Body.String())
	}
	if p, ok := decodeBody(t, w)["path"].(string); !ok || p == "" {
		t.Fatalf("upload response missing path")
	}

	// Disallowed extension is rejected.
	body, contentType = multipartUpload(t, "image", "notes.txt", []byte("text"), nil)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/profile/image", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad type upload code %d", w.Code)
	}
}

func TestBlogCreateMultipartWithImage(t *testing.T) {
	h := newTestRouter(t)
	cookie := registerAndLogin(t, h, "ada", "a@x.com")

	body, contentType := multipartUpload(t, "blog_image", "cover.jpg", []byte("jpeg-bytes"),
		map[string]string{"title": "Pics", "content": "Look at this"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/blogs", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("multipart create code %d: %s", w.Code, w.Body.String())
	}
	blog, ok := decodeBody(t, w)["blog"].(map[string]any)
	if !ok || blog["blogImage"] == nil {
		t.Fatalf("blog image path missing: %s", w.Body.String())
	}
}

func TestUpdateProfile(t *testing.T) {
	h := newTestRouter(t)
	cookie := registerAndLogin(t, h, "ada", "a@x.com")

	w := doJSON(t, h, http.MethodPut, "/api/v1/profile", map[string]string{
		"first_name": "Augusta", "last_name": "King",
		"pronouns": "she/her", "bio": "First programmer.", "role": "editor",
	}, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("update profile code %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, h, http.MethodGet, "/api/v1/auth/check", nil, cookie)
	user := decodeBody(t, w)["user"].(map[string]any)
	if user["firstName"] != "Augusta" || user["role"] != "editor" {
		t.Fatalf("profile not updated: %v", user)
	}
}

func TestEventsRequireSession(t *testing.T) {
	h := newTestRouter(t)

	w := doJSON(t, h, http.MethodGet, "/api/v1/events/recent", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous events code %d", w.Code)
	}

	cookie := registerAndLogin(t, h, "ada", "a@x.com")
	w = doJSON(t, h, http.MethodGet, "/api/v1/events/recent", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("events code %d: %s", w.Code, w.Body.String())
	}
	if _, ok := decodeBody(t, w)["events"].([]any); !ok {
		t.Fatalf("events payload: %s", w.Body.String())
	}
}
