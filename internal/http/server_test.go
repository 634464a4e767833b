package http

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"linkleaf/app/internal/auth"
	"linkleaf/app/internal/page"
)

func TestPageRouteRendersLinksInOrder(t *testing.T) {
	t.Parallel()

	svc := &stubPageService{
		view: &page.View{
			Page:  page.Page{Slug: "alice", Title: "Alice", Description: "Links and things"},
			Links: []page.Link{{Title: "First", URL: "https://one.example.com"}, {Title: "Second", URL: "https://two.example.com"}},
		},
	}
	srv, _ := newTestServer(t, svc)

	req := httptest.NewRequest("GET", "/alice", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	if ct := rec.Header().Get("Content-Type"); ct != htmlContentType {
		t.Fatalf("expected content type %q, got %q", htmlContentType, ct)
	}

	body := rec.Body.String()
	first := strings.Index(body, "First")
	second := strings.Index(body, "Second")
	if first == -1 || second == -1 || first > second {
		t.Fatalf("expected links in order in body, got %q", body)
	}
}

func TestPageRouteRedirectsUnknownSlugToNotFound(t *testing.T) {
	t.Parallel()

	svc := &stubPageService{loadErr: page.ErrPageNotFound}
	srv, _ := newTestServer(t, svc)

	req := httptest.NewRequest("GET", "/missing", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 302 {
		t.Fatalf("expected status 302, got %d", rec.Code)
	}

	if location := rec.Header().Get("Location"); location != "/not-found" {
		t.Fatalf("expected redirect to /not-found, got %q", location)
	}
}

func TestPageRouteLinkFailureShowsGenericError(t *testing.T) {
	t.Parallel()

	svc := &stubPageService{loadErr: eris.New("link store unavailable")}
	srv, _ := newTestServer(t, svc)

	req := httptest.NewRequest("GET", "/alice", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 500 {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}

	if location := rec.Header().Get("Location"); location != "" {
		t.Fatalf("expected no redirect for load failure, got %q", location)
	}

	if !strings.Contains(rec.Body.String(), failedLoadMessage) {
		t.Fatalf("expected generic failure message in body, got %q", rec.Body.String())
	}
}

func TestNotFoundRouteRendersDedicatedPage(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, &stubPageService{})

	req := httptest.NewRequest("GET", "/not-found", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 404 {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	if !strings.Contains(rec.Body.String(), "Page not found") {
		t.Fatalf("expected not-found message in body, got %q", rec.Body.String())
	}
}

func TestPageRouteEditAffordanceOnlyForOwner(t *testing.T) {
	t.Parallel()

	svc := &stubPageService{
		view:    &page.View{Page: page.Page{Slug: "alice", Title: "Alice"}},
		ownerID: 7,
	}
	svc.view.Page.UserID = 7
	srv, sessions := newTestServer(t, svc)

	// Anonymous viewer: no edit affordance.
	req := httptest.NewRequest("GET", "/alice", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if strings.Contains(rec.Body.String(), "/edit/alice") {
		t.Fatalf("expected no edit affordance for anonymous viewer, got %q", rec.Body.String())
	}

	// Owner: edit affordance present.
	cookie, err := sessions.IssueCookie(7)
	if err != nil {
		t.Fatalf("IssueCookie returned error: %v", err)
	}

	req = httptest.NewRequest("GET", "/alice", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), "/edit/alice") {
		t.Fatalf("expected edit affordance for owner, got %q", rec.Body.String())
	}

	// Different signed-in user: no edit affordance.
	cookie, err = sessions.IssueCookie(8)
	if err != nil {
		t.Fatalf("IssueCookie returned error: %v", err)
	}

	req = httptest.NewRequest("GET", "/alice", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if strings.Contains(rec.Body.String(), "/edit/alice") {
		t.Fatalf("expected no edit affordance for non-owner, got %q", rec.Body.String())
	}
}

func TestLoginIssuesSessionCookie(t *testing.T) {
	t.Parallel()

	user := &page.User{Email: "owner@example.com"}
	user.ID = 7
	svc := &stubPageService{user: user}
	srv, _ := newTestServer(t, svc)

	form := strings.NewReader("email=owner%40example.com&password=right")
	req := httptest.NewRequest("POST", "/login", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 303 {
		t.Fatalf("expected status 303, got %d (body %q)", rec.Code, rec.Body.String())
	}

	if cookie := rec.Header().Get("Set-Cookie"); !strings.Contains(cookie, "linkleaf_session=") {
		t.Fatalf("expected session cookie to be set, got %q", cookie)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	svc := &stubPageService{authErr: page.ErrInvalidCredentials}
	srv, _ := newTestServer(t, svc)

	form := strings.NewReader("email=owner%40example.com&password=wrong")
	req := httptest.NewRequest("POST", "/login", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 401 {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}

	if !strings.Contains(rec.Body.String(), "Invalid email or password.") {
		t.Fatalf("expected login error message, got %q", rec.Body.String())
	}
}

func TestEditRouteRedirectsNonOwner(t *testing.T) {
	t.Parallel()

	svc := &stubPageService{
		view:    &page.View{Page: page.Page{Slug: "alice", Title: "Alice"}},
		ownerID: 7,
	}
	srv, _ := newTestServer(t, svc)

	req := httptest.NewRequest("GET", "/edit/alice", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 302 {
		t.Fatalf("expected status 302, got %d", rec.Code)
	}

	if location := rec.Header().Get("Location"); location != "/alice" {
		t.Fatalf("expected redirect to /alice, got %q", location)
	}
}

func TestAddLinkAutofillsMissingTitle(t *testing.T) {
	t.Parallel()

	svc := &stubPageService{
		view:    &page.View{Page: page.Page{Slug: "alice", Title: "Alice"}},
		ownerID: 7,
	}
	srv, sessions := newTestServer(t, svc)

	cookie, err := sessions.IssueCookie(7)
	if err != nil {
		t.Fatalf("IssueCookie returned error: %v", err)
	}

	form := strings.NewReader("url=https%3A%2F%2Fexample.com&title=")
	req := httptest.NewRequest("POST", "/edit/alice/links", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 303 {
		t.Fatalf("expected status 303, got %d (body %q)", rec.Code, rec.Body.String())
	}

	if svc.addedLink == nil {
		t.Fatalf("expected link to reach the service")
	}
	if svc.addedLink.Title != "resolved title" {
		t.Fatalf("expected autofilled title, got %q", svc.addedLink.Title)
	}
}

func TestHealthRouteReportsOK(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, &stubPageService{})

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestHomeRouteShowsPageCount(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, &stubPageService{count: 42})

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	if !strings.Contains(rec.Body.String(), "42 pages published so far") {
		t.Fatalf("expected page count in body, got %q", rec.Body.String())
	}
}

func TestStrayMultiSegmentPathIsNotFound(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, &stubPageService{count: 42})

	req := httptest.NewRequest("GET", "/a/b/c", nil)
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	if rec.Code != 404 {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	if strings.Contains(rec.Body.String(), "pages published so far") {
		t.Fatalf("expected no landing page for stray path, got %q", rec.Body.String())
	}
}

// helper utilities

func newTestServer(t *testing.T, svc page.Service) (*Server, *auth.Sessions) {
	t.Helper()

	gormDB, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("gorm.Open returned error: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	sessions, err := auth.NewSessions("linkleaf_session", []byte("test-secret"), time.Hour)
	if err != nil {
		t.Fatalf("auth.NewSessions returned error: %v", err)
	}

	srv, err := NewServer(Options{
		PageService: svc,
		Sessions:    sessions,
		Titles:      stubTitles{},
		Database:    gormDB,
		Logger:      logger,
		RateLimiter: RateLimiterSettings{
			Burst:             100,
			RequestsPerSecond: 100,
			ClientTTL:         time.Minute,
		},
	})
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}

	return srv, sessions
}

// stubs

type stubTitles struct{}

func (stubTitles) Title(_ context.Context, _ string) string {
	return "resolved title"
}

type stubPageService struct {
	view    *page.View
	loadErr error
	ownerID uint
	user    *page.User
	authErr error
	count   int64

	addedLink     *page.Link
	removedLinkID uint
}

var _ page.Service = (*stubPageService)(nil)

func (s *stubPageService) LoadPage(_ context.Context, _ string, viewerID uint) (*page.View, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}

	view := *s.view
	view.CanEdit = viewerID != 0 && viewerID == s.ownerID
	return &view, nil
}

func (s *stubPageService) Authenticate(_ context.Context, _, _ string) (*page.User, error) {
	if s.authErr != nil {
		return nil, s.authErr
	}
	return s.user, nil
}

func (s *stubPageService) UpdateProfile(_ context.Context, _ string, viewerID uint, _, _ string) error {
	if viewerID != s.ownerID {
		return page.ErrNotOwner
	}
	return nil
}

func (s *stubPageService) AddLink(_ context.Context, _ string, viewerID uint, link page.Link) error {
	if viewerID != s.ownerID {
		return page.ErrNotOwner
	}
	s.addedLink = &link
	return nil
}

func (s *stubPageService) RemoveLink(_ context.Context, _ string, viewerID, linkID uint) error {
	if viewerID != s.ownerID {
		return page.ErrNotOwner
	}
	s.removedLinkID = linkID
	return nil
}

func (s *stubPageService) CountPages(_ context.Context) (int64, error) {
	return s.count, nil
}
