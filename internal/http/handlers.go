package http

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"linkleaf/app/internal/db"
	"linkleaf/app/internal/http/templates"
	"linkleaf/app/internal/page"
)

const (
	htmlContentType   = "text/html; charset=utf-8"
	failedLoadMessage = "Failed to load page. Please try again."
)

type htmlResponse struct {
	Status      int
	ContentType string `header:"Content-Type"`
	Location    string `header:"Location"`
	SetCookie   string `header:"Set-Cookie"`
	Body        []byte
}

type pageInput struct {
	Slug string `path:"slug"`
}

type formInput struct {
	RawBody []byte
}

type editInput struct {
	Slug    string `path:"slug"`
	RawBody []byte
}

type deleteLinkInput struct {
	Slug   string `path:"slug"`
	LinkID uint   `path:"id"`
}

type healthResponse struct {
	Status int
	Body   struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
}

func (s *Server) registerHomeRoute() {
	// "/{$}" matches the root exactly; without it the pattern is a subtree
	// match and stray multi-segment paths would render the landing page.
	huma.Get(s.api, "/{$}", s.homeHandler, htmlOperation("Linkleaf home", stdhttp.StatusInternalServerError))
}

func (s *Server) registerPageRoute() {
	huma.Get(s.api, "/{slug}", s.pageHandler, htmlOperation(
		"View a page",
		stdhttp.StatusFound,
		stdhttp.StatusBadRequest,
		stdhttp.StatusInternalServerError,
	))
}

func (s *Server) registerNotFoundRoute() {
	huma.Get(s.api, "/not-found", s.notFoundHandler, htmlOperation("Page not found", stdhttp.StatusNotFound))
}

func (s *Server) registerLoginRoutes() {
	huma.Get(s.api, "/login", s.loginPageHandler, htmlOperation("Login form"))
	huma.Post(s.api, "/login", s.loginHandler, htmlOperation(
		"Log in",
		stdhttp.StatusSeeOther,
		stdhttp.StatusUnauthorized,
		stdhttp.StatusInternalServerError,
	))
	huma.Post(s.api, "/logout", s.logoutHandler, htmlOperation("Log out", stdhttp.StatusSeeOther))
}

func (s *Server) registerEditRoutes() {
	huma.Get(s.api, "/edit/{slug}", s.editPageHandler, htmlOperation(
		"Edit a page",
		stdhttp.StatusFound,
		stdhttp.StatusInternalServerError,
	))
	huma.Post(s.api, "/edit/{slug}/profile", s.updateProfileHandler, htmlOperation(
		"Update page profile",
		stdhttp.StatusSeeOther,
		stdhttp.StatusFound,
		stdhttp.StatusInternalServerError,
	))
	huma.Post(s.api, "/edit/{slug}/links", s.addLinkHandler, htmlOperation(
		"Add a link",
		stdhttp.StatusSeeOther,
		stdhttp.StatusFound,
		stdhttp.StatusInternalServerError,
	))
	huma.Post(s.api, "/edit/{slug}/links/{id}/delete", s.deleteLinkHandler, htmlOperation(
		"Remove a link",
		stdhttp.StatusSeeOther,
		stdhttp.StatusFound,
		stdhttp.StatusInternalServerError,
	))
}

func (s *Server) registerHealthRoute() {
	huma.Get(s.api, "/healthz", s.healthHandler, func(op *huma.Operation) {
		op.Summary = "Health check"
	})
}

func (s *Server) homeHandler(ctx context.Context, _ *struct{}) (*htmlResponse, error) {
	count, err := s.pages.CountPages(ctx)
	if err != nil {
		s.recordError(ctx, err, "counting pages", nil)
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, failedLoadMessage)
	}

	data := templates.LandingPageData{
		PageCountLabel: fmt.Sprintf("%d pages published so far.", count),
	}

	body, err := renderComponent(ctx, templates.LandingPage(data))
	if err != nil {
		s.recordError(ctx, err, "rendering landing page", nil)
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, failedLoadMessage)
	}

	return newHTMLResponse(stdhttp.StatusOK, body), nil
}

// pageHandler is the page view: page, avatar and links loaded in sequence,
// then rendered with the viewer's edit permission.
func (s *Server) pageHandler(ctx context.Context, input *pageInput) (*htmlResponse, error) {
	slug := strings.TrimSpace(input.Slug)
	viewerID := ViewerIDFromContext(ctx)

	view, err := s.pages.LoadPage(ctx, slug, viewerID)
	if err != nil {
		if eris.Is(err, page.ErrPageNotFound) {
			return redirectResponse(stdhttp.StatusFound, "/not-found"), nil
		}
		s.recordError(ctx, err, "loading page", logrus.Fields{"slug": slug})
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, failedLoadMessage)
	}

	body, err := renderComponent(ctx, templates.ProfilePage(profileData(view)))
	if err != nil {
		s.recordError(ctx, err, "rendering page", logrus.Fields{"slug": slug})
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, failedLoadMessage)
	}

	return newHTMLResponse(stdhttp.StatusOK, body), nil
}

func (s *Server) notFoundHandler(ctx context.Context, _ *struct{}) (*htmlResponse, error) {
	body, err := renderComponent(ctx, templates.NotFoundPage())
	if err != nil {
		s.recordError(ctx, err, "rendering not-found page", nil)
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, failedLoadMessage)
	}

	return newHTMLResponse(stdhttp.StatusNotFound, body), nil
}

func (s *Server) loginPageHandler(ctx context.Context, _ *struct{}) (*htmlResponse, error) {
	return s.renderLoginPage(ctx, stdhttp.StatusOK, templates.LoginPageData{})
}

func (s *Server) loginHandler(ctx context.Context, input *formInput) (*htmlResponse, error) {
	form, err := url.ParseQuery(string(input.RawBody))
	if err != nil {
		return s.renderLoginPage(ctx, stdhttp.StatusBadRequest, templates.LoginPageData{
			ErrorMessage: "The login form could not be read.",
		})
	}

	email := strings.TrimSpace(form.Get("email"))
	password := form.Get("password")

	user, err := s.pages.Authenticate(ctx, email, password)
	if err != nil {
		if eris.Is(err, page.ErrInvalidCredentials) {
			return s.renderLoginPage(ctx, stdhttp.StatusUnauthorized, templates.LoginPageData{
				Email:        email,
				ErrorMessage: "Invalid email or password.",
			})
		}
		s.recordError(ctx, err, "authenticating user", logrus.Fields{"email": email})
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, failedLoadMessage)
	}

	cookie, err := s.sessions.IssueCookie(user.ID)
	if err != nil {
		s.recordError(ctx, err, "issuing session cookie", logrus.Fields{"user_id": user.ID})
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, failedLoadMessage)
	}

	resp := redirectResponse(stdhttp.StatusSeeOther, "/")
	resp.SetCookie = cookie.String()
	return resp, nil
}

func (s *Server) logoutHandler(_ context.Context, _ *formInput) (*htmlResponse, error) {
	resp := redirectResponse(stdhttp.StatusSeeOther, "/")
	resp.SetCookie = s.sessions.ClearCookie().String()
	return resp, nil
}

func (s *Server) editPageHandler(ctx context.Context, input *pageInput) (*htmlResponse, error) {
	slug := strings.TrimSpace(input.Slug)
	viewerID := ViewerIDFromContext(ctx)

	view, err := s.pages.LoadPage(ctx, slug, viewerID)
	if err != nil {
		if eris.Is(err, page.ErrPageNotFound) {
			return redirectResponse(stdhttp.StatusFound, "/not-found"), nil
		}
		s.recordError(ctx, err, "loading page for edit", logrus.Fields{"slug": slug})
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, failedLoadMessage)
	}

	if !view.CanEdit {
		return redirectResponse(stdhttp.StatusFound, "/"+slug), nil
	}

	data := templates.EditPageData{
		Slug:        view.Page.Slug,
		Title:       view.Page.Title,
		Description: view.Page.Description,
	}
	for _, link := range view.Links {
		data.Links = append(data.Links, templates.EditLink{
			ID:          link.ID,
			Title:       link.Title,
			URL:         link.URL,
			Description: link.Description,
		})
	}

	body, err := renderComponent(ctx, templates.EditPage(data))
	if err != nil {
		s.recordError(ctx, err, "rendering edit page", logrus.Fields{"slug": slug})
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, failedLoadMessage)
	}

	return newHTMLResponse(stdhttp.StatusOK, body), nil
}

func (s *Server) updateProfileHandler(ctx context.Context, input *editInput) (*htmlResponse, error) {
	slug := strings.TrimSpace(input.Slug)
	viewerID := ViewerIDFromContext(ctx)

	form, err := url.ParseQuery(string(input.RawBody))
	if err != nil {
		return redirectResponse(stdhttp.StatusSeeOther, "/edit/"+slug), nil
	}

	err = s.pages.UpdateProfile(ctx, slug, viewerID, form.Get("title"), form.Get("description"))
	if err != nil {
		return s.editFailureResponse(ctx, err, slug, "updating profile")
	}

	return redirectResponse(stdhttp.StatusSeeOther, "/edit/"+slug), nil
}

func (s *Server) addLinkHandler(ctx context.Context, input *editInput) (*htmlResponse, error) {
	slug := strings.TrimSpace(input.Slug)
	viewerID := ViewerIDFromContext(ctx)

	form, err := url.ParseQuery(string(input.RawBody))
	if err != nil {
		return redirectResponse(stdhttp.StatusSeeOther, "/edit/"+slug), nil
	}

	link := page.Link{
		URL:         strings.TrimSpace(form.Get("url")),
		Title:       strings.TrimSpace(form.Get("title")),
		Description: strings.TrimSpace(form.Get("description")),
	}

	if link.Title == "" && s.titles != nil {
		link.Title = s.titles.Title(ctx, link.URL)
	}

	if err := s.pages.AddLink(ctx, slug, viewerID, link); err != nil {
		return s.editFailureResponse(ctx, err, slug, "adding link")
	}

	return redirectResponse(stdhttp.StatusSeeOther, "/edit/"+slug), nil
}

func (s *Server) deleteLinkHandler(ctx context.Context, input *deleteLinkInput) (*htmlResponse, error) {
	slug := strings.TrimSpace(input.Slug)
	viewerID := ViewerIDFromContext(ctx)

	if err := s.pages.RemoveLink(ctx, slug, viewerID, input.LinkID); err != nil {
		return s.editFailureResponse(ctx, err, slug, "removing link")
	}

	return redirectResponse(stdhttp.StatusSeeOther, "/edit/"+slug), nil
}

func (s *Server) healthHandler(ctx context.Context, _ *struct{}) (*healthResponse, error) {
	resp := &healthResponse{}
	resp.Body.Status = "ok"
	resp.Body.Database = "ok"

	sqlDB, err := db.SQLDB(s.db)
	if err != nil {
		s.recordError(ctx, err, "obtaining sql db", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	} else if pingErr := sqlDB.PingContext(ctx); pingErr != nil {
		s.recordError(ctx, pingErr, "pinging database", nil)
		resp.Body.Status = "degraded"
		resp.Body.Database = "error"
		resp.Status = stdhttp.StatusServiceUnavailable
	}

	if resp.Status == 0 {
		resp.Status = stdhttp.StatusOK
	}

	return resp, nil
}

// editFailureResponse maps edit-operation errors: unknown page goes to the
// not-found view, a non-owner is bounced back to the public page, anything
// else is a generic failure.
func (s *Server) editFailureResponse(ctx context.Context, err error, slug, action string) (*htmlResponse, error) {
	switch {
	case eris.Is(err, page.ErrPageNotFound):
		return redirectResponse(stdhttp.StatusFound, "/not-found"), nil
	case eris.Is(err, page.ErrNotOwner):
		return redirectResponse(stdhttp.StatusFound, "/"+slug), nil
	default:
		s.recordError(ctx, err, action, logrus.Fields{"slug": slug})
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, failedLoadMessage)
	}
}

func (s *Server) renderLoginPage(ctx context.Context, status int, data templates.LoginPageData) (*htmlResponse, error) {
	body, err := renderComponent(ctx, templates.LoginPage(data))
	if err != nil {
		s.recordError(ctx, err, "rendering login page", nil)
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, failedLoadMessage)
	}

	return newHTMLResponse(status, body), nil
}

func profileData(view *page.View) templates.ProfilePageData {
	data := templates.ProfilePageData{
		Slug:        view.Page.Slug,
		Title:       view.Page.Title,
		Description: view.Page.Description,
		AvatarURL:   view.AvatarURL,
		Glyph:       templates.TitleGlyph(view.Page.Title),
		CanEdit:     view.CanEdit,
	}

	for _, link := range view.Links {
		image := link.ImageURL
		if image == "" {
			if fav, ok := page.FaviconURL(link.URL); ok {
				image = fav
			}
		}
		data.Links = append(data.Links, templates.LinkCard{
			Title:       link.Title,
			Description: link.Description,
			URL:         link.URL,
			ImageURL:    image,
		})
	}

	return data
}

func newHTMLResponse(status int, body []byte) *htmlResponse {
	return &htmlResponse{
		Status:      status,
		ContentType: htmlContentType,
		Body:        body,
	}
}

func redirectResponse(status int, location string) *htmlResponse {
	return &htmlResponse{
		Status:   status,
		Location: location,
	}
}

func htmlOperation(summary string, statuses ...int) func(op *huma.Operation) {
	return func(op *huma.Operation) {
		if summary != "" {
			op.Summary = summary
		}
		if op.Responses == nil {
			op.Responses = map[string]*huma.Response{}
		}

		statusCodes := append([]int{stdhttp.StatusOK}, statuses...)
		for _, status := range statusCodes {
			code := strconv.Itoa(status)
			op.Responses[code] = &huma.Response{
				Description: stdhttp.StatusText(status),
				Content: map[string]*huma.MediaType{
					htmlContentType: {
						Schema: &huma.Schema{Type: "string"},
					},
				},
			}
		}
	}
}

func (s *Server) renderErrorResponse(ctx context.Context, status int, message string) (*htmlResponse, error) {
	label := fmt.Sprintf("%d %s", status, stdhttp.StatusText(status))
	component := templates.ErrorPage(templates.ErrorPageData{
		StatusLabel: label,
		Message:     message,
	})

	body, err := renderComponent(ctx, component)
	if err != nil {
		s.recordError(ctx, err, "rendering error page", logrus.Fields{"status": status})
		fallback := []byte(fmt.Sprintf("<html><body><h1>%s</h1><p>%s</p></body></html>", label, message))
		return newHTMLResponse(status, fallback), nil
	}

	return newHTMLResponse(status, body), nil
}

func (s *Server) recordError(ctx context.Context, err error, message string, fields logrus.Fields) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if fields != nil {
			entry = entry.WithFields(fields)
		}
		if requestID := RequestIDFromContext(ctx); requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}
		entry.Error(message)
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	if s.sentry != nil {
		s.sentry.CaptureException(err)
	}
}
