package page

import (
	"context"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Service defines higher-level page operations built on top of the repository.
type Service interface {
	LoadPage(ctx context.Context, slug string, viewerID uint) (*View, error)
	Authenticate(ctx context.Context, email, password string) (*User, error)
	UpdateProfile(ctx context.Context, slug string, viewerID uint, title, description string) error
	AddLink(ctx context.Context, slug string, viewerID uint, link Link) error
	RemoveLink(ctx context.Context, slug string, viewerID, linkID uint) error
	CountPages(ctx context.Context) (int64, error)
}

// View is the fully loaded state of a single page: the outcome of the
// sequential page, avatar and link reads plus the viewer's edit permission.
type View struct {
	Page      Page
	AvatarURL string
	Links     []Link
	CanEdit   bool
}

// ErrPageNotFound indicates no page exists for the requested slug.
var ErrPageNotFound = eris.New("page not found")

// ErrNotOwner indicates the viewer does not own the page being edited.
var ErrNotOwner = eris.New("viewer does not own this page")

// ErrInvalidCredentials indicates a failed email/password login.
var ErrInvalidCredentials = eris.New("invalid email or password")

type service struct {
	repo      Repository
	logger    *logrus.Logger
	sentryHub *sentry.Hub
}

var _ Service = (*service)(nil)

// NewService wires the page service with its dependencies.
func NewService(repo Repository, logger *logrus.Logger, hub *sentry.Hub) (Service, error) {
	if repo == nil {
		return nil, eris.New("page repository is required")
	}

	return &service{repo: repo, logger: logger, sentryHub: hub}, nil
}

// LoadPage performs the three reads behind a page view in sequence: the page
// row by slug, then the owner's avatar, then the ordered links. Each read
// depends on identifiers produced by the previous one, and each takes ctx so
// an abandoned request stops the remaining reads. The avatar read is the only
// non-fatal one: its absence or failure is logged and the view proceeds
// without an image.
func (s *service) LoadPage(ctx context.Context, slug string, viewerID uint) (*View, error) {
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" {
		return nil, eris.New("slug is required")
	}

	p, err := s.repo.GetPageBySlug(ctx, trimmed)
	if err != nil {
		s.recordError(logrus.Fields{"slug": trimmed}, err, "retrieving page from repository")
		return nil, eris.Wrapf(err, "retrieving page: %s", trimmed)
	}
	if p == nil {
		return nil, eris.Wrapf(ErrPageNotFound, "retrieving page: %s", trimmed)
	}

	view := &View{Page: *p}

	avatar, err := s.repo.GetAvatarByUserID(ctx, p.UserID)
	switch {
	case err != nil:
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{
				"slug":    trimmed,
				"user_id": p.UserID,
				"error":   err.Error(),
			}).Warn("avatar lookup failed, rendering without avatar")
		}
	case avatar != nil:
		view.AvatarURL = avatar.ImageURL
	}

	links, err := s.repo.ListLinksByPageID(ctx, p.ID)
	if err != nil {
		s.recordError(logrus.Fields{"slug": trimmed, "page_id": p.ID}, err, "retrieving page links")
		return nil, eris.Wrapf(err, "retrieving links for page: %s", trimmed)
	}
	view.Links = links

	view.CanEdit = viewerID != 0 && viewerID == p.UserID

	return view, nil
}

// Authenticate verifies an email/password pair against the stored bcrypt hash.
func (s *service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	trimmed := strings.TrimSpace(strings.ToLower(email))
	if trimmed == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetUserByEmail(ctx, trimmed)
	if err != nil {
		s.recordError(logrus.Fields{"email": trimmed}, err, "retrieving user for login")
		return nil, eris.Wrap(err, "retrieving user for login")
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// UpdateProfile changes the title and description of a page owned by the viewer.
func (s *service) UpdateProfile(ctx context.Context, slug string, viewerID uint, title, description string) error {
	p, err := s.ownedPage(ctx, slug, viewerID)
	if err != nil {
		return err
	}

	p.Title = strings.TrimSpace(title)
	p.Description = strings.TrimSpace(description)

	if err := s.repo.UpdatePage(ctx, p); err != nil {
		s.recordError(logrus.Fields{"slug": p.Slug}, err, "updating page profile")
		return eris.Wrapf(err, "updating profile for page: %s", p.Slug)
	}

	return nil
}

// AddLink appends a link to a page owned by the viewer.
func (s *service) AddLink(ctx context.Context, slug string, viewerID uint, link Link) error {
	p, err := s.ownedPage(ctx, slug, viewerID)
	if err != nil {
		return err
	}

	link.PageID = p.ID
	if err := s.repo.CreateLink(ctx, &link); err != nil {
		s.recordError(logrus.Fields{"slug": p.Slug}, err, "adding link to page")
		return eris.Wrapf(err, "adding link to page: %s", p.Slug)
	}

	return nil
}

// RemoveLink deletes a link from a page owned by the viewer.
func (s *service) RemoveLink(ctx context.Context, slug string, viewerID, linkID uint) error {
	p, err := s.ownedPage(ctx, slug, viewerID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteLink(ctx, p.ID, linkID); err != nil {
		s.recordError(logrus.Fields{"slug": p.Slug, "link_id": linkID}, err, "removing link from page")
		return eris.Wrapf(err, "removing link from page: %s", p.Slug)
	}

	return nil
}

// CountPages reports how many pages have been published.
func (s *service) CountPages(ctx context.Context) (int64, error) {
	count, err := s.repo.CountPages(ctx)
	if err != nil {
		s.recordError(nil, err, "counting pages")
		return 0, eris.Wrap(err, "counting pages")
	}

	return count, nil
}

func (s *service) ownedPage(ctx context.Context, slug string, viewerID uint) (*Page, error) {
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" {
		return nil, eris.New("slug is required")
	}

	p, err := s.repo.GetPageBySlug(ctx, trimmed)
	if err != nil {
		s.recordError(logrus.Fields{"slug": trimmed}, err, "retrieving page for edit")
		return nil, eris.Wrapf(err, "retrieving page: %s", trimmed)
	}
	if p == nil {
		return nil, eris.Wrapf(ErrPageNotFound, "retrieving page: %s", trimmed)
	}

	if viewerID == 0 || viewerID != p.UserID {
		return nil, eris.Wrapf(ErrNotOwner, "editing page: %s", trimmed)
	}

	return p, nil
}

func (s *service) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error(message)
	}

	if s.sentryHub != nil {
		s.sentryHub.CaptureException(err)
	}
}
