package page

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Repository defines persistence operations for pages, links, avatars and users.
type Repository interface {
	GetPageBySlug(ctx context.Context, slug string) (*Page, error)
	GetAvatarByUserID(ctx context.Context, userID uint) (*Avatar, error)
	ListLinksByPageID(ctx context.Context, pageID uint) ([]Link, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, userID uint) (*User, error)
	CreateUser(ctx context.Context, user *User) error
	CreatePage(ctx context.Context, page *Page) error
	SetAvatar(ctx context.Context, avatar *Avatar) error
	UpdatePage(ctx context.Context, page *Page) error
	CreateLink(ctx context.Context, link *Link) error
	DeleteLink(ctx context.Context, pageID, linkID uint) error
	CountPages(ctx context.Context) (int64, error)
}

// GormRepository persists page data using a Gorm database connection.
type GormRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewRepository constructs a Gorm-backed repository implementation.
func NewRepository(conn *gorm.DB, logger *logrus.Logger) (*GormRepository, error) {
	if conn == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &GormRepository{db: conn, logger: logger}, nil
}

var _ Repository = (*GormRepository)(nil)

// GetPageBySlug returns the page for the provided slug or nil when not found.
func (r *GormRepository) GetPageBySlug(ctx context.Context, slug string) (*Page, error) {
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" {
		return nil, eris.New("slug is required")
	}

	var p Page
	err := r.db.WithContext(ctx).First(&p, "slug = ?", trimmed).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"slug": trimmed}, err, "fetching page by slug")
		return nil, eris.Wrapf(err, "fetching page by slug: %s", trimmed)
	}

	return &p, nil
}

// GetAvatarByUserID returns the avatar row for the user or nil when not found.
func (r *GormRepository) GetAvatarByUserID(ctx context.Context, userID uint) (*Avatar, error) {
	if userID == 0 {
		return nil, eris.New("user id is required")
	}

	var avatar Avatar
	err := r.db.WithContext(ctx).First(&avatar, "user_id = ?", userID).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"user_id": userID}, err, "fetching avatar by user id")
		return nil, eris.Wrapf(err, "fetching avatar for user %d", userID)
	}

	return &avatar, nil
}

// ListLinksByPageID returns every link on the page ordered by creation time,
// oldest first.
func (r *GormRepository) ListLinksByPageID(ctx context.Context, pageID uint) ([]Link, error) {
	if pageID == 0 {
		return nil, eris.New("page id is required")
	}

	var links []Link
	err := r.db.WithContext(ctx).
		Where("page_id = ?", pageID).
		Order("created_at ASC").
		Find(&links).Error
	if err != nil {
		r.logError(logrus.Fields{"page_id": pageID}, err, "listing links by page id")
		return nil, eris.Wrapf(err, "listing links for page %d", pageID)
	}

	return links, nil
}

// GetUserByEmail returns the user with the given email or nil when not found.
func (r *GormRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	trimmed := strings.TrimSpace(strings.ToLower(email))
	if trimmed == "" {
		return nil, eris.New("email is required")
	}

	var user User
	err := r.db.WithContext(ctx).First(&user, "email = ?", trimmed).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"email": trimmed}, err, "fetching user by email")
		return nil, eris.Wrapf(err, "fetching user by email: %s", trimmed)
	}

	return &user, nil
}

// GetUserByID returns the user with the given id or nil when not found.
func (r *GormRepository) GetUserByID(ctx context.Context, userID uint) (*User, error) {
	if userID == 0 {
		return nil, eris.New("user id is required")
	}

	var user User
	err := r.db.WithContext(ctx).First(&user, userID).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(logrus.Fields{"user_id": userID}, err, "fetching user by id")
		return nil, eris.Wrapf(err, "fetching user by id: %d", userID)
	}

	return &user, nil
}

// CreateUser stores a new owning identity.
func (r *GormRepository) CreateUser(ctx context.Context, user *User) error {
	if user == nil {
		return eris.New("user is nil")
	}

	user.Email = strings.TrimSpace(strings.ToLower(user.Email))
	if user.Email == "" {
		return eris.New("user email is required")
	}
	if user.PasswordHash == "" {
		return eris.New("user password hash is required")
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		r.logError(logrus.Fields{"email": user.Email}, err, "creating user")
		return eris.Wrapf(err, "creating user: %s", user.Email)
	}

	return nil
}

// CreatePage publishes a new page under its externally assigned slug.
func (r *GormRepository) CreatePage(ctx context.Context, page *Page) error {
	if page == nil {
		return eris.New("page is nil")
	}

	page.Slug = strings.TrimSpace(page.Slug)
	if page.Slug == "" {
		return eris.New("page slug is required")
	}
	if page.UserID == 0 {
		return eris.New("page owner is required")
	}

	page.Title = strings.TrimSpace(page.Title)
	if page.Title == "" {
		return eris.New("page title is required")
	}

	if err := r.db.WithContext(ctx).Create(page).Error; err != nil {
		r.logError(logrus.Fields{"slug": page.Slug}, err, "creating page")
		return eris.Wrapf(err, "creating page: %s", page.Slug)
	}

	return nil
}

// SetAvatar stores or replaces the user's avatar row.
func (r *GormRepository) SetAvatar(ctx context.Context, avatar *Avatar) error {
	if avatar == nil {
		return eris.New("avatar is nil")
	}
	if avatar.UserID == 0 {
		return eris.New("avatar user id is required")
	}

	avatar.ImageURL = strings.TrimSpace(avatar.ImageURL)
	if avatar.ImageURL == "" {
		return eris.New("avatar image url is required")
	}

	existing, err := r.GetAvatarByUserID(ctx, avatar.UserID)
	if err != nil {
		return err
	}
	if existing != nil {
		existing.ImageURL = avatar.ImageURL
		avatar = existing
	}

	if err := r.db.WithContext(ctx).Save(avatar).Error; err != nil {
		r.logError(logrus.Fields{"user_id": avatar.UserID}, err, "saving avatar")
		return eris.Wrapf(err, "saving avatar for user %d", avatar.UserID)
	}

	return nil
}

// UpdatePage persists changes to an existing page.
func (r *GormRepository) UpdatePage(ctx context.Context, page *Page) error {
	if page == nil {
		return eris.New("page is nil")
	}
	if page.ID == 0 {
		return eris.New("page id is required")
	}

	page.Title = strings.TrimSpace(page.Title)
	if page.Title == "" {
		return eris.New("page title is required")
	}

	if err := r.db.WithContext(ctx).Save(page).Error; err != nil {
		r.logError(logrus.Fields{"slug": page.Slug}, err, "saving page")
		return eris.Wrapf(err, "saving page: %s", page.Slug)
	}

	return nil
}

// CreateLink appends a new link to a page.
func (r *GormRepository) CreateLink(ctx context.Context, link *Link) error {
	if link == nil {
		return eris.New("link is nil")
	}
	if link.PageID == 0 {
		return eris.New("link page id is required")
	}

	link.URL = strings.TrimSpace(link.URL)
	if link.URL == "" {
		return eris.New("link url is required")
	}

	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		r.logError(logrus.Fields{"page_id": link.PageID, "url": link.URL}, err, "creating link")
		return eris.Wrapf(err, "creating link for page %d", link.PageID)
	}

	return nil
}

// DeleteLink removes a link, scoped to its page so one owner cannot delete
// another page's links.
func (r *GormRepository) DeleteLink(ctx context.Context, pageID, linkID uint) error {
	if pageID == 0 || linkID == 0 {
		return eris.New("page id and link id are required")
	}

	result := r.db.WithContext(ctx).
		Where("page_id = ?", pageID).
		Delete(&Link{}, linkID)
	if result.Error != nil {
		r.logError(logrus.Fields{"page_id": pageID, "link_id": linkID}, result.Error, "deleting link")
		return eris.Wrapf(result.Error, "deleting link %d", linkID)
	}

	if result.RowsAffected == 0 {
		return eris.Errorf("link %d not found on page %d", linkID, pageID)
	}

	return nil
}

// CountPages returns the number of published pages.
func (r *GormRepository) CountPages(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Page{}).Count(&count).Error; err != nil {
		r.logError(nil, err, "counting pages")
		return 0, eris.Wrap(err, "counting pages")
	}

	return count, nil
}

func (r *GormRepository) logError(fields logrus.Fields, err error, message string) {
	if r.logger == nil {
		return
	}

	entry := r.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
