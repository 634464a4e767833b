package page

import "gorm.io/gorm"

// User is the owning identity for pages. The matching viewer ID unlocks the
// edit affordances on a page.
type User struct {
	gorm.Model
	Email        string `gorm:"size:255;uniqueIndex:idx_users_email;not null"`
	DisplayName  string `gorm:"size:255"`
	PasswordHash string `gorm:"size:255;not null"`
}

// TableName defines the table name for the User model.
func (User) TableName() string {
	return "users"
}

// Page is a published link-in-bio profile addressed by its slug.
type Page struct {
	gorm.Model
	Slug        string `gorm:"size:255;uniqueIndex:idx_pages_slug;not null"`
	Title       string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`
	UserID      uint   `gorm:"index;not null"`
}

// TableName defines the table name for the Page model.
func (Page) TableName() string {
	return "pages"
}

// Avatar associates at most one profile image with a user. Pages render a
// fallback glyph when no row exists.
type Avatar struct {
	gorm.Model
	UserID   uint   `gorm:"uniqueIndex:idx_avatars_user;not null"`
	ImageURL string `gorm:"size:2048;not null"`
}

// TableName defines the table name for the Avatar model.
func (Avatar) TableName() string {
	return "avatars"
}

// Link is a single outbound entry on a page. CreatedAt drives display order,
// oldest first.
type Link struct {
	gorm.Model
	PageID      uint   `gorm:"index;not null"`
	URL         string `gorm:"size:2048;not null"`
	Title       string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`
	ImageURL    string `gorm:"size:2048"`
}

// TableName defines the table name for the Link model.
func (Link) TableName() string {
	return "links"
}
