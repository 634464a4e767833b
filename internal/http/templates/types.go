package templates

// LinkCard is a single rendered link entry on a profile page.
type LinkCard struct {
	Title       string
	Description string
	URL         string
	ImageURL    string
}

// ProfilePageData bundles everything the profile view renders: the loaded
// page, the resolved avatar, the ordered link cards and the viewer's edit
// permission.
type ProfilePageData struct {
	Slug        string
	Title       string
	Description string
	AvatarURL   string
	Glyph       string
	Links       []LinkCard
	CanEdit     bool
}

// LandingPageData contains dynamic values rendered on the landing page.
type LandingPageData struct {
	PageCountLabel string
}

// LoginPageData bundles template data for the login form.
type LoginPageData struct {
	Email        string
	ErrorMessage string
}

// EditLink is a link row on the edit view.
type EditLink struct {
	ID          uint
	Title       string
	URL         string
	Description string
}

// EditPageData bundles template data for the owner-only edit view.
type EditPageData struct {
	Slug        string
	Title       string
	Description string
	Links       []EditLink
	Message     string
}

// ErrorPageData holds information for rendering an error view.
type ErrorPageData struct {
	StatusLabel string
	Message     string
}
