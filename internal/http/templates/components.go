package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// DefaultLinkImage is the bundled asset substituted when a link image fails
// to load in the browser.
const DefaultLinkImage = "/static/link-default.svg"

// DefaultAvatarImage is the bundled asset substituted when an avatar image
// fails to load in the browser.
const DefaultAvatarImage = "/static/avatar-default.svg"

const styles = `
:root{color-scheme:light dark}
body{margin:0;font-family:system-ui,sans-serif;background:#f4f4f5;color:#18181b;display:flex;justify-content:center}
main.card{width:100%;max-width:640px;padding:2rem 1rem;text-align:center;animation:fade-in .4s ease-out}
@keyframes fade-in{from{opacity:0;transform:translateY(8px)}to{opacity:1;transform:none}}
.avatar,.avatar-glyph{width:96px;height:96px;border-radius:50%;object-fit:cover;margin:0 auto}
.avatar-glyph{display:flex;align-items:center;justify-content:center;background:#e4e4e7;font-size:2.5rem;font-weight:700}
.links{list-style:none;padding:0;margin:1.5rem 0;display:flex;flex-direction:column;gap:.75rem}
.link-card{display:flex;align-items:center;gap:.75rem;padding:.75rem 1rem;background:#fff;border:1px solid #e4e4e7;border-radius:.75rem;text-decoration:none;color:inherit;transition:transform .15s ease,box-shadow .15s ease;text-align:left}
.link-card:hover{transform:translateY(-2px);box-shadow:0 4px 12px rgba(0,0,0,.08)}
.link-card img{width:32px;height:32px;border-radius:.375rem}
.link-card .desc{color:#71717a;font-size:.85rem;margin:0}
.edit-button{display:inline-block;margin-top:.5rem;padding:.4rem 1rem;border:1px solid #a1a1aa;border-radius:.5rem;text-decoration:none;color:inherit}
form.stack{display:flex;flex-direction:column;gap:.6rem;text-align:left;margin:1rem 0}
form.stack input,form.stack textarea{padding:.5rem;border:1px solid #d4d4d8;border-radius:.4rem;font:inherit}
.error{color:#b91c1c}
.notice{color:#166534}
`

func component(render func(ctx context.Context, w io.Writer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return render(ctx, w)
	})
}

func write(w io.Writer, chunks ...string) error {
	for _, chunk := range chunks {
		if _, err := io.WriteString(w, chunk); err != nil {
			return err
		}
	}
	return nil
}

func esc(value string) string {
	return templ.EscapeString(value)
}

// href sanitises a user-provided URL before it lands in an attribute.
func href(value string) string {
	return esc(string(templ.URL(value)))
}

// Layout wraps page content in the shared document shell.
func Layout(title string, body templ.Component) templ.Component {
	return component(func(ctx context.Context, w io.Writer) error {
		if err := write(w,
			`<!doctype html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>`, esc(title), `</title>`,
			`<link rel="icon" href="/favicon.ico">`,
			`<style>`, styles, `</style></head><body><main class="card">`,
		); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		return write(w, `</main></body></html>`)
	})
}

// ProfilePage renders the public view of a page: avatar (or fallback glyph),
// title, description and the ordered link cards. Edit affordances appear only
// when the viewer owns the page.
func ProfilePage(data ProfilePageData) templ.Component {
	body := component(func(_ context.Context, w io.Writer) error {
		editHref := "/edit/" + esc(data.Slug)

		var avatar string
		if data.AvatarURL != "" {
			avatar = `<img class="avatar" src="` + href(data.AvatarURL) + `" alt="` + esc(data.Title) +
				`" onerror="this.onerror=null;this.src='` + DefaultAvatarImage + `'">`
		} else {
			avatar = `<div class="avatar-glyph" aria-hidden="true">` + esc(data.Glyph) + `</div>`
		}
		// Clicking the avatar navigates to the profile edit route for the
		// owner only.
		if data.CanEdit {
			avatar = `<a class="avatar-link" href="` + editHref + `">` + avatar + `</a>`
		}

		if err := write(w, avatar, `<h1>`, esc(data.Title), `</h1>`); err != nil {
			return err
		}
		if data.Description != "" {
			if err := write(w, `<p>`, esc(data.Description), `</p>`); err != nil {
				return err
			}
		}

		if err := write(w, `<ul class="links">`); err != nil {
			return err
		}
		for _, card := range data.Links {
			image := card.ImageURL
			if image == "" {
				image = DefaultLinkImage
			}
			if err := write(w,
				`<li><a class="link-card" href="`, href(card.URL), `" target="_blank" rel="noopener noreferrer">`,
				`<img src="`, href(image), `" alt="" onerror="this.onerror=null;this.src='`, DefaultLinkImage, `'">`,
				`<span><strong>`, esc(card.Title), `</strong>`,
			); err != nil {
				return err
			}
			if card.Description != "" {
				if err := write(w, `<p class="desc">`, esc(card.Description), `</p>`); err != nil {
					return err
				}
			}
			if err := write(w, `</span></a></li>`); err != nil {
				return err
			}
		}
		if err := write(w, `</ul>`); err != nil {
			return err
		}

		if data.CanEdit {
			return write(w, `<a class="edit-button" href="`, editHref, `">Edit page</a>`)
		}
		return nil
	})

	return Layout(data.Title, body)
}

// LandingPage renders the service home page.
func LandingPage(data LandingPageData) templ.Component {
	body := component(func(_ context.Context, w io.Writer) error {
		return write(w,
			`<h1>Linkleaf</h1>`,
			`<p>One small page for all of your links.</p>`,
			`<p>`, esc(data.PageCountLabel), `</p>`,
			`<p><a href="/login">Sign in</a> to edit your page.</p>`,
		)
	})

	return Layout("Linkleaf", body)
}

// NotFoundPage renders the dedicated not-found view.
func NotFoundPage() templ.Component {
	body := component(func(_ context.Context, w io.Writer) error {
		return write(w,
			`<h1>Page not found</h1>`,
			`<p>There is no page at this address. Check the link or head back <a href="/">home</a>.</p>`,
		)
	})

	return Layout("Page not found", body)
}

// ErrorPage renders a generic failure view.
func ErrorPage(data ErrorPageData) templ.Component {
	body := component(func(_ context.Context, w io.Writer) error {
		return write(w,
			`<h1>`, esc(data.StatusLabel), `</h1>`,
			`<p class="error">`, esc(data.Message), `</p>`,
		)
	})

	return Layout(data.StatusLabel, body)
}

// LoginPage renders the email/password form.
func LoginPage(data LoginPageData) templ.Component {
	body := component(func(_ context.Context, w io.Writer) error {
		if err := write(w, `<h1>Sign in</h1>`); err != nil {
			return err
		}
		if data.ErrorMessage != "" {
			if err := write(w, `<p class="error">`, esc(data.ErrorMessage), `</p>`); err != nil {
				return err
			}
		}
		return write(w,
			`<form class="stack" method="post" action="/login">`,
			`<input type="email" name="email" placeholder="Email" value="`, esc(data.Email), `" required>`,
			`<input type="password" name="password" placeholder="Password" required>`,
			`<button type="submit">Sign in</button>`,
			`</form>`,
		)
	})

	return Layout("Sign in", body)
}

// EditPage renders the owner-only edit view: profile fields plus the link list
// with add and delete forms.
func EditPage(data EditPageData) templ.Component {
	body := component(func(_ context.Context, w io.Writer) error {
		slug := esc(data.Slug)

		if err := write(w, `<h1>Edit `, esc(data.Title), `</h1>`); err != nil {
			return err
		}
		if data.Message != "" {
			if err := write(w, `<p class="notice">`, esc(data.Message), `</p>`); err != nil {
				return err
			}
		}

		if err := write(w,
			`<form class="stack" method="post" action="/edit/`, slug, `/profile">`,
			`<input type="text" name="title" value="`, esc(data.Title), `" required>`,
			`<textarea name="description" rows="3">`, esc(data.Description), `</textarea>`,
			`<button type="submit">Save profile</button>`,
			`</form>`,
		); err != nil {
			return err
		}

		if err := write(w, `<ul class="links">`); err != nil {
			return err
		}
		for _, link := range data.Links {
			if err := write(w,
				`<li><span><strong>`, esc(link.Title), `</strong> `, esc(link.URL), `</span>`,
				`<form method="post" action="/edit/`, slug, `/links/`, esc(itoa(link.ID)), `/delete">`,
				`<button type="submit">Remove</button>`,
				`</form></li>`,
			); err != nil {
				return err
			}
		}
		if err := write(w, `</ul>`); err != nil {
			return err
		}

		return write(w,
			`<form class="stack" method="post" action="/edit/`, slug, `/links">`,
			`<input type="url" name="url" placeholder="https://example.com" required>`,
			`<input type="text" name="title" placeholder="Title (autofilled when blank)">`,
			`<input type="text" name="description" placeholder="Description (optional)">`,
			`<button type="submit">Add link</button>`,
			`</form>`,
			`<p><a href="/`, slug, `">Back to page</a></p>`,
		)
	})

	return Layout("Edit "+data.Title, body)
}
