// Command provision creates a user and their page. Pages are read-mostly:
// they are published here, then edited through the web UI by their owner.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"

	"linkleaf/app/internal/config"
	appdb "linkleaf/app/internal/db"
	applog "linkleaf/app/internal/log"
	"linkleaf/app/internal/page"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	email := flag.String("email", "", "owner email address")
	password := flag.String("password", "", "owner password")
	name := flag.String("name", "", "owner display name")
	slug := flag.String("slug", "", "page slug")
	title := flag.String("title", "", "page title")
	description := flag.String("description", "", "page description")
	avatarURL := flag.String("avatar", "", "avatar image URL (optional)")
	flag.Parse()

	if *email == "" || *password == "" || *slug == "" || *title == "" {
		flag.Usage()
		return eris.New("email, password, slug and title are required")
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "loading configuration")
	}

	logger, err := applog.NewLogger(cfg.LogLevel)
	if err != nil {
		return eris.Wrap(err, "initialising logger")
	}

	conn, err := appdb.Open(appdb.Options{Path: cfg.DBPath})
	if err != nil {
		return eris.Wrap(err, "opening database")
	}
	defer func() {
		if closeErr := appdb.Close(conn); closeErr != nil {
			logger.WithError(closeErr).Error("closing database")
		}
	}()

	if err := page.Migrate(ctx, conn, logger); err != nil {
		return eris.Wrap(err, "running migrations")
	}

	repo, err := page.NewRepository(conn, logger)
	if err != nil {
		return eris.Wrap(err, "building page repository")
	}

	hash, err := page.HashPassword(*password)
	if err != nil {
		return eris.Wrap(err, "hashing password")
	}

	user := &page.User{Email: *email, DisplayName: *name, PasswordHash: hash}
	if err := repo.CreateUser(ctx, user); err != nil {
		return eris.Wrap(err, "creating user")
	}

	p := &page.Page{Slug: *slug, Title: *title, Description: *description, UserID: user.ID}
	if err := repo.CreatePage(ctx, p); err != nil {
		return eris.Wrap(err, "creating page")
	}

	if *avatarURL != "" {
		avatar := &page.Avatar{UserID: user.ID, ImageURL: *avatarURL}
		if err := repo.SetAvatar(ctx, avatar); err != nil {
			return eris.Wrap(err, "setting avatar")
		}
	}

	fmt.Printf("published /%s for %s\n", p.Slug, user.Email)
	return nil
}
