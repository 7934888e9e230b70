package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/elonfeng/newsdesk/internal/auth"
	"github.com/elonfeng/newsdesk/internal/config"
	"github.com/elonfeng/newsdesk/internal/feed"
	"github.com/elonfeng/newsdesk/internal/output"
	"github.com/elonfeng/newsdesk/internal/scheduler"
	"github.com/elonfeng/newsdesk/internal/store"
	"github.com/elonfeng/newsdesk/pkg/news"
	"github.com/elonfeng/newsdesk/pkg/server"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

// app holds what every command needs.
type app struct {
	cfg      *config.Config
	out      *output.Printer
	identity *auth.Local
	registry *store.Registry
	fetcher  news.Fetcher
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	mode, err := output.ParseColorMode(colorFlag)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	})))

	identity, err := auth.NewLocal(cfg.Storage.DataDir)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		out:      output.NewPrinter(output.ResolveColors(mode)),
		identity: identity,
		registry: store.NewRegistry(cfg.Storage.DataDir, store.WithHistoryLimit(cfg.Storage.HistoryLimit)),
		fetcher:  buildFetcher(cfg),
	}, nil
}

func buildFetcher(cfg *config.Config) news.Fetcher {
	fetchers := news.Multi{news.NewRSS(cfg.Feeds.ByCategory(), news.RSSOptions{
		Timeout:           cfg.Feeds.ParseTimeout(),
		RequestsPerSecond: cfg.Feeds.RequestsPerSecond,
	})}
	if cfg.Feeds.HackerNews.Enabled {
		fetchers = append(fetchers, news.NewHackerNews(news.HackerNewsOptions{
			Timeout: cfg.Feeds.ParseTimeout(),
			Limit:   cfg.Feeds.HackerNews.Limit,
		}))
	}
	return fetchers
}

func (a *app) close() {
	if err := a.registry.Close(); err != nil {
		slog.Warn("Failed to close stores", "error", err)
	}
}

// user returns the acting user: --user, then config/NEWSDESK_USER, then the
// locally logged-in user.
func (a *app) user() string {
	if userFlag != "" {
		return userFlag
	}
	if a.cfg.User != "" {
		return a.cfg.User
	}
	return a.identity.Current()
}

func (a *app) library(ctx context.Context) (*feed.Library, error) {
	userID := a.user()
	if userID == "" {
		return nil, store.ErrNotInitialized
	}
	session, err := a.registry.Login(ctx, userID)
	if err != nil {
		return nil, err
	}
	return feed.NewLibrary(session), nil
}

func (a *app) searchOptions() feed.SearchOptions {
	return feed.SearchOptions{
		CacheSize: a.cfg.Search.CacheSize,
		CacheTTL:  a.cfg.Search.ParseCacheTTL(),
		Debounce:  a.cfg.Search.ParseDebounce(),
	}
}

// emit writes v as JSON when --json is set and calls render otherwise.
func (a *app) emit(v any, render func() error) error {
	if jsonOutput {
		enc := json.NewEncoder(a.out.Out())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return render()
}

// withApp runs fn with a fresh app and closes it afterwards.
func withApp(fn func(a *app) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}

func withLibrary(ctx context.Context, fn func(a *app, lib *feed.Library) error) error {
	return withApp(func(a *app) error {
		lib, err := a.library(ctx)
		if err != nil {
			return err
		}
		return fn(a, lib)
	})
}

func runLogin(ctx context.Context, userID string) error {
	return withApp(func(a *app) error {
		if err := a.identity.Login(userID); err != nil {
			return err
		}
		userID = a.identity.Current()
		if _, err := a.registry.Login(ctx, userID); err != nil {
			a.out.Warning("Logged in as %s, but the library could not be opened: %v", userID, err)
			return nil
		}
		a.out.Success("Logged in as %s", userID)
		return nil
	})
}

func runLogout() error {
	return withApp(func(a *app) error {
		userID := a.identity.Current()
		if userID == "" {
			a.out.Info("Nobody is logged in.")
			return nil
		}
		if err := a.identity.Logout(); err != nil {
			return err
		}
		a.out.Success("Logged out %s", userID)
		return nil
	})
}

func runWhoami(ctx context.Context) error {
	return withApp(func(a *app) error {
		userID := a.user()
		if userID == "" {
			return store.ErrNotInitialized
		}
		info := struct {
			User    string `json:"user"`
			Library string `json:"library"`
		}{userID, store.UserDir(a.cfg.Storage.DataDir, userID)}

		return a.emit(info, func() error {
			a.out.Print("%s", info.User)
			a.out.Print("%s", a.out.Dim(info.Library))
			return nil
		})
	})
}

func runHeadlines(ctx context.Context, name string, limit int) error {
	category := news.CategoryGeneral
	if name != "" {
		c, err := news.ParseCategory(name)
		if err != nil {
			return err
		}
		category = c
	}
	return withApp(func(a *app) error {
		articles, err := a.fetcher.FetchArticles(ctx, category, limit)
		if err != nil {
			return err
		}
		return a.emit(articles, func() error {
			return a.out.Articles(articles, "No headlines right now.")
		})
	})
}

func runSearch(ctx context.Context, terms []string) error {
	query := strings.Join(terms, " ")
	return withApp(func(a *app) error {
		// Searching works logged out; the keyword is just not remembered.
		history := store.NewHistory(nil)
		if lib, err := a.library(ctx); err == nil {
			history = lib.History
		}

		searcher := feed.NewSearcher(a.fetcher, history, a.searchOptions())
		defer searcher.Stop()

		articles, err := searcher.Search(ctx, query)
		if err != nil {
			return err
		}
		return a.emit(articles, func() error {
			return a.out.Articles(articles, fmt.Sprintf("Nothing found for %q.", query))
		})
	})
}

func runYourNews(ctx context.Context, perCategory int) error {
	return withLibrary(ctx, func(a *app, lib *feed.Library) error {
		n, err := lib.Favorites.Count(ctx)
		if err != nil {
			return err
		}
		if n == 0 && !jsonOutput {
			a.out.Info("No favorite categories yet. Add one with 'newsdesk favorite add <category>'.")
			return nil
		}

		articles, err := lib.YourNews(ctx, a.fetcher, perCategory)
		if err != nil {
			return err
		}
		return a.emit(articles, func() error {
			return a.out.Articles(articles, "Your categories have no news right now.")
		})
	})
}

type articleFlags struct {
	title       string
	description string
	source      string
}

func runBookmarkAdd(ctx context.Context, link string, f articleFlags) error {
	return withLibrary(ctx, func(a *app, lib *feed.Library) error {
		// Reuse what is already stored for the link, e.g. an offline copy.
		article, err := lib.Snapshots.Get(ctx, link)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		article.Link = link
		if f.title != "" {
			article.Title = f.title
		}
		if f.description != "" {
			article.Description = f.description
		}
		if f.source != "" {
			article.SourceName = f.source
		}

		if err := lib.Bookmarks.Save(ctx, article); err != nil {
			return err
		}
		a.out.Success("Bookmarked %s", link)
		return nil
	})
}

func runBookmarkList(ctx context.Context) error {
	return withLibrary(ctx, func(a *app, lib *feed.Library) error {
		articles, err := lib.Bookmarks.GetAll(ctx)
		if err != nil {
			return err
		}
		return a.emit(articles, func() error {
			return a.out.Articles(articles, "No bookmarks yet.")
		})
	})
}

func runBookmarkRemove(ctx context.Context, link string) error {
	return withLibrary(ctx, func(a *app, lib *feed.Library) error {
		if err := lib.RemoveBookmark(ctx, link); err != nil {
			return err
		}
		a.out.Success("Removed bookmark %s", link)
		return nil
	})
}

func runOfflineRefresh(ctx context.Context, name string) error {
	return withLibrary(ctx, func(a *app, lib *feed.Library) error {
		if name == "" {
			name = a.cfg.Offline.Category
		}
		category, err := news.ParseCategory(name)
		if err != nil {
			return err
		}

		res, err := lib.RefreshOffline(ctx, a.fetcher, category, a.cfg.Offline.Limit)
		if err != nil {
			return err
		}
		return a.emit(res, func() error {
			if res.Saved == 0 {
				a.out.Warning("No %s articles available, offline set left unchanged", category)
				return nil
			}
			a.out.Success("Saved %d %s articles for offline reading (%d unused removed)",
				res.Saved, category, res.Reclaimed)
			return nil
		})
	})
}

func runOfflineList(ctx context.Context) error {
	return withLibrary(ctx, func(a *app, lib *feed.Library) error {
		articles, err := lib.Offline.GetAll(ctx)
		if err != nil {
			return err
		}
		return a.emit(articles, func() error {
			return a.out.Articles(articles, "Nothing saved for offline reading. Run 'newsdesk offline refresh'.")
		})
	})
}

func runOfflineShow(ctx context.Context, link string) error {
	return withLibrary(ctx, func(a *app, lib *feed.Library) error {
		article, err := lib.Offline.Get(ctx, link)
		if err != nil {
			return err
		}
		return a.emit(article, func() error {
			a.out.Article(article)
			return nil
		})
	})
}

func runOfflineClear(ctx context.Context) error {
	return withLibrary(ctx, func(a *app, lib *feed.Library) error {
		n, err := lib.ClearOffline(ctx)
		if err != nil {
			return err
		}
		a.out.Success("Removed %d offline articles", n)
		return nil
	})
}

func runFavorite(ctx context.Context, action, name string) error {
	category, err := news.ParseCategory(name)
	if err != nil {
		return err
	}
	return withLibrary(ctx, func(a *app, lib *feed.Library) error {
		switch action {
		case "add":
			if err := lib.Favorites.Save(ctx, category); err != nil {
				return err
			}
			a.out.Success("Added %s to favorites", category)
		case "rm":
			if err := lib.Favorites.Remove(ctx, category); err != nil {
				return err
			}
			a.out.Success("Removed %s from favorites", category)
		case "toggle":
			added, err := lib.Favorites.Toggle(ctx, category)
			if err != nil {
				return err
			}
			if added {
				a.out.Success("Added %s to favorites", category)
			} else {
				a.out.Success("Removed %s from favorites", category)
			}
		default:
			return fmt.Errorf("unknown favorite action %q", action)
		}
		return nil
	})
}

func runFavoriteList(ctx context.Context) error {
	return withLibrary(ctx, func(a *app, lib *feed.Library) error {
		favorites, err := lib.Favorites.GetAll(ctx)
		if err != nil {
			return err
		}
		return a.emit(favorites, func() error {
			return a.out.Categories(news.Categories(), favorites)
		})
	})
}

func runHistoryList(ctx context.Context) error {
	return withLibrary(ctx, func(a *app, lib *feed.Library) error {
		entries, err := lib.History.GetAll(ctx)
		if err != nil {
			return err
		}
		return a.emit(entries, func() error {
			return a.out.History(entries)
		})
	})
}

func runHistoryRemove(ctx context.Context, keyword string) error {
	return withLibrary(ctx, func(a *app, lib *feed.Library) error {
		if err := lib.History.Delete(ctx, keyword); err != nil {
			return err
		}
		a.out.Success("Forgot %q", keyword)
		return nil
	})
}

func runHistoryClear(ctx context.Context) error {
	return withLibrary(ctx, func(a *app, lib *feed.Library) error {
		if err := lib.History.Clear(ctx); err != nil {
			return err
		}
		a.out.Success("Search history cleared")
		return nil
	})
}

func runProfileSet(ctx context.Context, email, first, last string) error {
	return withLibrary(ctx, func(a *app, lib *feed.Library) error {
		err := lib.Profiles.Save(ctx, store.Profile{Email: email, FirstName: first, LastName: last})
		if err != nil {
			return err
		}
		a.out.Success("Profile %s saved", email)
		return nil
	})
}

func runProfileShow(ctx context.Context, email string) error {
	return withLibrary(ctx, func(a *app, lib *feed.Library) error {
		p, err := lib.Profiles.Get(ctx, email)
		if err != nil {
			return err
		}
		return a.emit(p, func() error {
			t := output.NewTable(a.out.Out(), "Email", "Name", "Updated")
			t.AddRow(p.Email, strings.TrimSpace(p.FirstName+" "+p.LastName), p.UpdatedAt.Local().Format("2006-01-02 15:04"))
			return t.Render()
		})
	})
}

func runCleanup(ctx context.Context) error {
	return withLibrary(ctx, func(a *app, lib *feed.Library) error {
		n, err := lib.Cleanup(ctx)
		if err != nil {
			return err
		}
		a.out.Success("Removed %d unused articles", n)
		return nil
	})
}

func runAccountDelete(yes bool) error {
	return withApp(func(a *app) error {
		userID := a.user()
		if userID == "" {
			return store.ErrNotInitialized
		}
		if !yes {
			return &output.CLIError{
				Summary:    fmt.Sprintf("refusing to delete the library of %s", userID),
				Suggestion: "re-run with --yes",
				ExitCode:   output.ExitGeneral,
			}
		}

		if err := a.registry.DeleteAccount(userID); err != nil {
			return err
		}
		if a.identity.Current() == userID {
			if err := a.identity.Logout(); err != nil {
				return err
			}
		}
		a.out.Success("Deleted the library of %s", userID)
		return nil
	})
}

func (a *app) server(port int) *server.Server {
	if port == 0 {
		port = a.cfg.Server.Port
	}
	category, err := news.ParseCategory(a.cfg.Offline.Category)
	if err != nil {
		slog.Warn("Unknown offline category, using general", "category", a.cfg.Offline.Category)
		category = news.CategoryGeneral
	}
	return server.New(a.registry, a.fetcher, server.Options{
		Host:            a.cfg.Server.Host,
		Port:            port,
		Search:          a.searchOptions(),
		OfflineCategory: category,
		OfflineLimit:    a.cfg.Offline.Limit,
	})
}

func runServe(ctx context.Context, port int) error {
	return withApp(func(a *app) error {
		return a.server(port).Run(ctx)
	})
}

// fixedUser is an identity that never changes.
type fixedUser string

func (u fixedUser) Current() string { return string(u) }

func (u fixedUser) Subscribe(func(string)) func() { return func() {} }

func runDaemon(ctx context.Context, port int) error {
	return withApp(func(a *app) error {
		var identity store.IdentitySource = a.identity
		if userFlag != "" || a.cfg.User != "" {
			identity = fixedUser(a.user())
		}
		stop := a.registry.Follow(ctx, identity)
		defer stop()

		category, err := news.ParseCategory(a.cfg.Offline.Category)
		if err != nil {
			return fmt.Errorf("offline category: %w", err)
		}
		sched := scheduler.New(a.registry, a.fetcher, category,
			a.cfg.Offline.Limit,
			a.cfg.Offline.ParseRefreshInterval(),
		)

		// Start scheduler in background.
		go func() {
			if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
				slog.Error("Scheduler error", "error", err)
			}
		}()

		return a.server(port).Run(ctx)
	})
}
