package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/elonfeng/newsdesk/internal/output"
	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	userFlag   string
	colorFlag  string
	jsonOutput bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		p := output.NewPrinter(output.ResolveColors(output.ColorAuto))
		e := output.Describe(err)
		p.FormatError(e)
		os.Exit(e.ExitCode)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "newsdesk",
		Short:         "Read news with a private, per-user local library",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	root.PersistentFlags().StringVar(&userFlag, "user", "", "act as this user instead of the logged-in one")
	root.PersistentFlags().StringVar(&colorFlag, "color", "auto", "color output: auto, always or never")
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	root.AddCommand(loginCmd())
	root.AddCommand(logoutCmd())
	root.AddCommand(whoamiCmd())
	root.AddCommand(headlinesCmd())
	root.AddCommand(searchCmd())
	root.AddCommand(yourNewsCmd())
	root.AddCommand(bookmarkCmd())
	root.AddCommand(offlineCmd())
	root.AddCommand(favoriteCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(profileCmd())
	root.AddCommand(cleanupCmd())
	root.AddCommand(accountCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <user>",
		Short: "Log in and open the user's library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), args[0])
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out; the library stays on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout()
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user and where their library lives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd.Context())
		},
	}
}

func headlinesCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "headlines [category]",
		Short: "Show the latest articles of a category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := ""
			if len(args) == 1 {
				category = args[0]
			}
			return runHeadlines(cmd.Context(), category, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "max articles to show")
	return cmd
}

func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search articles and remember the keyword",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), args)
		},
	}
}

func yourNewsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "yournews",
		Short: "Show articles from your favorite categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runYourNews(cmd.Context(), limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "max articles per category")
	return cmd
}

func bookmarkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookmark",
		Short: "Manage bookmarked articles",
	}

	var a articleFlags
	add := &cobra.Command{
		Use:   "add <link>",
		Short: "Bookmark an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBookmarkAdd(cmd.Context(), args[0], a)
		},
	}
	add.Flags().StringVar(&a.title, "title", "", "article title")
	add.Flags().StringVar(&a.description, "description", "", "article description")
	add.Flags().StringVar(&a.source, "source", "", "source name")

	list := &cobra.Command{
		Use:   "list",
		Short: "List bookmarks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBookmarkList(cmd.Context())
		},
	}

	rm := &cobra.Command{
		Use:   "rm <link>",
		Short: "Remove a bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBookmarkRemove(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(add, list, rm)
	return cmd
}

func offlineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offline",
		Short: "Manage articles kept for offline reading",
	}

	var category string
	refresh := &cobra.Command{
		Use:   "refresh",
		Short: "Replace the offline set with the latest articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOfflineRefresh(cmd.Context(), category)
		},
	}
	refresh.Flags().StringVar(&category, "category", "", "category to download (default: from config)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List offline articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOfflineList(cmd.Context())
		},
	}

	show := &cobra.Command{
		Use:   "show <link>",
		Short: "Read an offline article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOfflineShow(cmd.Context(), args[0])
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop every offline article",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOfflineClear(cmd.Context())
		},
	}

	cmd.AddCommand(refresh, list, show, clearCmd)
	return cmd
}

func favoriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorite",
		Short: "Manage favorite categories (at most 3)",
	}

	for _, action := range []string{"add", "rm", "toggle"} {
		cmd.AddCommand(&cobra.Command{
			Use:   action + " <category>",
			Short: favoriteShort[action],
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runFavorite(cmd.Context(), action, args[0])
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List categories and mark favorites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFavoriteList(cmd.Context())
		},
	})
	return cmd
}

var favoriteShort = map[string]string{
	"add":    "Add a favorite category",
	"rm":     "Remove a favorite category",
	"toggle": "Add or remove a favorite category",
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage search history",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List recent searches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd.Context())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <keyword>",
		Short: "Forget one search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryRemove(cmd.Context(), args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget all searches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryClear(cmd.Context())
		},
	})
	return cmd
}

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the locally cached profile",
	}

	var first, last string
	set := &cobra.Command{
		Use:   "set <email>",
		Short: "Cache a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileSet(cmd.Context(), args[0], first, last)
		},
	}
	set.Flags().StringVar(&first, "first-name", "", "first name")
	set.Flags().StringVar(&last, "last-name", "", "last name")

	show := &cobra.Command{
		Use:   "show <email>",
		Short: "Show a cached profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileShow(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(set, show)
	return cmd
}

func cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove stored articles no bookmark or offline entry uses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCleanup(cmd.Context())
		},
	}
}

func accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the local account",
	}

	var yes bool
	del := &cobra.Command{
		Use:   "delete",
		Short: "Log out and delete the user's library from disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountDelete(yes)
		},
	}
	del.Flags().BoolVar(&yes, "yes", false, "confirm deletion")

	cmd.AddCommand(del)
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with offline refresh scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
