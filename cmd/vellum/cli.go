package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/mpernat/vellum/internal/auth"
	"github.com/mpernat/vellum/internal/config"
	"github.com/mpernat/vellum/internal/db"
	"github.com/mpernat/vellum/internal/document"
	"github.com/mpernat/vellum/internal/errors"
	"github.com/mpernat/vellum/internal/mcp"
	"github.com/mpernat/vellum/internal/render"
	"github.com/mpernat/vellum/internal/session"
	"github.com/mpernat/vellum/internal/vcs"
	"github.com/mpernat/vellum/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	app := &cli.App{
		Name:    "vellum",
		Usage:   "File-backed document manager with a web UI",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Value:   ".",
				Usage:   "Site root directory (holds vellum.json, data/, users.txt)",
			},
		},
		Commands: []*cli.Command{
			serveCmd(),
			mcpCmd(),
			listCmd(),
			showCmd(),
			createCmd(),
			duplicateCmd(),
			deleteCmd(),
			useraddCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// openSite loads config from the --dir root and opens the document store.
func openSite(c *cli.Context) (*config.Config, *document.Store, error) {
	root := c.String("dir")
	cfg, err := config.Load(root)
	if err != nil {
		return nil, nil, errors.NewConfig(err.Error())
	}
	docs, err := document.New(cfg.DataDir, cfg.AllowedExtensions)
	if err != nil {
		return nil, nil, err
	}
	return cfg, docs, nil
}

// serveCmd creates the serve command.
func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web UI",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Override the configured port"},
		},
		Action: func(c *cli.Context) error {
			cfg, docs, err := openSite(c)
			if err != nil {
				return outputError(err)
			}
			if c.IsSet("port") {
				cfg.Port = c.Int("port")
			}

			creds := auth.NewCredentials(cfg.CredentialsFile)
			// A malformed credentials file is fatal at startup, not per request.
			if _, err := creds.Load(); err != nil {
				return outputError(err)
			}

			database, err := db.Init(c.String("dir"))
			if err != nil {
				return outputError(errors.NewConfig(err.Error()))
			}
			defer database.Close()

			sessions := session.NewManager(database, time.Duration(cfg.SessionTTLHours)*time.Hour)
			if n, err := sessions.PurgeExpired(c.Context); err != nil {
				log.Printf("session purge failed: %v", err)
			} else if n > 0 {
				log.Printf("purged %d expired sessions", n)
			}

			srv := web.NewServer(docs, auth.NewGuard(creds), sessions, cfg, Version)
			return web.Run(srv)
		},
	}
}

// mcpCmd creates the mcp command (stdio transport).
func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server over stdio",
		Action: func(c *cli.Context) error {
			cfg, docs, err := openSite(c)
			if err != nil {
				return outputError(err)
			}

			if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
				log.Printf("ignoring unknown disabled tools: %v", unknown)
			}

			return mcp.Run(docs, cfg, Version)
		},
	}
}

// listCmd creates the list command.
func listCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List document names",
		Action: func(c *cli.Context) error {
			_, docs, err := openSite(c)
			if err != nil {
				return outputError(err)
			}

			names, err := docs.List()
			if err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{
				"documents": names,
				"count":     len(names),
			})
		},
	}
}

// showCmd creates the show command.
func showCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print a document to stdout",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "rendered", Aliases: []string{"r"}, Usage: "Render markdown documents to HTML"},
		},
		Action: func(c *cli.Context) error {
			_, docs, err := openSite(c)
			if err != nil {
				return outputError(err)
			}
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("show takes exactly one document name"))
			}
			name := c.Args().First()

			content, err := docs.Read(name)
			if err != nil {
				return outputError(err)
			}

			if c.Bool("rendered") {
				if out := render.Render(name, content); out.HTML {
					fmt.Print(out.Body)
					return nil
				}
			}
			fmt.Print(content)
			return nil
		},
	}
}

// createCmd creates the create command.
func createCmd() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create an empty document",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			cfg, docs, err := openSite(c)
			if err != nil {
				return outputError(err)
			}
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("create takes exactly one document name"))
			}
			name := c.Args().First()

			if err := docs.Create(name); err != nil {
				return outputError(err)
			}
			vcs.NewCommitter(docs.Root(), cfg.GitAutoCommit).Record(vcs.ActionCreate, name)

			return outputJSON(map[string]any{
				"name":    name,
				"message": fmt.Sprintf("%s has been created.", name),
			})
		},
	}
}

// duplicateCmd creates the duplicate command.
func duplicateCmd() *cli.Command {
	return &cli.Command{
		Name:      "duplicate",
		Usage:     "Copy a document's content to a new name",
		ArgsUsage: "<source> <name>",
		Action: func(c *cli.Context) error {
			cfg, docs, err := openSite(c)
			if err != nil {
				return outputError(err)
			}
			if c.NArg() != 2 {
				return outputError(errors.NewInvalidRequest("duplicate takes a source and a new name"))
			}
			source := c.Args().Get(0)
			name := c.Args().Get(1)

			if err := docs.Duplicate(source, name); err != nil {
				return outputError(err)
			}
			vcs.NewCommitter(docs.Root(), cfg.GitAutoCommit).Record(vcs.ActionDuplicate, name)

			return outputJSON(map[string]any{
				"source":  source,
				"name":    name,
				"message": fmt.Sprintf("%s has been created.", name),
			})
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a document",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			cfg, docs, err := openSite(c)
			if err != nil {
				return outputError(err)
			}
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("delete takes exactly one document name"))
			}
			name := c.Args().First()

			if err := docs.Delete(name); err != nil {
				return outputError(err)
			}
			vcs.NewCommitter(docs.Root(), cfg.GitAutoCommit).Record(vcs.ActionDelete, name)

			return outputJSON(map[string]any{
				"name":    name,
				"message": fmt.Sprintf("%s has been deleted.", name),
			})
		},
	}
}

// useraddCmd creates the useradd command.
func useraddCmd() *cli.Command {
	return &cli.Command{
		Name:      "useradd",
		Usage:     "Add an account to the credentials file",
		ArgsUsage: "<username>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "password", Usage: "Password (prompted interactively when omitted)"},
		},
		Action: func(c *cli.Context) error {
			cfg, _, err := openSite(c)
			if err != nil {
				return outputError(err)
			}
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("useradd takes exactly one username"))
			}
			username := c.Args().First()

			password := c.String("password")
			if password == "" {
				password, err = promptPassword()
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
			}
			if password == "" {
				return outputError(errors.NewInvalidRequest("password must not be empty"))
			}

			creds := auth.NewCredentials(cfg.CredentialsFile)
			if err := creds.Append(username, password); err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{
				"username": username,
				"message":  fmt.Sprintf("Account %s created.", username),
			})
		},
	}
}

// promptPassword reads a password from the terminal without echo.
func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("stdin is not a terminal, use --password")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if vErr, ok := err.(*errors.VellumError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", vErr.Code, vErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
