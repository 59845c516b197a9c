package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"gds-cli/internal/app"
	"gds-cli/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	version = "1.0.0"
	repoURL = "https://github.com/getdesignstrategy/gds-cli"
)

// loadConfig merges, lowest priority first: built-in defaults, the config
// file, .env, process environment, then command-line flags.
func loadConfig(cmd *cobra.Command) (app.Config, error) {
	_ = godotenv.Load()

	cfg, err := app.LoadConfig(app.DefaultConfigPath())
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("GDS_API_BASE"); v != "" {
		cfg.APIBase = v
	}
	if v := os.Getenv("GDS_COOKIE_FILE"); v != "" {
		cfg.CookieFile = v
	}
	if v := os.Getenv("GDS_THEME"); v != "" {
		cfg.Theme = v
	}
	if cfg.CookieFile == "" {
		cfg.CookieFile = app.DefaultCookiePath()
	}

	if cmd != nil {
		if v, _ := cmd.Flags().GetString("api"); v != "" {
			cfg.APIBase = v
		}
		if v, _ := cmd.Flags().GetString("theme"); v != "" {
			cfg.Theme = v
		}
	}
	return cfg, nil
}

func main() {
	root := &cobra.Command{
		Use:     "gds",
		Short:   "GDS - your design business strategist, in the terminal",
		Long:    "GDS is a terminal client for Get Design Strategy: a focused strategist for pricing, positioning and growing a design business.\n\nRun without arguments to open the app.\n\nFor more information, visit: " + repoURL,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			application, err := app.NewApplication(cfg)
			if err != nil {
				return err
			}
			application.Logger.Info("starting", map[string]interface{}{
				"version":  version,
				"api_base": cfg.APIBase,
			})

			p := tea.NewProgram(tui.New(application), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return err
			}
			return nil
		},
	}
	root.Flags().String("api", "", "override the API base URL")
	root.Flags().String("theme", "", "theme: porcelain|midnight")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			application, err := app.NewApplication(cfg)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := application.Client.Logout(ctx); err != nil {
				// The local cookie file is gone either way; the server call is
				// best effort.
				fmt.Println("Logged out locally; the server could not be reached.")
				return nil
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
	logoutCmd.Flags().String("api", "", "override the API base URL")
	logoutCmd.Flags().String("theme", "", "theme: porcelain|midnight")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gds v%s\n", version)
			fmt.Printf("Repository: %s\n", repoURL)
		},
	}

	root.AddCommand(logoutCmd, versionCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
