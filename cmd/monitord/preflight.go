package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Check the environment before deploying",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !preflight(cmd.OutOrStdout(), cmd.ErrOrStderr()) {
			return fmt.Errorf("preflight failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(preflightCmd)
}

// preflight reports configuration problems. Missing API keys fail the check;
// everything else only warns.
func preflight(out, errOut io.Writer) bool {
	passed := true
	fail := func(msg string) { fmt.Fprintln(errOut, "✖", msg); passed = false }
	warn := func(msg string) { fmt.Fprintln(errOut, "⚠", msg) }
	ok := func(msg string) { fmt.Fprintln(out, "✔", msg) }

	if len(cfg.AdminAPIKeys) == 0 {
		fail("ADMIN_API_KEYS is empty (monitor changes are open to anyone).")
	}
	if len(cfg.PublicAPIKeys) == 0 {
		fail("PUBLIC_API_KEYS is empty (job views are open to anyone).")
	}
	for _, name := range []string{"ADMIN_API_KEYS", "PUBLIC_API_KEYS"} {
		if strings.Contains(os.Getenv(name), " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}

	ok("ADDR=" + cfg.Addr)
	if cfg.DatabaseURL == "" {
		warn("DATABASE_URL empty; monitors and checks live in memory only.")
	} else {
		ok("DATABASE_URL present")
	}
	if cfg.RedisURL == "" {
		warn("REDIS_URL empty; maintenance windows are not shared or persisted.")
	} else {
		ok("REDIS_URL present")
	}
	if len(cfg.AllowedOrigins) == 0 {
		warn("ALLOWED_ORIGINS empty; CORS allows every origin.")
	} else {
		ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}
	if cfg.SettingsFile != "" {
		if _, err := os.Stat(cfg.SettingsFile); err != nil {
			fail("SETTINGS_FILE unreadable: " + err.Error())
		} else {
			ok("SETTINGS_FILE=" + cfg.SettingsFile)
		}
	}
	if os.Getenv("SENDGRID_API_KEY") == "" && os.Getenv("SMTP_HOST") == "" {
		warn("neither SENDGRID_API_KEY nor SMTP_HOST set; e-mail alerts will fail.")
	}

	if passed {
		ok("preflight passed")
	}
	return passed
}
