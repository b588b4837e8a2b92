package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hamed0406/uptimeengine/internal/config"
	"github.com/hamed0406/uptimeengine/internal/domain"
	"github.com/hamed0406/uptimeengine/internal/probe"
)

var probeTarget domain.Monitor

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Probe a target once and print the result",
	Example: `  monitord probe --type http --url https://example.com
  monitord probe --type port --host db.internal --port 5432
  monitord probe --type docker --container my-app`,
	RunE: runProbe,
}

func init() {
	f := probeCmd.Flags()
	f.StringVar((*string)(&probeTarget.Type), "type", string(domain.TypeHTTP), "monitor type")
	f.StringVar(&probeTarget.URL, "url", "", "target URL (http, pagespeed, hardware)")
	f.StringVar(&probeTarget.Host, "host", "", "target host (ping, port, game)")
	f.IntVar(&probeTarget.Port, "port", 0, "target port (port, game)")
	f.StringVar(&probeTarget.ContainerRef, "container", "", "container name or id (docker)")
	f.StringVar(&probeTarget.GameType, "game", "", "game type (game)")
	f.StringVar(&probeTarget.Secret, "secret", "", "bearer token sent with the request")
	f.BoolVar(&probeTarget.IgnoreTLS, "insecure", false, "skip TLS verification")
	f.StringVar(&probeTarget.ExpectedValue, "expect", "", "expected body value")
	f.StringVar((*string)(&probeTarget.MatchMethod), "match", string(domain.MatchEqual), "match method: equal, include or regex")
	f.StringVar(&probeTarget.JSONPath, "json-path", "", "JMESPath expression applied to a JSON body")
	f.BoolVar(&privilegedPing, "privileged-ping", false, "use raw ICMP sockets for ping")
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, _ []string) error {
	s, err := config.LoadSettings(cfg.SettingsFile)
	if err != nil {
		return err
	}
	p := probe.NewDefault(probe.Options{
		HTTPTimeout:   cfg.ProbeTimeout,
		RetryAttempts: cfg.RetryAttempts,
		RetryBackoff:  cfg.RetryBackoff,
		Settings:      config.NewStaticSettings(s),
		Privileged:    privilegedPing,
	})

	m := probeTarget
	m.ID = "cli"
	m.Name = "cli"
	m.Interval = time.Minute
	res, err := p.RequestStatus(cmd.Context(), &m)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if !res.Status {
		return fmt.Errorf("target down: %d %s", res.Code, res.Message)
	}
	return nil
}
