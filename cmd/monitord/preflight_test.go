package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hamed0406/uptimeengine/internal/config"
)

func TestPreflight(t *testing.T) {
	defer func(c config.Config) { cfg = c }(cfg)

	cfg = config.Config{Addr: ":8080"}
	var out, errOut bytes.Buffer
	if preflight(&out, &errOut) {
		t.Fatalf("missing keys should fail preflight")
	}
	if !strings.Contains(errOut.String(), "ADMIN_API_KEYS") {
		t.Fatalf("want admin key complaint, got %q", errOut.String())
	}

	cfg = config.Config{Addr: ":8080", AdminAPIKeys: []string{"a"}, PublicAPIKeys: []string{"p"}, DatabaseURL: "postgres://x"}
	out.Reset()
	errOut.Reset()
	if !preflight(&out, &errOut) {
		t.Fatalf("want pass, stderr=%q", errOut.String())
	}
	if !strings.Contains(out.String(), "preflight passed") {
		t.Fatalf("missing pass line: %q", out.String())
	}
}
