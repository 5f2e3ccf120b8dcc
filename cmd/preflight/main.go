// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	base := strings.TrimSpace(os.Getenv("PORTAL_BASE_URL"))
	token := strings.TrimSpace(os.Getenv("PORTAL_TOKEN"))
	apiKey := strings.TrimSpace(os.Getenv("PORTAL_API_KEY"))
	admin := strings.TrimSpace(os.Getenv("ADMIN_API_KEYS"))
	pub := strings.TrimSpace(os.Getenv("PUBLIC_API_KEYS"))
	db := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	slack := strings.TrimSpace(os.Getenv("SLACK_WEBHOOK"))

	if base == "" {
		warn("PORTAL_BASE_URL is empty; the suite will probe the localhost default.")
	} else if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		fail("PORTAL_BASE_URL must start with http:// or https://")
	} else {
		ok("PORTAL_BASE_URL=" + base)
	}

	if token == "" && apiKey == "" {
		fail("neither PORTAL_TOKEN nor PORTAL_API_KEY is set (authenticated checks will 401).")
	}
	if token != "" && apiKey != "" {
		warn("both PORTAL_TOKEN and PORTAL_API_KEY set; the bearer token wins.")
	}

	// Normalize and sanity-check lists (no spaces around commas).
	for name, v := range map[string]string{"ADMIN_API_KEYS": admin, "PUBLIC_API_KEYS": pub} {
		if strings.Contains(v, " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}
	if admin == "" {
		warn("ADMIN_API_KEYS empty — the serve command will accept unauthenticated triggers (dev mode).")
	}

	if db == "" {
		warn("DATABASE_URL empty — runs will only be held in memory.")
	} else {
		ok("DATABASE_URL present")
	}

	if slack == "" {
		warn("SLACK_WEBHOOK empty — regressions will not be announced.")
	} else {
		ok("SLACK_WEBHOOK present")
	}

	switch strings.ToLower(os.Getenv("CI")) {
	case "1", "true", "yes":
		ok("CI mode on (environment-sensitive skips disabled)")
	}

	ok("preflight passed")
}
