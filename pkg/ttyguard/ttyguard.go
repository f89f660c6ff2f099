// Package ttyguard keeps terminal capability probes out of non-interactive
// output. Import it for side effects from package main:
//
//	import _ "github.com/vanderheijden86/clusterboard/pkg/ttyguard"
//
// Lipgloss and termenv may query the terminal background with OSC/DSR
// escape sequences. In a real terminal those are invisible, but when the
// report or export summary is piped or captured they end up in the output.
// For those invocations the guard sets CI=1, which termenv treats as "do
// not probe".
package ttyguard

import (
	"os"
	"strings"
)

// TestModeEnvVar forces the guard on, for test harnesses.
const TestModeEnvVar = "CLUSTERBOARD_TEST_MODE"

func init() {
	if os.Getenv("CI") != "" {
		return
	}
	if !shouldSuppressTTYQueries(os.Args, os.Getenv(TestModeEnvVar) != "") {
		return
	}
	_ = os.Setenv("CI", "1")
}

// shouldSuppressTTYQueries reports whether args select a mode that writes
// plain text to stdout instead of running the dashboard.
func shouldSuppressTTYQueries(args []string, envTest bool) bool {
	if envTest {
		return true
	}
	for _, arg := range args {
		name := strings.TrimLeft(arg, "-")
		if name == arg {
			continue
		}
		if i := strings.IndexByte(name, '='); i >= 0 {
			name = name[:i]
		}
		switch name {
		case "report", "export", "version", "help", "h":
			return true
		}
	}
	return false
}
