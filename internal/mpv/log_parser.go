package mpv

import "strings"

// ParseLogLevel maps an mpv terminal line to a log level.
// mpv prints lines like "[ytdl_hook] ERROR: ...", "Error parsing option x"
// or "Exiting... (Quit)". The message is returned unchanged.
func ParseLogLevel(line string) (level, msg string) {
	body := line
	if strings.HasPrefix(body, "[") {
		if end := strings.Index(body, "] "); end != -1 {
			body = body[end+2:]
		}
	}

	lower := strings.ToLower(body)
	switch {
	case hasAnyPrefix(lower, "error", "failed", "cannot", "could not", "fatal"):
		return "error", line
	case hasAnyPrefix(lower, "warning", "warn:"):
		return "warning", line
	case hasAnyPrefix(lower, "playing:", "exiting...", "(+)", " (+)"):
		return "info", line
	default:
		return "debug", line
	}
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
