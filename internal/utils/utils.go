package utils

import (
	"strings"

	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
)

var Log = logrus.New()

func SetLogLevel(level string) {
	// We are not using logrus' trace and panic levels
	switch strings.ToLower(level) {
	case "debug":
		Log.SetLevel(log.DebugLevel)
	case "info":
		Log.SetLevel(log.InfoLevel)
	case "warning", "warn":
		Log.SetLevel(log.WarnLevel)
	case "error":
		Log.SetLevel(log.ErrorLevel)
	case "fatal":
		Log.SetLevel(log.FatalLevel)
	default:
		log.Fatal("Bad error level string")
	}
}

// SplitCollections turns raw user input like "r/pics, aww/" into a clean list
// of subreddit names: comma-separated, trimmed, leading r/ and trailing
// slashes stripped, blanks dropped.
func SplitCollections(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		name := NormalizeCollection(part)
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// NormalizeCollection cleans up a single subreddit name.
func NormalizeCollection(name string) string {
	name = strings.TrimSpace(name)
	if len(name) >= 2 && strings.EqualFold(name[:2], "r/") {
		name = name[2:]
	}
	name = strings.TrimSuffix(name, "/")
	return strings.TrimSpace(name)
}

func AreSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
