package config

import (
	"log"
	"strings"
)

// Setting is one required environment value.
type Setting struct {
	Name  string
	Value string
}

// Missing returns the names of blank settings in the order given.
func Missing(settings ...Setting) []string {
	var out []string
	for _, s := range settings {
		if strings.TrimSpace(s.Value) == "" {
			out = append(out, s.Name)
		}
	}
	return out
}

func MustNonEmpty(settings ...Setting) {
	if missing := Missing(settings...); len(missing) > 0 {
		log.Fatalf("missing required env %s", strings.Join(missing, ", "))
	}
}
