package logging

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

const mask = "********"

var sensitiveFields = []string{"token", "password", "authorization", "secret", "credential"}

var (
	jwtPattern    = regexp.MustCompile(`\beyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*`)
	bearerPattern = regexp.MustCompile(`(?i)\bbearer\s+\S+`)
)

// RedactHook masks sensitive fields and any token-shaped text in messages
// and string field values. Matching on field names is case-insensitive and
// by substring, so "access_token" and "X-Authorization" are both masked.
type RedactHook struct{}

func NewRedactHook() *RedactHook {
	return &RedactHook{}
}

func (h *RedactHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *RedactHook) Fire(entry *logrus.Entry) error {
	entry.Message = RedactString(entry.Message)
	if len(entry.Data) == 0 {
		return nil
	}
	data := make(logrus.Fields, len(entry.Data))
	for k, v := range entry.Data {
		data[k] = redactValue(k, v)
	}
	entry.Data = data
	return nil
}

// RedactString replaces bearer credentials and JWT-shaped substrings.
func RedactString(s string) string {
	if s == "" {
		return s
	}
	s = bearerPattern.ReplaceAllString(s, "Bearer "+mask)
	return jwtPattern.ReplaceAllString(s, mask)
}

func redactValue(key string, v any) any {
	if isSensitive(key) {
		if v == nil {
			return nil
		}
		return mask
	}
	switch t := v.(type) {
	case string:
		return RedactString(t)
	case error:
		return RedactString(t.Error())
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = redactValue(k, inner)
		}
		return out
	}
	return v
}

func isSensitive(key string) bool {
	lower := strings.ToLower(key)
	for _, f := range sensitiveFields {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}
