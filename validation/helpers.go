package validation

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

	helperOnce     sync.Once
	helperValidate *validator.Validate
	htmlPolicy     *bluemonday.Policy
)

func helpers() (*validator.Validate, *bluemonday.Policy) {
	helperOnce.Do(func() {
		helperValidate = validator.New()

		p := bluemonday.NewPolicy()
		p.AllowElements("p", "br", "strong", "em", "u",
			"h1", "h2", "h3", "h4", "h5", "h6",
			"ul", "ol", "li", "a", "blockquote")
		p.AllowAttrs("href").OnElements("a")
		p.AllowAttrs("target").Matching(regexp.MustCompile(`^_(blank|self)$`)).OnElements("a")
		p.AllowAttrs("rel").OnElements("a")
		p.AllowStandardURLs()
		p.RequireParseableURLs(true)
		htmlPolicy = p
	})
	return helperValidate, htmlPolicy
}

// IsValidObjectID reports whether id is a 24 character hex server object id.
func IsValidObjectID(id string) bool {
	return objectIDPattern.MatchString(id)
}

func IsValidEmail(email string) bool {
	if email == "" {
		return false
	}
	v, _ := helpers()
	return v.Var(email, "email") == nil
}

func IsValidURL(raw string) bool {
	if raw == "" {
		return false
	}
	v, _ := helpers()
	return v.Var(raw, "url") == nil
}

// SanitizeHTML strips every element and attribute the admin text editor does
// not produce. Script and iframe bodies and javascript: URLs never survive.
func SanitizeHTML(html string) string {
	if html == "" {
		return html
	}
	_, p := helpers()
	return p.Sanitize(html)
}

// IsEmpty reports nil, blank strings, and zero-length collections as empty.
func IsEmpty(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return IsEmpty(rv.Elem().Interface())
	case reflect.Struct:
		return rv.IsZero()
	}
	return false
}
