package handler

import (
	"html/template"
	"time"

	"github.com/dukerupert/bakehouse/internal/service"
	"github.com/dukerupert/bakehouse/internal/validation"
)

// TemplateFuncs returns a FuncMap with custom template functions
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatPrice": func(cents int64) string {
			return "$" + validation.FormatPrice(cents)
		},
		"truncate": service.Truncate,
		"year": func() int {
			return time.Now().Year()
		},
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006")
		},
		"imageSrc": func(raw *string) string {
			src, _ := service.SafeImageURL(raw)
			return src
		},
		"add": func(a, b int) int {
			return a + b
		},
	}
}
