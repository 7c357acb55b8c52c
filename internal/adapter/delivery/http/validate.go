package http

import (
	"math"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	minRating = 0
	maxRating = 5
)

// newValidate returns a validator reporting JSON field names and knowing the bookmark specific tags.
func newValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails for empty tags or nil functions.
	_ = validate.RegisterValidation("weburl", validateWebURL)
	_ = validate.RegisterValidation("rating", validateRating)

	return validate
}

// validateWebURL accepts absolute http and https URLs that name a host.
func validateWebURL(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}

	return isWebURL(field.String())
}

func isWebURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return false
	}

	return u.Hostname() != ""
}

// validateRating accepts whole numbers between minRating and maxRating.
func validateRating(fl validator.FieldLevel) bool {
	field := fl.Field()

	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		r := field.Float()
		return !math.IsNaN(r) && r == math.Trunc(r) && r >= minRating && r <= maxRating
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		r := field.Int()
		return r >= minRating && r <= maxRating
	default:
		return false
	}
}
