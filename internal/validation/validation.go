// Package validation holds the input contracts of the API: every payload is
// checked here and either normalized into a model type or rejected with
// per-field diagnostics.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = newValidate()

var indexSuffix = regexp.MustCompile(`\[\d+\]$`)

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})

	// bcrypt ограничивает пароль в байтах, а не в символах
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= limit
	})

	_ = v.RegisterValidation("strongpw", func(fl validator.FieldLevel) bool {
		var lower, upper, digit bool
		for _, r := range fl.Field().String() {
			switch {
			case unicode.IsLower(r):
				lower = true
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsDigit(r):
				digit = true
			}
		}
		return lower && upper && digit
	})

	return v
}

// dateLayouts accepted for due dates and range bounds, most specific first.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate accepts RFC 3339 timestamps and bare YYYY-MM-DD dates (UTC midnight).
func ParseDate(s string) (time.Time, error) {
	return ParseDateIn(s, time.UTC)
}

// ParseDateIn is ParseDate with zone-less layouts read in loc. A nil loc means UTC.
func ParseDateIn(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

var messages = map[string]string{
	"id.required":              "Task ID is required",
	"title.required":           "Title is required",
	"title.max":                "Title must be less than 100 characters",
	"description.max":          "Description must be less than 500 characters",
	"priority.required":        "Priority is required",
	"priority.oneof":           "Priority is required",
	"category.max":             "Category must be less than 50 characters",
	"dueDate.isodate":          "Due date must be a valid date",
	"dueFrom.isodate":          "Range start must be a valid date",
	"dueTo.isodate":            "Range end must be a valid date",
	"completed.boolean":        "Completed must be true or false",
	"sort.oneof":               "Sort field must be one of createdAt, dueDate, priority, title",
	"order.oneof":              "Sort direction must be asc or desc",
	"name.required":            "Name is required",
	"name.min":                 "Name must be at least 2 characters",
	"name.max":                 "Name must be less than 50 characters",
	"email.required":           "Email is required",
	"email.email":              "Please enter a valid email address",
	"password.required":        "Password is required",
	"password.min":             "Password must be at least 6 characters",
	"password.strongpw":        "Password must contain at least one uppercase letter, one lowercase letter, and one number",
	"confirmPassword.required": "Please confirm your password",
	"confirmPassword.eqfield":  "Passwords don't match",

	"signup.password.min":      "Password must be at least 8 characters",
	"signup.password.maxbytes": "Password must be at most 72 bytes",
}

func message(schema string, fe validator.FieldError) (field, msg string) {
	field = indexSuffix.ReplaceAllString(fe.Field(), "")
	if m, ok := messages[schema+"."+field+"."+fe.Tag()]; ok {
		return field, m
	}
	if m, ok := messages[field+"."+fe.Tag()]; ok {
		return field, m
	}
	return field, fmt.Sprintf("%s failed on %s", field, fe.Tag())
}

// check runs the struct rules of schema and collects failures into errs.
func check(schema string, s any, errs *Errors) {
	err := validate.Struct(s)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.add("body", err.Error())
		return
	}
	for _, fe := range verrs {
		errs.add(message(schema, fe))
	}
}
