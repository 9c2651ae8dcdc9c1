// Package inputval validates form input structs with go-playground/validator
// and turns failures into messages fit for a toast.
//
// Struct fields name themselves in messages through a `label` tag:
//
//	type usernameForm struct {
//	    Username string `validate:"required,chessuser" label:"Username"`
//	}
package inputval

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/dalemusser/mychessstyle/internal/domain/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var usernameRE = regexp.MustCompile(`^[A-Za-z0-9_-]{2,50}$`)

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Message string
}

// Result collects the failures of a Validate call.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message.
func (r *Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			if l := f.Tag.Get("label"); l != "" {
				return l
			}
			return f.Name
		})
		_ = v.RegisterValidation("chessuser", func(fl validator.FieldLevel) bool {
			return IsValidChessUsername(fl.Field().String())
		})
		_ = v.RegisterValidation("chessusers", func(fl validator.FieldLevel) bool {
			return IsValidUsernameList(fl.Field().String())
		})
		_ = v.RegisterValidation("platform", func(fl validator.FieldLevel) bool {
			return IsValidPlatform(fl.Field().String())
		})
		_ = v.RegisterValidation("trackingid", func(fl validator.FieldLevel) bool {
			return IsValidTrackingID(fl.Field().String())
		})
		_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
			return IsValidHTTPURL(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// Validate runs the struct's `validate` tags.
func Validate(s any) *Result {
	res := &Result{}
	err := instance().Struct(s)
	if err == nil {
		return res
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		res.Errors = append(res.Errors, FieldError{Message: err.Error()})
		return res
	}
	for _, fe := range verrs {
		res.Errors = append(res.Errors, FieldError{Field: fe.StructField(), Message: message(fe)})
	}
	return res
}

func message(fe validator.FieldError) string {
	label := fe.Field()
	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
	case "chessuser":
		return label + " may only contain letters, digits, '_' and '-'."
	case "chessusers":
		return label + " must be a comma-separated list of usernames."
	case "platform":
		return fmt.Sprintf("%s must be one of %s.", label, strings.Join(models.Platforms, ", "))
	case "trackingid":
		return "Please check the Tracking ID you have provided."
	case "httpurl":
		return label + " must be an http(s) URL."
	default:
		return label + " is invalid."
	}
}

// IsValidChessUsername accepts the username alphabet shared by lichess and
// chess.com.
func IsValidChessUsername(s string) bool {
	return usernameRE.MatchString(strings.TrimSpace(s))
}

// IsValidUsernameList accepts one or more comma-separated usernames.
func IsValidUsernameList(s string) bool {
	parts := SplitUsernames(s)
	if len(parts) == 0 {
		return false
	}
	for _, p := range parts {
		if !usernameRE.MatchString(p) {
			return false
		}
	}
	return true
}

// SplitUsernames splits a comma-separated list, dropping blanks.
func SplitUsernames(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsValidPlatform reports whether s names a supported platform.
func IsValidPlatform(s string) bool {
	for _, p := range models.Platforms {
		if s == p {
			return true
		}
	}
	return false
}

// IsValidTrackingID reports whether s is a UUID.
func IsValidTrackingID(s string) bool {
	_, err := uuid.Parse(strings.TrimSpace(s))
	return err == nil
}

// IsValidHTTPURL reports whether s is an absolute http or https URL.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
