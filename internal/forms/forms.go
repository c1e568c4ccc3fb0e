// Package forms holds the typed input forms of the site and validates them with
// explicit field constraints, reporting one message per failing field.
package forms

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a form field name to its error message.
type FieldErrors map[string]string

// NonFieldKey holds errors that belong to the form as a whole.
const NonFieldKey = "__all__"

func (fe FieldErrors) Has(field string) bool {
	_, ok := fe[field]
	return ok
}

func (fe FieldErrors) Get(field string) string {
	return fe[field]
}

// Add records msg for field unless the field already has an error.
func (fe FieldErrors) Add(field, msg string) {
	if _, ok := fe[field]; !ok {
		fe[field] = msg
	}
}

const (
	MaxSubjectLength  = 255
	MaxMessageLength  = 4000
	MaxUsernameLength = 150
	MaxEmailLength    = 254
	MinPasswordLength = 6
)

// lengthTags are validator aliases expanded from the constants above.
var lengthTags = map[string]string{
	"subject_len":  fmt.Sprintf("max=%d", MaxSubjectLength),
	"message_len":  fmt.Sprintf("max=%d", MaxMessageLength),
	"username_len": fmt.Sprintf("max=%d", MaxUsernameLength),
	"email_len":    fmt.Sprintf("max=%d", MaxEmailLength),
	"password_len": fmt.Sprintf("min=%d", MinPasswordLength),
}

// MaxLength returns the maximum length of a form field, or 0 when it has none.
func MaxLength(field string) int {
	switch field {
	case "subject":
		return MaxSubjectLength
	case "message":
		return MaxMessageLength
	case "username":
		return MaxUsernameLength
	case "email":
		return MaxEmailLength
	}
	return 0
}

// MinLength returns the minimum length of a form field, or 0 when it has none.
func MinLength(field string) int {
	if field == "password1" {
		return MinPasswordLength
	}
	return 0
}

type NewTopicForm struct {
	Subject string `form:"subject" validate:"required,subject_len"`
	Message string `form:"message" validate:"required,message_len"`
}

func (f *NewTopicForm) Clean() {
	f.Subject = strings.TrimSpace(f.Subject)
	f.Message = strings.TrimSpace(f.Message)
}

type PostForm struct {
	Message string `form:"message" validate:"required,message_len"`
}

func (f *PostForm) Clean() {
	f.Message = strings.TrimSpace(f.Message)
}

type SignUpForm struct {
	Username  string `form:"username" validate:"required,username_len,username"`
	Email     string `form:"email" validate:"required,email,email_len"`
	Password1 string `form:"password1" validate:"required,password_len"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
	Captcha   string `form:"captcha" validate:"required,numeric"`
}

func (f *SignUpForm) Clean() {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
	f.Captcha = strings.TrimSpace(f.Captcha)
}

type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

func (f *LoginForm) Clean() {
	f.Username = strings.TrimSpace(f.Username)
}

var (
	validate    = newValidator()
	usernameRex = regexp.MustCompile(`^[\p{L}\p{N}@.+\-_]+$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report errors under the HTML field name rather than the Go one.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	for alias, tags := range lengthTags {
		v.RegisterAlias(alias, tags)
	}
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRex.MatchString(fl.Field().String())
	})
	return v
}

type cleaner interface {
	Clean()
}

// Validate cleans form and checks its constraints. It returns nil when the form is valid.
func Validate(form any) FieldErrors {
	if c, ok := form.(cleaner); ok {
		c.Clean()
	}
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !asValidationErrors(err, &verrs) {
		return FieldErrors{NonFieldKey: err.Error()}
	}

	fe := make(FieldErrors, len(verrs))
	for _, e := range verrs {
		fe.Add(e.Field(), message(e))
	}
	return fe
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}

func message(e validator.FieldError) string {
	switch e.ActualTag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters (it has %d).", e.Param(), length(e))
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters (it has %d).", e.Param(), length(e))
	case "email":
		return "Enter a valid email address."
	case "eqfield":
		return "The two password fields didn't match."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	case "numeric":
		return "Enter a whole number."
	}
	return fmt.Sprintf("Invalid value (%s).", e.Tag())
}

func length(e validator.FieldError) int {
	if s, ok := e.Value().(string); ok {
		return utf8.RuneCountInString(s)
	}
	return 0
}
