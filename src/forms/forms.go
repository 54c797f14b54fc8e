/*
Package forms holds one validator per kind of form submission. Each form is a
plain struct filled from the request's form values; Validate reports problems
keyed by the HTML field name, ready to show next to the inputs.
*/
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"git.hoosierptk.dev/forums/forums/src/models"
	"github.com/go-playground/validator/v10"
)

// FieldErrors maps form field names to a message for that field. A form
// with no errors validates to nil.
type FieldErrors map[string]string

func (fe FieldErrors) Has(field string) bool {
	_, ok := fe[field]
	return ok
}

// Add records a problem that only turned up after validation, like a slug
// collision found on save.
func (fe *FieldErrors) Add(field, msg string) {
	if *fe == nil {
		*fe = FieldErrors{}
	}
	(*fe)[field] = msg
}

var validate = newValidator()

var reUsername = regexp.MustCompile(`^[\w.@+-]+$`)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "username", func(fl validator.FieldLevel) bool {
		return reUsername.MatchString(fl.Field().String())
	})
	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "notnumeric", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) }) >= 0
	})
	// The title or name must leave something behind after slugification.
	mustRegister(v, "slugifiable", func(fl validator.FieldLevel) bool {
		return models.Slugify(fl.Field().String()) != ""
	})
	mustRegister(v, "tags", func(fl validator.FieldLevel) bool {
		return tagsProblem(fl.Field().String()) == ""
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func tagsProblem(input string) string {
	tags := models.ParseTags(input)
	if len(tags) > models.MaxTagsPerPost {
		return fmt.Sprintf("You can use at most %d tags.", models.MaxTagsPerPost)
	}
	for _, tag := range tags {
		if !models.ValidateTagText(tag) {
			return fmt.Sprintf("%q is not a valid tag. Tags are up to %d lowercase letters, digits, and single hyphens.", tag, models.MaxTagLength)
		}
	}
	return ""
}

// Validate checks a form struct against its `validate` tags.
func Validate(form any) FieldErrors {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// Only happens when handed something that isn't a struct.
		panic(err)
	}

	result := FieldErrors{}
	for _, fe := range verrs {
		if _, seen := result[fe.Field()]; seen {
			continue
		}
		result[fe.Field()] = message(form, fe)
	}
	return result
}

func message(form any, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "eqfield":
		return "The two password fields didn't match."
	case "gt":
		return "Select a valid choice."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	case "notnumeric":
		return "This password is entirely numeric."
	case "slugifiable":
		return "This must contain at least one letter or number."
	case "tags":
		if s, ok := fe.Value().(string); ok {
			return tagsProblem(s)
		}
	}
	return "Enter a valid value."
}
