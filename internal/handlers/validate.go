package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"codewithbrain/internal/models"
)

// validate checks request structs against their `validate` tags. Field
// names in errors are the JSON names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// commentInput is a reader comment submitted through the public API.
type commentInput struct {
	AuthorName  string `json:"author_name" validate:"required,max=100"`
	AuthorEmail string `json:"author_email" validate:"required,email,max=254"`
	Content     string `json:"content" validate:"required,max=5000"`
}

// postInput is the admin create/update payload for posts.
type postInput struct {
	Title      string            `json:"title" validate:"required,max=250"`
	Slug       string            `json:"slug" validate:"max=250"`
	CategoryID *uuid.UUID        `json:"category_id"`
	Excerpt    string            `json:"excerpt" validate:"max=500"`
	Content    string            `json:"content" validate:"max=100000"`
	Status     models.PostStatus `json:"status" validate:"omitempty,oneof=draft published"`
	Tags       []string          `json:"tags" validate:"max=20,dive,max=50"`
}

// categoryInput is the admin create/update payload for categories.
type categoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"max=100"`
	Description string `json:"description" validate:"max=1000"`
}

// userInput is the admin payload for creating staff accounts.
type userInput struct {
	Username    string      `json:"username" validate:"required,max=150"`
	Email       string      `json:"email" validate:"omitempty,email"`
	Password    string      `json:"password" validate:"required,min=8,max=72"`
	DisplayName string      `json:"display_name" validate:"max=100"`
	Role        models.Role `json:"role" validate:"omitempty,oneof=admin editor author"`
}

// approveInput lists the comments to approve in bulk.
type approveInput struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1,max=200"`
}

// trim strips surrounding whitespace from the user-facing text fields
// before validation.
func (in *commentInput) trim() {
	in.AuthorName = strings.TrimSpace(in.AuthorName)
	in.AuthorEmail = strings.TrimSpace(in.AuthorEmail)
	in.Content = strings.TrimSpace(in.Content)
}

func (in *postInput) trim() {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
}

func (in *userInput) trim() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
}

func (in *categoryInput) trim() {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)
}

// fieldErrors turns a validation error into field → message.
func fieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fieldName(fe)] = fieldMessage(fe)
	}
	return out
}

// fieldName strips the struct name from the namespace ("postInput.tags[2]"
// becomes "tags[2]").
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("At most %s items.", fe.Param())
		}
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("At least %s items.", fe.Param())
		}
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", fe.Param())
	}
	return "Invalid value."
}

// checkInput validates in and writes a 400 with field errors on failure.
func checkInput(w http.ResponseWriter, in any) bool {
	if err := validate.Struct(in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Fields: fieldErrors(err)})
		return false
	}
	return true
}
