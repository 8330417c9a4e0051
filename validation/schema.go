package validation

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/entadmin/adminkit/password"
)

// RegisterForm is the sign-up form.
type RegisterForm struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,password_policy"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	FirstName       string `json:"first_name" validate:"required,max=50"`
	LastName        string `json:"last_name" validate:"required,max=50"`
	AcceptTerms     bool   `json:"accept_terms" validate:"accepted"`
}

// LoginForm is the sign-in form.
type LoginForm struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

type ForgotPasswordForm struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordForm struct {
	Password        string `json:"password" validate:"required,password_policy"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type ChangePasswordForm struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,password_policy"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// UpdateProfileForm edits the signed-in user's profile. Phone may be blank.
type UpdateProfileForm struct {
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Phone     string `json:"phone" validate:"omitempty,mobile"`
}

var (
	validate *validator.Validate
	once     sync.Once
)

// getValidator returns the shared validator with the account tags
// registered and json names used for fields.
func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return toSnakeCase(fld.Name)
			}
			return name
		})
		_ = validate.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("password_policy", func(fl validator.FieldLevel) bool {
			return password.MeetsPolicy(fl.Field().String())
		})
		_ = validate.RegisterValidation("accepted", func(fl validator.FieldLevel) bool {
			return fl.Field().Kind() == reflect.Bool && fl.Field().Bool()
		})
	})
	return validate
}

// ValidateStruct checks s against its validate tags. Failures are reported in
// field order, at most one per field.
func ValidateStruct(s any) Result {
	res := Result{Errors: []FieldError{}}
	err := getValidator().Struct(s)
	if err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			res.Errors = append(res.Errors, FieldError{Field: "", Message: MessageFailed})
		}
		seen := make(map[string]bool, len(verrs))
		for _, e := range verrs {
			if seen[e.Field()] {
				continue
			}
			seen[e.Field()] = true
			res.Errors = append(res.Errors, FieldError{
				Field:   e.Field(),
				Message: formatValidationError(e),
				Value:   e.Value(),
			})
		}
	}
	res.IsValid = len(res.Errors) == 0
	return res
}

// Validate checks s and returns a validation AppError, or nil.
func Validate(s any) error {
	return ValidateStruct(s).Err()
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return MessageRequired
	case "email":
		return "invalid email address"
	case "min":
		return "must be at least " + e.Param() + " characters"
	case "max":
		return "must be at most " + e.Param() + " characters"
	case "mobile":
		return "invalid phone number"
	case "eqfield":
		return "passwords do not match"
	case "accepted":
		return "you must accept the terms of service"
	case "password_policy":
		if s, ok := e.Value().(string); ok {
			if v := password.CheckPolicy(s); len(v) > 0 {
				return v[0]
			}
		}
		return "password does not meet the policy"
	case "url":
		return "invalid URL"
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
