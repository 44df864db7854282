package services

import (
	"errors"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/terraincognita07/parish/internal/models"
	"github.com/terraincognita07/parish/internal/security"
)

const (
	minPasswordLength   = 6
	maxPasswordBytes    = 72
	maxNameLength       = 200
	tokenQueryParameter = "token"
)

type InviteInput struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (input *InviteInput) normalize() {
	input.Email = NormalizeEmail(input.Email)
	input.Role = strings.TrimSpace(input.Role)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
}

func (input InviteInput) Validate() error {
	return validation.ValidateStruct(&input,
		validation.Field(&input.Email, validation.Required, is.Email),
		validation.Field(&input.Role, validation.In(roleValues()...)),
		validation.Field(&input.FirstName, validation.RuneLength(0, maxNameLength)),
		validation.Field(&input.LastName, validation.RuneLength(0, maxNameLength)),
	)
}

type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

func (input *RegisterInput) normalize() {
	input.Email = NormalizeEmail(input.Email)
	input.Role = strings.TrimSpace(input.Role)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
}

func (input RegisterInput) Validate() error {
	return validation.ValidateStruct(&input,
		validation.Field(&input.Email, validation.Required, is.Email),
		validation.Field(&input.Password, passwordRules()...),
		validation.Field(&input.FirstName, validation.Required, validation.RuneLength(1, maxNameLength)),
		validation.Field(&input.LastName, validation.Required, validation.RuneLength(1, maxNameLength)),
		validation.Field(&input.Role, validation.In(roleValues()...)),
	)
}

type UpdateUserInput struct {
	Email     *string `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Role      *string `json:"role"`
}

func (input *UpdateUserInput) normalize() {
	if input.Email != nil {
		email := NormalizeEmail(*input.Email)
		input.Email = &email
	}
	for _, field := range []**string{&input.FirstName, &input.LastName, &input.Role} {
		if *field != nil {
			trimmed := strings.TrimSpace(**field)
			*field = &trimmed
		}
	}
}

func (input UpdateUserInput) Validate() error {
	return validation.ValidateStruct(&input,
		validation.Field(&input.Email, validation.NilOrNotEmpty, is.Email),
		validation.Field(&input.FirstName, validation.NilOrNotEmpty, validation.RuneLength(1, maxNameLength)),
		validation.Field(&input.LastName, validation.NilOrNotEmpty, validation.RuneLength(1, maxNameLength)),
		validation.Field(&input.Role, validation.NilOrNotEmpty, validation.In(roleValues()...)),
	)
}

type redeemInput struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (input redeemInput) Validate() error {
	return validation.ValidateStruct(&input,
		validation.Field(&input.Token, validation.Required),
		validation.Field(&input.Password, passwordRules()...),
	)
}

type credentialsInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (input credentialsInput) Validate() error {
	return validation.ValidateStruct(&input,
		validation.Field(&input.Email, validation.Required),
		validation.Field(&input.Password, validation.Required),
	)
}

type emailInput struct {
	Email string `json:"email"`
}

func (input emailInput) Validate() error {
	return validation.ValidateStruct(&input,
		validation.Field(&input.Email, validation.Required, is.Email),
	)
}

// NormalizeEmail trims surrounding whitespace. Case is preserved, so lookups
// stay exact.
func NormalizeEmail(raw string) string {
	return strings.TrimSpace(raw)
}

// ExtractToken accepts either a bare token or a full redemption link and
// returns the token value.
func ExtractToken(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" || security.LooksLikeOneTimeToken(value) {
		return value
	}
	if !strings.Contains(value, tokenQueryParameter+"=") {
		return value
	}

	if parsed, err := url.Parse(value); err == nil {
		if token := strings.TrimSpace(parsed.Query().Get(tokenQueryParameter)); token != "" {
			return token
		}
	}

	_, rest, _ := strings.Cut(value, tokenQueryParameter+"=")
	token, _, _ := strings.Cut(rest, "&")
	return strings.TrimSpace(token)
}

func passwordRules() []validation.Rule {
	return []validation.Rule{
		validation.Required,
		validation.RuneLength(minPasswordLength, 0),
		validation.By(passwordFitsDigest),
	}
}

func passwordFitsDigest(value interface{}) error {
	indirect, _ := validation.Indirect(value)
	password, ok := indirect.(string)
	if ok && len(password) > maxPasswordBytes {
		return errors.New("must be at most 72 bytes")
	}
	return nil
}

func roleValues() []interface{} {
	values := make([]interface{}, 0, len(models.Roles))
	for _, role := range models.Roles {
		values = append(values, role)
	}
	return values
}

// validate runs the input's rules and converts rule failures into a
// *ValidationError keyed by JSON field name.
func validate(input validation.Validatable) error {
	err := input.Validate()
	if err == nil {
		return nil
	}

	var fieldErrors validation.Errors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	fields := make(map[string]string, len(fieldErrors))
	for name, fieldErr := range fieldErrors {
		fields[name] = fieldErr.Error()
	}
	return &ValidationError{Fields: fields}
}
