package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"norgeskole/internal/domain"
)

// IdentityProvider is the identity service the application consumes
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string) (domain.Identity, error)
	SignIn(ctx context.Context, email, password string) (domain.Session, error)
	SignOut(ctx context.Context, sessionID string) error
	Resolve(ctx context.Context, token string) (domain.Session, error)
	Delete(ctx context.Context, identityID string) error
	DeleteOrphan(ctx context.Context, identityID string) (bool, error)
	ListOrphans(ctx context.Context, grace time.Duration) ([]domain.Identity, error)
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// fieldMessages are the Norwegian texts shown for failed validation tags
var fieldMessages = map[string]string{
	"name:required": "Navn kan ikke være tomt",
	"email":         "Ugyldig e-postadresse",
	"password:min":  "Passordet må ha minst 6 tegn",
	"l1:oneof":      "Ukjent morsmål",
	"role:oneof":    "Velg rolle og klasserom",
	"required":      "Feltet er påkrevd",
}

// validateStruct runs struct tags and converts failures into a domain.ValidationError
func validateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &domain.ValidationError{}
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()+":"+fe.Tag()]
		if !ok {
			msg, ok = fieldMessages[fe.Tag()]
		}
		if !ok {
			msg = "Ugyldig verdi"
		}
		out.Fields = append(out.Fields, domain.FieldError{Field: fe.Field(), Message: msg})
	}
	return out
}

func invalid(field, message string) error {
	return &domain.ValidationError{Fields: []domain.FieldError{{Field: field, Message: message}}}
}
