package validation

import (
	"strings"

	"github.com/BuzzLyutic/taskflow/internal/model"
)

type loginRules struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type signupRules struct {
	Name            string `json:"name" validate:"required,min=2,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,maxbytes=72,strongpw"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// Login validates credentials. The email is trimmed and lower-cased.
func Login(in model.LoginInput) (model.LoginInput, error) {
	in.Email = normalizeEmail(in.Email)

	errs := &Errors{}
	check("login", loginRules(in), errs)
	if err := errs.orNil(); err != nil {
		return model.LoginInput{}, err
	}
	return in, nil
}

// Signup validates a registration. A password mismatch is reported on confirmPassword.
func Signup(in model.SignupInput) (model.SignupInput, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)

	errs := &Errors{}
	check("signup", signupRules(in), errs)
	if err := errs.orNil(); err != nil {
		return model.SignupInput{}, err
	}
	return in, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
