package validator

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"

	passwordvalidator "github.com/wagslane/go-password-validator"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// PasswordMinEntropy is the minimum entropy in bits a password must carry,
// on top of the explicit character-class rules.
const PasswordMinEntropy = 50

func ValidateRegister(username, email, password string) ValidationErrors {
	errs := make(ValidationErrors)

	// Username
	username = strings.TrimSpace(username)
	if username == "" {
		errs.Add("username", "Username is required")
	} else if len(username) < 3 {
		errs.Add("username", "Username must be at least 3 characters")
	} else if len(username) > 50 {
		errs.Add("username", "Username is too long")
	} else if !usernameRegex.MatchString(username) {
		errs.Add("username", "Username can only contain letters, numbers, _ and -")
	}

	// Email
	email = strings.TrimSpace(email)
	if email == "" {
		errs.Add("email", "Email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.Add("email", "Invalid email address")
	}

	// Password
	validatePassword(password, errs)

	return errs
}

func ValidateLogin(username, password string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(username) == "" {
		errs.Add("username", "Username is required")
	}

	if password == "" {
		errs.Add("password", "Password is required")
	}

	return errs
}

func ValidateResend(email string) ValidationErrors {
	errs := make(ValidationErrors)

	email = strings.TrimSpace(email)
	if email == "" {
		errs.Add("email", "Email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.Add("email", "Invalid email address")
	}

	return errs
}

func ValidateProduct(name string, price float64) ValidationErrors {
	errs := make(ValidationErrors)

	name = strings.TrimSpace(name)
	if name == "" {
		errs.Add("name", "Product name is required")
	} else if len(name) > 200 {
		errs.Add("name", "Product name is too long")
	}

	if price <= 0 {
		errs.Add("price", "Price must be greater than zero")
	}

	return errs
}

func ValidateProductUpdate(name *string, price *float64) ValidationErrors {
	errs := make(ValidationErrors)

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			errs.Add("name", "Product name is required")
		} else if len(trimmed) > 200 {
			errs.Add("name", "Product name is too long")
		}
	}

	if price != nil && *price <= 0 {
		errs.Add("price", "Price must be greater than zero")
	}

	return errs
}

func validatePassword(password string, errs ValidationErrors) {
	if password == "" {
		errs.Add("password", "Password is required")
		return
	}

	if len(password) < 8 {
		errs.Add("password", "Password must be at least 8 characters")
		return
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	missing := []string{}
	if !hasUpper {
		missing = append(missing, "one uppercase letter")
	}
	if !hasLower {
		missing = append(missing, "one lowercase letter")
	}
	if !hasDigit {
		missing = append(missing, "one number")
	}

	if len(missing) > 0 {
		errs.Add("password", fmt.Sprintf("Password must contain at least %s", strings.Join(missing, ", ")))
		return
	}

	if err := passwordvalidator.Validate(password, PasswordMinEntropy); err != nil {
		errs.Add("password", "Password is too predictable, try a longer or less common one")
	}
}
