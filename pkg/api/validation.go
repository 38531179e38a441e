package api

import (
	"fmt"
	"net/mail"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// ValidateSignup checks a SignupRequest. It returns an *APIError describing
// the first validation failure, or nil if the request is valid.
func ValidateSignup(req *SignupRequest) *APIError {
	if req.Name == "" {
		return NewInvalidRequestError("name", "name is required")
	}
	if apiErr := validateEmail(req.Email); apiErr != nil {
		return apiErr
	}
	return validatePassword(req.Password, true)
}

// ValidateLogin checks a LoginRequest.
func ValidateLogin(req *LoginRequest) *APIError {
	if req.Email == "" {
		return NewInvalidRequestError("email", "email is required")
	}
	if req.Password == "" {
		return NewInvalidRequestError("password", "password is required")
	}
	return nil
}

// ValidateUpdate checks an UpdateUserRequest. The password is only
// validated when present.
func ValidateUpdate(req *UpdateUserRequest) *APIError {
	if req.Name == "" {
		return NewInvalidRequestError("name", "name is required")
	}
	if apiErr := validateEmail(req.Email); apiErr != nil {
		return apiErr
	}
	return validatePassword(req.Password, false)
}

func validateEmail(email string) *APIError {
	if email == "" {
		return NewInvalidRequestError("email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return NewInvalidRequestError("email", "email is not a valid address")
	}
	return nil
}

func validatePassword(password string, required bool) *APIError {
	if password == "" {
		if required {
			return NewInvalidRequestError("password", "password is required")
		}
		return nil
	}
	if len(password) < MinPasswordLength {
		return NewInvalidRequestError("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	return nil
}
