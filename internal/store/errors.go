package store

import "errors"

// Kind classifies a domain failure so transports can map it to a response.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindAuth       Kind = "auth"
	KindPolicy     Kind = "policy"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrUsernameTooShort = newError(KindValidation, "USERNAME_TOO_SHORT", "username must be at least 3 characters")
	ErrPasswordTooShort = newError(KindValidation, "PASSWORD_TOO_SHORT", "password must be at least 6 characters")
	ErrFullNameTooShort = newError(KindValidation, "FULL_NAME_TOO_SHORT", "full name must be at least 3 characters")
	ErrUsernameTaken    = newError(KindValidation, "USERNAME_TAKEN", "username already exists")
	ErrTitleRequired    = newError(KindValidation, "TITLE_REQUIRED", "title is required")
	ErrInvalidCategory  = newError(KindValidation, "INVALID_CATEGORY", "category must be one of Roads, Lighting, Waste, Parks, Other")
	ErrInvalidStatus    = newError(KindValidation, "INVALID_STATUS", "status must be one of Open, In Progress, Resolved")
	ErrInvalidCoords    = newError(KindValidation, "INVALID_COORDINATES", "coordinates are out of range")

	ErrInvalidCredentials = newError(KindAuth, "INVALID_CREDENTIALS", "invalid username or password")

	ErrCannotDeleteAdmin = newError(KindPolicy, "CANNOT_DELETE_ADMIN", "cannot delete admin user")

	ErrUserNotFound    = newError(KindNotFound, "USER_NOT_FOUND", "user not found")
	ErrProfileNotFound = newError(KindNotFound, "PROFILE_NOT_FOUND", "profile not found")
	ErrIssueNotFound   = newError(KindNotFound, "ISSUE_NOT_FOUND", "issue not found")
)

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return ""
}
