package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service error for the caller.
type Kind uint8

const (
	// KindUnknown covers infrastructure failures that carry no *Error.
	KindUnknown Kind = iota
	// KindAuthentication is a credential problem: wrong password, inactive
	// account, throttled login.
	KindAuthentication
	// KindValidation is bad input or a violated uniqueness/existence rule.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindValidation:
		return "validation"
	}
	return "unknown"
}

// Error is a user-facing failure. Error() returns the localized message shown
// to operators; Code is stable and used for errors.Is comparisons.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string]string // per-field problems for invalid input
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// with returns a copy of e wrapping cause.
func (e *Error) with(cause error) *Error {
	c := *e
	c.Err = cause
	return &c
}

// withMessage returns a copy of e whose message is formatted from args.
func (e *Error) withMessage(args ...any) *Error {
	c := *e
	c.Message = fmt.Sprintf(e.Message, args...)
	return &c
}

var (
	ErrInvalidCredentials = &Error{
		Kind:    KindAuthentication,
		Code:    "invalid_credentials",
		Message: "نام کاربری یا رمز عبور اشتباه است",
	}
	ErrAccountInactive = &Error{
		Kind:    KindAuthentication,
		Code:    "account_inactive",
		Message: "حساب کاربری غیرفعال است",
	}
	ErrWrongPassword = &Error{
		Kind:    KindAuthentication,
		Code:    "wrong_password",
		Message: "رمز عبور فعلی اشتباه است",
	}
	ErrTooManyAttempts = &Error{
		Kind:    KindAuthentication,
		Code:    "too_many_attempts",
		Message: "تلاش‌های ناموفق بیش از حد مجاز است؛ کمی بعد دوباره تلاش کنید",
	}
	ErrPermissionDenied = &Error{
		Kind:    KindAuthentication,
		Code:    "permission_denied",
		Message: "شما اجازه انجام این عملیات را ندارید",
	}

	ErrUsernameTaken = &Error{
		Kind:    KindValidation,
		Code:    "username_taken",
		Message: "نام کاربری '%s' قبلا استفاده شده است",
	}
	ErrUserNotFound = &Error{
		Kind:    KindValidation,
		Code:    "user_not_found",
		Message: "کاربر یافت نشد",
	}
	ErrPasswordTooShort = &Error{
		Kind:    KindValidation,
		Code:    "password_too_short",
		Message: "رمز عبور باید حداقل %d کاراکتر باشد",
	}
	ErrPasswordTooLong = &Error{
		Kind:    KindValidation,
		Code:    "password_too_long",
		Message: "رمز عبور نباید بیشتر از %d بایت باشد",
	}
	ErrInvalidInput = &Error{
		Kind:    KindValidation,
		Code:    "invalid_input",
		Message: "اطلاعات وارد شده معتبر نیست",
	}
)

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
