package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation      ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound        ErrorType = "NOT_FOUND"
	ErrorTypeUnauthenticated ErrorType = "UNAUTHENTICATED"
	ErrorTypeForbidden       ErrorType = "FORBIDDEN"
	ErrorTypeConflict        ErrorType = "CONFLICT"
	ErrorTypeInternal        ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidID        ErrorCode = "INVALID_ID"
	ErrCodeInvalidBody      ErrorCode = "INVALID_BODY"

	ErrCodeUnauthenticated    ErrorCode = "UNAUTHENTICATED"
	ErrCodeInsufficientRole   ErrorCode = "INSUFFICIENT_ROLE"
	ErrCodeInsufficientPerm   ErrorCode = "INSUFFICIENT_PERMISSION"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive       ErrorCode = "USER_INACTIVE"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"

	ErrCodeUserNotFound      ErrorCode = "USER_NOT_FOUND"
	ErrCodeEmailTaken        ErrorCode = "EMAIL_TAKEN"
	ErrCodeUsernameTaken     ErrorCode = "USERNAME_TAKEN"
	ErrCodeCannotDeleteSelf  ErrorCode = "CANNOT_DELETE_SELF"
	ErrCodeRoleNotFound      ErrorCode = "ROLE_NOT_FOUND"
	ErrCodeRoleNotAssigned   ErrorCode = "ROLE_NOT_ASSIGNED"
	ErrCodeWishlistNotFound  ErrorCode = "WISHLIST_NOT_FOUND"
	ErrCodeItemNotFound      ErrorCode = "WISHLIST_ITEM_NOT_FOUND"
	ErrCodeDuplicateItem     ErrorCode = "DUPLICATE_WISHLIST_ITEM"
	ErrCodeSameWishlist      ErrorCode = "SAME_WISHLIST"
	ErrCodeProductNotFound   ErrorCode = "PRODUCT_NOT_FOUND"
	ErrCodeProductInactive   ErrorCode = "PRODUCT_INACTIVE"
	ErrCodeSKUTaken          ErrorCode = "SKU_TAKEN"
	ErrCodeOrderNotFound     ErrorCode = "ORDER_NOT_FOUND"
	ErrCodeInvalidTransition ErrorCode = "INVALID_STATUS_TRANSITION"
	ErrCodeTotalOverflow     ErrorCode = "ORDER_TOTAL_TOO_LARGE"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on Type and Code so sentinel errors compare equal to copies.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthenticatedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthenticated,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

var (
	ErrUnauthenticated        = NewUnauthenticatedError("authentication required", ErrCodeUnauthenticated)
	ErrInsufficientRole       = NewForbiddenError("insufficient role", ErrCodeInsufficientRole)
	ErrInsufficientPermission = NewForbiddenError("insufficient permissions", ErrCodeInsufficientPerm)
	ErrInvalidCredentials     = NewUnauthenticatedError("invalid username or password", ErrCodeInvalidCredentials)
	ErrUserInactive           = NewForbiddenError("user account is inactive", ErrCodeUserInactive)
	ErrInvalidToken           = NewUnauthenticatedError("invalid token", ErrCodeInvalidToken)
	ErrTokenExpired           = NewUnauthenticatedError("token has expired", ErrCodeTokenExpired)
	ErrInvalidID              = NewValidationError("invalid id", ErrCodeInvalidID)
	ErrInvalidBody            = NewValidationError("invalid request body", ErrCodeInvalidBody)

	ErrUserNotFound      = NewNotFoundError("user not found", ErrCodeUserNotFound)
	ErrEmailTaken        = NewValidationError("email is already in use", ErrCodeEmailTaken)
	ErrUsernameTaken     = NewValidationError("username is already in use", ErrCodeUsernameTaken)
	ErrCannotDeleteSelf  = NewValidationError("you cannot delete your own account", ErrCodeCannotDeleteSelf)
	ErrRoleNotFound      = NewNotFoundError("role not found", ErrCodeRoleNotFound)
	ErrRoleNotAssigned   = NewNotFoundError("role is not assigned to user", ErrCodeRoleNotAssigned)
	ErrWishlistNotFound  = NewNotFoundError("wishlist not found", ErrCodeWishlistNotFound)
	ErrItemNotFound      = NewNotFoundError("wishlist item not found", ErrCodeItemNotFound)
	ErrDuplicateItem     = NewValidationError("product is already in this wishlist", ErrCodeDuplicateItem)
	ErrSameWishlist      = NewValidationError("item is already in the target wishlist", ErrCodeSameWishlist)
	ErrProductNotFound   = NewNotFoundError("product not found", ErrCodeProductNotFound)
	ErrProductInactive   = NewValidationError("product is not available", ErrCodeProductInactive)
	ErrSKUTaken          = NewValidationError("sku is already in use", ErrCodeSKUTaken)
	ErrOrderNotFound     = NewNotFoundError("order not found", ErrCodeOrderNotFound)
	ErrInvalidTransition = NewValidationError("status transition is not allowed", ErrCodeInvalidTransition)
	ErrTotalOverflow     = NewValidationError("order total is too large", ErrCodeTotalOverflow)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
