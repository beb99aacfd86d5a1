package api

// Error codes returned in the body of a failed request.
const (
	ErrService    = "ERR_SERVICE"
	ErrDevice     = "ERR_DEVICE"
	ErrNotFound   = "ERR_NOT_FOUND"
	ErrBadRequest = "ERR_BAD_REQUEST"
	ErrBadParam   = "ERR_BAD_PARAM"
	ErrAuth       = "ERR_NOT_AUTHORIZED"
	ErrBadJwt     = "ERR_BAD_JWT"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error() returns error as a string.
func (e apiError) Error() string {
	return e.Message
}

func newBadJWTError() apiError {
	return apiError{
		Code:    ErrBadJwt,
		Message: "Unauthorized",
	}
}

func newAuthorizationError() apiError {
	return apiError{
		Code:    ErrAuth,
		Message: "Unauthorized",
	}
}

func newNotFoundError() apiError {
	return apiError{
		Code:    ErrNotFound,
		Message: "Not found",
	}
}

func newBadParamError(msg string) apiError {
	return apiError{
		Code:    ErrBadParam,
		Message: msg,
	}
}

func newDeviceError(msg string) apiError {
	return apiError{
		Code:    ErrDevice,
		Message: msg,
	}
}
