package model

import "errors"

var (
	ErrRateLimitReached   = errors.New("RATE_LIMIT_REACHED")
	ErrFetch              = errors.New("FETCH_ERROR")
	ErrSubmissionInFlight = errors.New("SUBMISSION_IN_FLIGHT")
	ErrDeliveryFailed     = errors.New("DELIVERY_FAILED")
	ErrInvalidForm        = errors.New("INVALID_FORM")
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewAPIError(errReason error) APIError {
	switch {
	case errors.Is(errReason, ErrRateLimitReached):
		return APIError{
			Code:    ErrRateLimitReached.Error(),
			Message: "github rate limit reached. consider using a token to increase the limit or wait few minutes and try again",
		}

	case errors.Is(errReason, ErrSubmissionInFlight):
		return APIError{
			Code:    ErrSubmissionInFlight.Error(),
			Message: "a message is already being sent. wait for it to complete before sending another one",
		}

	case errors.Is(errReason, ErrDeliveryFailed):
		return APIError{
			Code:    ErrDeliveryFailed.Error(),
			Message: "sorry, there was an error sending your message. please try again later",
		}

	case errors.Is(errReason, ErrInvalidForm):
		return APIError{
			Code:    ErrInvalidForm.Error(),
			Message: "name, email and message are required",
		}

	case errReason == nil:
		return APIError{
			Code:    "GENERIC_ERROR",
			Message: "internal server error. contact our support with the reason code for assistance",
		}

	default:
		return APIError{
			Code:    errReason.Error(),
			Message: "internal server error. contact our support with the reason code for assistance",
		}
	}
}
