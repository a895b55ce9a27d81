package usecase

import "errors"

// DomainError is a business-rule violation. Handlers map it to a 4xx.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError is an infrastructure failure (storage, transport).
// Handlers map it to a 5xx with a generic body.
type TechnicalError struct {
	Code    string
	Message string
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

var (
	ErrNotADraft = &DomainError{
		Code:    "NOT_A_DRAFT",
		Message: "message is not a draft",
	}
	ErrChannelNotSupported = &DomainError{
		Code:    "CHANNEL_NOT_SUPPORTED",
		Message: "channel not supported",
	}
)

// InvalidPayloadError carries the field-level detail of a rejected payload.
type InvalidPayloadError struct {
	Errors []ValidationError
}

func (e *InvalidPayloadError) Error() string {
	msg := "validation failed: "
	for i, ve := range e.Errors {
		if i > 0 {
			msg += ", "
		}
		msg += ve.Field + " (" + ve.Message + ")"
	}
	return msg
}

// Fields groups messages per field for the API error body.
func (e *InvalidPayloadError) Fields() map[string][]string {
	fields := make(map[string][]string, len(e.Errors))
	for _, ve := range e.Errors {
		fields[ve.Field] = append(fields[ve.Field], ve.Message)
	}
	return fields
}
