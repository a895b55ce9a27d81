package usecase

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var phoneDigits = regexp.MustCompile(`\D`)

// ValidateAngiLead checks the partner payload field by field. It also
// normalizes whitespace in place so the rest of the pipeline never sees
// padded values or an empty-string-vs-null ambiguity.
func ValidateAngiLead(input *AngiLeadInput) []ValidationError {
	var errors []ValidationError

	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.PhoneNumber = strings.TrimSpace(input.PhoneNumber)
	input.Email = strings.TrimSpace(input.Email)
	input.Source = strings.TrimSpace(input.Source)
	input.Description = strings.TrimSpace(input.Description)
	input.Category = strings.TrimSpace(input.Category)
	input.Urgency = strings.TrimSpace(input.Urgency)
	input.CorrelationID = strings.TrimSpace(input.CorrelationID)
	input.ALAccountID = strings.TrimSpace(input.ALAccountID)
	input.PostalAddress.AddressFirstLine = strings.TrimSpace(input.PostalAddress.AddressFirstLine)
	input.PostalAddress.AddressSecondLine = strings.TrimSpace(input.PostalAddress.AddressSecondLine)
	input.PostalAddress.City = strings.TrimSpace(input.PostalAddress.City)
	input.PostalAddress.State = strings.TrimSpace(input.PostalAddress.State)
	input.PostalAddress.PostalCode = strings.TrimSpace(input.PostalAddress.PostalCode)

	if input.FirstName == "" {
		errors = append(errors, ValidationError{"FirstName", "is required"})
	}
	if input.LastName == "" {
		errors = append(errors, ValidationError{"LastName", "is required"})
	}

	if input.PhoneNumber == "" {
		errors = append(errors, ValidationError{"PhoneNumber", "is required"})
	} else if !isValidPhoneNumber(input.PhoneNumber) {
		errors = append(errors, ValidationError{"PhoneNumber", "must be a valid phone number"})
	}

	if input.Email == "" {
		errors = append(errors, ValidationError{"Email", "is required"})
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		errors = append(errors, ValidationError{"Email", "is invalid"})
	}

	if input.Source == "" {
		errors = append(errors, ValidationError{"Source", "is required"})
	}
	if input.Description == "" {
		errors = append(errors, ValidationError{"Description", "is required"})
	}
	if input.Category == "" {
		errors = append(errors, ValidationError{"Category", "is required"})
	}
	if input.Urgency == "" {
		errors = append(errors, ValidationError{"Urgency", "is required"})
	}

	if input.CorrelationID == "" {
		errors = append(errors, ValidationError{"CorrelationId", "is required"})
	} else if _, err := uuid.Parse(input.CorrelationID); err != nil {
		errors = append(errors, ValidationError{"CorrelationId", "must be a valid UUID"})
	}

	if input.ALAccountID == "" {
		errors = append(errors, ValidationError{"ALAccountId", "is required"})
	}

	if input.PostalAddress.AddressFirstLine == "" {
		errors = append(errors, ValidationError{"PostalAddress.AddressFirstLine", "is required"})
	}
	if input.PostalAddress.City == "" {
		errors = append(errors, ValidationError{"PostalAddress.City", "is required"})
	}
	if input.PostalAddress.State == "" {
		errors = append(errors, ValidationError{"PostalAddress.State", "is required"})
	}
	if input.PostalAddress.PostalCode == "" {
		errors = append(errors, ValidationError{"PostalAddress.PostalCode", "is required"})
	}

	return errors
}

func isValidPhoneNumber(phone string) bool {
	cleaned := phoneDigits.ReplaceAllString(phone, "")
	return len(cleaned) >= 10 && len(cleaned) <= 11
}
