package forms

import "strings"

type ContactInput struct {
	Name    string `form:"name" validate:"required,max=100"`
	Email   string `form:"email" validate:"required,email,max=254"`
	Subject string `form:"subject" validate:"required,max=200"`
	Message string `form:"message" validate:"required"`
}

// ValidateContact trims the input in place and returns the field errors.
func ValidateContact(input *ContactInput) FieldErrors {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Subject = strings.TrimSpace(input.Subject)
	input.Message = strings.TrimSpace(input.Message)

	errs := FieldErrors{}
	collect(*input, errs)
	return errs
}
