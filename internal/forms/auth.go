package forms

import "strings"

type LoginInput struct {
	Login    string `form:"login" validate:"required"`
	Password string `form:"password" validate:"required"`
	Next     string `form:"next"`
}

func ValidateLogin(input *LoginInput) FieldErrors {
	input.Login = strings.TrimSpace(input.Login)

	errs := FieldErrors{}
	collect(*input, errs)
	return errs
}

type RegisterInput struct {
	Username        string `form:"username" validate:"required,min=3,max=150"`
	Email           string `form:"email" validate:"required,email,max=254"`
	Password        string `form:"password" validate:"required,min=8"`
	PasswordConfirm string `form:"password_confirm" validate:"required,eqfield=Password"`
}

func ValidateRegister(input *RegisterInput) FieldErrors {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	errs := FieldErrors{}
	collect(*input, errs)
	return errs
}
