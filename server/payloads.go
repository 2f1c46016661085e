package server

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// RegisterPayload is the create-account form/JSON body.
type RegisterPayload struct {
	Name            string `json:"name" form:"name"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	PasswordConfirm string `json:"password_confirm" form:"password_confirm"`
}

func (p RegisterPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&p.Email, validation.Required, is.Email),
		validation.Field(&p.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(&p.PasswordConfirm,
			validation.Required,
			validation.In(p.Password).Error("passwords do not match"),
		),
	)
}

// LoginPayload is the password login body.
type LoginPayload struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Remember bool   `json:"remember_me" form:"remember_me"`
}

func (p LoginPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, is.Email),
		validation.Field(&p.Password, validation.Required),
	)
}

// ResetRequestPayload starts the password reset flow.
type ResetRequestPayload struct {
	Email string `json:"email" form:"email"`
}

func (p ResetRequestPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, is.Email),
	)
}

// ResetPasswordPayload completes the password reset flow.
type ResetPasswordPayload struct {
	Key             string `json:"key" form:"key"`
	Password        string `json:"password" form:"password"`
	PasswordConfirm string `json:"password_confirm" form:"password_confirm"`
}

func (p ResetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Key, validation.Required),
		validation.Field(&p.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(&p.PasswordConfirm,
			validation.Required,
			validation.In(p.Password).Error("passwords do not match"),
		),
	)
}

// ChangePasswordPayload swaps the current password for a new one.
type ChangePasswordPayload struct {
	Password           string `json:"password" form:"password"`
	NewPassword        string `json:"new_password" form:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm" form:"new_password_confirm"`
}

func (p ChangePasswordPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Password, validation.Required),
		validation.Field(&p.NewPassword, validation.Required, validation.Length(8, 72)),
		validation.Field(&p.NewPasswordConfirm,
			validation.Required,
			validation.In(p.NewPassword).Error("passwords do not match"),
		),
	)
}

// ChangeLoginPayload requests a login email change.
type ChangeLoginPayload struct {
	Password string `json:"password" form:"password"`
	NewEmail string `json:"new_email" form:"new_email"`
}

func (p ChangeLoginPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Password, validation.Required),
		validation.Field(&p.NewEmail, validation.Required, is.Email),
	)
}

// CloseAccountPayload confirms account closure with the current password.
type CloseAccountPayload struct {
	Password string `json:"password" form:"password"`
}

func (p CloseAccountPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Password, validation.Required),
	)
}
