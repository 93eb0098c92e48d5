package dto

import "strings"

// LoginForm payload for login.
type LoginForm struct {
	Email      string `form:"email" validate:"required,email"`
	Password   string `form:"password" validate:"required"`
	RememberMe bool   `form:"rememberMe"`
	ReturnURL  string `form:"returnUrl"`
}

// Normalize trims the login handle.
func (f *LoginForm) Normalize() {
	f.Email = strings.TrimSpace(f.Email)
}

// RegisterForm payload for new users.
type RegisterForm struct {
	FullName        string `form:"fullName" validate:"required,max=100"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required,password"`
	ConfirmPassword string `form:"confirmPassword" validate:"required,eqfield=Password"`
	ReturnURL       string `form:"returnUrl"`
}

// Normalize trims name and email.
func (f *RegisterForm) Normalize() {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.TrimSpace(f.Email)
}

// ClearSecrets drops passwords before a form is redisplayed.
func (f *RegisterForm) ClearSecrets() {
	f.Password = ""
	f.ConfirmPassword = ""
}
