package inbound

import (
	"net/http"
	"time"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	OTPRequired bool      `json:"otp_required"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (LoginResponse) Message() string {
	return "OTP sent to your email"
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type AccountResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	Role        string    `json:"role"`
	LastLoginAt time.Time `json:"last_login_at"`
}

func (AccountResponse) Message() string {
	return "Login successful"
}

type ResendOTPRequest struct {
	Email string `json:"email"`
}

type ResendOTPResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

func (ResendOTPResponse) Message() string {
	return "If an account with that email exists, a new OTP has been sent."
}

type RegisterAdminRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type RegisterAdminResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

func (RegisterAdminResponse) Message() string {
	return "Account created. Login details have been emailed to the user."
}

func (RegisterAdminResponse) StatusCode() int {
	return http.StatusCreated
}
