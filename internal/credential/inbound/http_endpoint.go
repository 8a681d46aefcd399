package inbound

import (
	"strconv"

	"github.com/shandysiswandi/crmotp/internal/credential/usecase"
	"github.com/shandysiswandi/crmotp/internal/pkg/router"
)

// HTTPEndpoint exposes the OTP login flow and account provisioning.
type HTTPEndpoint struct {
	uc uc
}

// Login checks email and password and emails a one-time passcode.
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return LoginResponse{OTPRequired: resp.OTPRequired, ExpiresAt: resp.ExpiresAt}, nil
}

// VerifyOTP completes the login with the emailed passcode.
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		Email: req.Email,
		OTP:   req.OTP,
	})
	if err != nil {
		return nil, err
	}

	return AccountResponse{
		ID:          strconv.FormatInt(resp.AccountID, 10),
		Email:       resp.Email,
		FullName:    resp.FullName,
		Role:        resp.Role.String(),
		LastLoginAt: resp.LastLoginAt,
	}, nil
}

func (h *HTTPEndpoint) ResendOTP(r *router.Request) (any, error) {
	var req ResendOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ResendOTP(r.Context(), usecase.ResendOTPInput{Email: req.Email})
	if err != nil {
		return nil, err
	}

	return ResendOTPResponse{ExpiresAt: resp.ExpiresAt}, nil
}

// RegisterAdmin creates a back-office account. The temporary password is
// only delivered by email.
func (h *HTTPEndpoint) RegisterAdmin(r *router.Request) (any, error) {
	var req RegisterAdminRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RegisterAdmin(r.Context(), usecase.RegisterAdminInput{
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		return nil, err
	}

	return RegisterAdminResponse{
		ID:       strconv.FormatInt(resp.AccountID, 10),
		Email:    resp.Email,
		FullName: resp.FullName,
		Role:     resp.Role.String(),
		Status:   resp.Status.String(),
	}, nil
}
