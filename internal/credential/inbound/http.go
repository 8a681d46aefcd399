package inbound

import (
	"context"

	"github.com/shandysiswandi/crmotp/internal/credential/usecase"
	"github.com/shandysiswandi/crmotp/internal/pkg/router"
)

type uc interface {
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)
	ResendOTP(ctx context.Context, in usecase.ResendOTPInput) (*usecase.ResendOTPOutput, error)
	RegisterAdmin(ctx context.Context, in usecase.RegisterAdminInput) (*usecase.RegisterAdminOutput, error)
}

type HTTPConfig struct {
	AdminKey           string
	RateLimitPerMinute int
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, cfg HTTPConfig) {
	end := &HTTPEndpoint{uc: uc}
	limit := router.NewRateLimiter(cfg.RateLimitPerMinute).Middleware()

	r.POST("/api/v1/credential/login", end.Login, limit)
	r.POST("/api/v1/credential/otp/verify", end.VerifyOTP, limit)
	r.POST("/api/v1/credential/otp/resend", end.ResendOTP, limit)

	// back office provisioning, guarded by X-Admin-Key
	r.POST("/api/v1/credential/admins", end.RegisterAdmin, limit, router.AdminKey(cfg.AdminKey))
}
