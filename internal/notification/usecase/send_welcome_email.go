package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/crmotp/internal/notification/entity"
)

type SendWelcomeEmailInput struct {
	To                string `validate:"required,email"`
	Name              string `validate:"max=100"`
	TemporaryPassword string `validate:"required"`
	Role              string `validate:"required,oneof=admin manager employee"`
}

var roleDescriptions = map[string]string{
	"admin":    "As an administrator you can manage users, settings and every CRM module.",
	"manager":  "As a manager you can oversee your team's clients, projects and approvals.",
	"employee": "As an employee you can work with the clients, projects and tasks assigned to you.",
}

// SendWelcomeEmail emails the temporary password of a newly provisioned account.
func (s *Usecase) SendWelcomeEmail(ctx context.Context, in SendWelcomeEmailInput) entity.DeliveryResult {
	ctx, span := s.startSpan(ctx, "SendWelcomeEmail")
	defer span.End()

	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if err := s.validator.Validate(in); err != nil {
		slog.WarnContext(ctx, "invalid welcome email input", "error", err)
		return entity.Failed("invalid input: " + err.Error())
	}

	data := s.baseTemplateData()
	data["Name"] = displayName(in.Name, in.To)
	data["Role"] = in.Role
	data["RoleDescription"] = roleDescriptions[in.Role]
	data["TemporaryPassword"] = in.TemporaryPassword

	return s.dispatch(ctx, dispatchInput{
		kind:     entity.DeliveryKindWelcome,
		to:       in.To,
		template: TemplateWelcome,
		data:     data,
	})
}

func displayName(name, email string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}
