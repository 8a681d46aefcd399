package credential

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/shandysiswandi/crmotp/internal/credential/inbound"
	"github.com/shandysiswandi/crmotp/internal/credential/outbound/cache"
	"github.com/shandysiswandi/crmotp/internal/credential/outbound/db"
	"github.com/shandysiswandi/crmotp/internal/credential/outbound/mq"
	"github.com/shandysiswandi/crmotp/internal/credential/outbound/notify"
	"github.com/shandysiswandi/crmotp/internal/credential/usecase"
	notifusecase "github.com/shandysiswandi/crmotp/internal/notification/usecase"
	"github.com/shandysiswandi/crmotp/internal/pkg/clock"
	"github.com/shandysiswandi/crmotp/internal/pkg/config"
	"github.com/shandysiswandi/crmotp/internal/pkg/hash"
	"github.com/shandysiswandi/crmotp/internal/pkg/instrument"
	"github.com/shandysiswandi/crmotp/internal/pkg/messaging"
	"github.com/shandysiswandi/crmotp/internal/pkg/otp"
	"github.com/shandysiswandi/crmotp/internal/pkg/password"
	"github.com/shandysiswandi/crmotp/internal/pkg/router"
	"github.com/shandysiswandi/crmotp/internal/pkg/uid"
	"github.com/shandysiswandi/crmotp/internal/pkg/validator"
)

type Dependency struct {
	DBConn       *pgxpool.Pool              `validate:"required"`
	CacheConn    redis.UniversalClient      `validate:"required"`
	Router       *router.Router             `validate:"required"`
	Messaging    messaging.Messaging        `validate:"required"`
	Notification *notifusecase.Usecase      `validate:"required"`
	Config       config.Config              `validate:"required"`
	Instrument   instrument.Instrumentation `validate:"required"`
	UID          uid.NumberID               `validate:"required"`
	OTP          *otp.Generator             `validate:"required"`
	PasswordHash hash.Hash                  `validate:"required"`
	Password     password.Generator         `validate:"required"`
	Clock        clock.Clocker              `validate:"required"`
	Validator    validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:        db.NewDB(dep.DBConn, dep.Instrument),
		RepoCache:     cache.NewCache(dep.CacheConn, dep.Instrument),
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		RepoNotifier:  notify.New(dep.Notification),
		Validator:     dep.Validator,
		Config:        dep.Config,
		OTP:           dep.OTP,
		PasswordHash:  dep.PasswordHash,
		Password:      dep.Password,
		UID:           dep.UID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, inbound.HTTPConfig{
		AdminKey:           dep.Config.GetString("modules.credential.admin_key"),
		RateLimitPerMinute: dep.Config.GetInt("modules.credential.rate_limit_per_minute"),
	})

	return nil
}
