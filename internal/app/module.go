package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/crmotp/internal/credential"
	"github.com/shandysiswandi/crmotp/internal/notification"
)

func (a *App) initModules() {
	// credential sends passcodes through notification, so notification is
	// always wired; the flag only controls its event consumers.
	consumerCtx := a.ctx
	if !a.config.GetBool("modules.notification.enabled") {
		consumerCtx = nil
	}

	notif, err := notification.New(notification.Dependency{
		Ctx:         consumerCtx,
		DBConn:      a.dbConn,
		Messaging:   a.messaging,
		Config:      a.config,
		Instrument:  a.ins,
		UID:         a.uid,
		UUID:        a.uuid,
		Clock:       a.clock,
		Goroutine:   a.goroutine,
		Validator:   a.validator,
		Idempotency: a.idemp,
		Mail:        a.mail,
	})
	if err != nil {
		slog.Error("failed to init module notification", "error", err)
		os.Exit(1)
	}

	if a.config.GetBool("modules.credential.enabled") {
		if err := credential.New(credential.Dependency{
			DBConn:       a.dbConn,
			CacheConn:    a.cacheConn,
			Router:       a.router,
			Messaging:    a.messaging,
			Notification: notif,
			Config:       a.config,
			Instrument:   a.ins,
			UID:          a.uid,
			OTP:          a.otp,
			PasswordHash: a.passwordHash,
			Password:     a.password,
			Clock:        a.clock,
			Validator:    a.validator,
		}); err != nil {
			slog.Error("failed to init module credential", "error", err)
			os.Exit(1)
		}
	}
}
