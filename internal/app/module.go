package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/mailblast/internal/campaign"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.campaign.enabled") {
		if err := campaign.New(campaign.Dependency{
			Ctx:         a.ctx,
			Messaging:   a.messaging,
			Storage:     a.storage,
			Idempotency: a.idemp,
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			UUID:        a.uuid,
			Clock:       a.clock,
			Goroutine:   a.goroutine,
			Validator:   a.validator,
			Router:      a.router,
			Mail:        a.mail,
		}); err != nil {
			slog.Error("failed to init module campaign", "error", err)
			os.Exit(1)
		}
	}
}
