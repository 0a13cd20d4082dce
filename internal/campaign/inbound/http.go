package inbound

import (
	"net/http"

	"github.com/shandysiswandi/mailblast/internal/pkg/config"
	"github.com/shandysiswandi/mailblast/internal/pkg/router"
)

const defaultMaxBodyBytes int64 = 8 << 20

func RegisterHTTPEndpoint(r *router.Router, cfg config.Config, uc uc) {
	end := &HTTPEndpoint{uc: uc, maxBody: defaultMaxBodyBytes}
	if v := cfg.GetInt64("modules.campaign.max_body_bytes"); v > 0 {
		end.maxBody = v
	}

	r.POSTRaw("/api/v1/campaigns/send", http.HandlerFunc(end.SendCampaign))
	r.POST("/api/v1/campaigns/queue", end.QueueCampaign)
	r.DELETE("/api/v1/campaigns/:id", end.CancelCampaign)
	r.GETRaw("/api/v1/campaigns/:id/stream", http.HandlerFunc(end.StreamCampaign))

	r.POST("/api/v1/campaigns/recipients/import", end.ImportRecipients)
	r.POST("/api/v1/campaigns/recipients/import-object", end.ImportRecipientsFromObject)
}
