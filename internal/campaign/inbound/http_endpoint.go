package inbound

import (
	"net/http"

	"github.com/shandysiswandi/mailblast/internal/campaign/usecase"
	"github.com/shandysiswandi/mailblast/internal/pkg/router"
)

const headerIdempotencyKey = "Idempotency-Key"

type HTTPEndpoint struct {
	uc      uc
	maxBody int64
}

// QueueCampaign hands a campaign to the broker for background delivery.
// @Summary Queue campaign
// @Description Validates the campaign and publishes it for a background consumer. Progress is available on the stream endpoint.
// @Tags Campaign
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Idempotency key"
// @Param request body SendCampaignRequest true "Campaign payload"
// @Success 202 {object} QueueCampaignResponse
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 409 {object} router.errorResponse "Duplicate idempotency key"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 503 {object} router.errorResponse "Queue not configured"
// @Router /api/v1/campaigns/queue [post]
func (h *HTTPEndpoint) QueueCampaign(r *router.Request) (any, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, h.maxBody)

	var req SendCampaignRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.QueueCampaign(r.Context(), req.input(r.GetHeader(headerIdempotencyKey)))
	if err != nil {
		return nil, err
	}

	return QueueCampaignResponse{CampaignID: out.CampaignID}, nil
}

// CancelCampaign stops a running campaign.
// @Summary Cancel campaign
// @Description Cancels a campaign running on this instance. Its stream ends with a cancelled record.
// @Tags Campaign
// @Param id path int true "Campaign ID"
// @Success 204 "No Content"
// @Failure 400 {object} router.errorResponse "Invalid campaign id"
// @Failure 404 {object} router.errorResponse "Campaign not found"
// @Router /api/v1/campaigns/{id} [delete]
func (h *HTTPEndpoint) CancelCampaign(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	return nil, h.uc.CancelCampaign(r.Context(), usecase.CancelCampaignInput{ID: id})
}

// ImportRecipients parses an uploaded CSV recipient list.
// @Summary Import recipients
// @Description Parses a CSV file with name and email columns.
// @Tags Campaign
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Success 200 {object} ImportRecipientsResponse
// @Failure 400 {object} router.errorResponse "Invalid file"
// @Failure 413 {object} router.errorResponse "File too large"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/campaigns/recipients/import [post]
func (h *HTTPEndpoint) ImportRecipients(r *router.Request) (any, error) {
	file, err := r.StreamSingleFile("file")
	if err != nil {
		return nil, err
	}
	defer closeFile(r.Context(), file)

	out, err := h.uc.ImportRecipients(r.Context(), usecase.ImportRecipientsInput{File: file})
	if err != nil {
		return nil, err
	}

	return newImportRecipientsResponse(out.Recipients), nil
}

// ImportRecipientsFromObject parses a CSV recipient list from object storage.
// @Summary Import recipients from storage
// @Description Reads a CSV file from the configured object storage.
// @Tags Campaign
// @Accept json
// @Produce json
// @Param request body ImportRecipientsFromObjectRequest true "Object location"
// @Success 200 {object} ImportRecipientsResponse
// @Failure 404 {object} router.errorResponse "Object not found"
// @Failure 413 {object} router.errorResponse "File too large"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 503 {object} router.errorResponse "Storage not configured"
// @Router /api/v1/campaigns/recipients/import-object [post]
func (h *HTTPEndpoint) ImportRecipientsFromObject(r *router.Request) (any, error) {
	var req ImportRecipientsFromObjectRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.ImportRecipientsFromObject(r.Context(), usecase.ImportRecipientsFromObjectInput{
		Bucket: req.Bucket,
		Key:    req.Key,
	})
	if err != nil {
		return nil, err
	}

	return newImportRecipientsResponse(out.Recipients), nil
}
