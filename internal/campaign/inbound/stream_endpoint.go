package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shandysiswandi/mailblast/internal/campaign/usecase"
	"github.com/shandysiswandi/mailblast/internal/pkg/ndjson"
	"github.com/shandysiswandi/mailblast/internal/pkg/router"
)

const headerCampaignID = "X-Campaign-ID"

// SendCampaign sends a campaign and streams its progress as NDJSON.
// @Summary Send campaign
// @Description Sends the campaign one recipient at a time. Each line of the response is a progress record; the last one has status complete, cancelled or fatal.
// @Tags Campaign
// @Accept json
// @Produce application/x-ndjson
// @Param Idempotency-Key header string false "Idempotency key"
// @Param request body SendCampaignRequest true "Campaign payload"
// @Success 200 {string} string "NDJSON progress stream"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 409 {object} router.errorResponse "Duplicate idempotency key"
// @Failure 413 {object} router.errorResponse "Request body too large"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/campaigns/send [post]
func (h *HTTPEndpoint) SendCampaign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	req := &router.Request{Request: r}

	var body SendCampaignRequest
	if err := req.DecodeBody(&body); err != nil {
		router.WriteError(ctx, w, err)
		return
	}

	out, err := h.uc.SendCampaign(ctx, body.input(req.GetHeader(headerIdempotencyKey)))
	if err != nil {
		router.WriteError(ctx, w, err)
		return
	}

	clearWriteDeadline(ctx, w)
	w.Header().Set("Content-Type", ndjson.ContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set(headerCampaignID, strconv.FormatInt(out.CampaignID, 10))
	w.WriteHeader(http.StatusOK)

	enc := ndjson.NewWriter(w)
	for ev, err := range out.Events {
		if err != nil {
			slog.ErrorContext(ctx, "campaign stream aborted", "campaign_id", out.CampaignID, "error", err)
			if err := enc.Encode(newFatalRecord(err)); err != nil {
				slog.ErrorContext(ctx, "failed to send response data", "error", err)
			}
			return
		}

		if err := enc.Encode(newProgressRecord(ev)); err != nil {
			// the client is gone; leaving the loop stops the delivery
			slog.ErrorContext(ctx, "failed to send response data", "campaign_id", out.CampaignID, "error", err)
			return
		}
	}
}

// StreamCampaign streams progress of a queued campaign using SSE.
// @Summary Stream queued campaign
// @Description Streams progress records of a queued campaign using Server-Sent Events (SSE).
// @Tags Campaign
// @Produce text/event-stream
// @Param id path int true "Campaign ID"
// @Success 200 {string} string "SSE stream"
// @Failure 400 {object} router.errorResponse "Invalid campaign id"
// @Failure 500 {string} string "streaming unsupported"
// @Router /api/v1/campaigns/{id}/stream [get]
func (h *HTTPEndpoint) StreamCampaign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := (&router.Request{Request: r}).GetParamInt64("id")
	if err != nil {
		router.WriteError(ctx, w, err)
		return
	}

	stream, err := h.uc.StreamCampaign(ctx, usecase.StreamCampaignInput{ID: id})
	if err != nil {
		router.WriteError(ctx, w, err)
		return
	}

	clearWriteDeadline(ctx, w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		slog.ErrorContext(ctx, "failed to send response connected", "error", err)
		return
	}
	flusher.Flush()

	// heartbeat ping, so proxies won't drop idle connections.
	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case evt, ok := <-stream:
			if !ok {
				return
			}
			if err := writeStreamEvent(ctx, w, evt); err != nil {
				slog.ErrorContext(ctx, "failed to send response data", "error", err)
				return
			}
			flusher.Flush()
			if evt.Terminal() {
				return
			}
		}
	}
}

func writeStreamEvent(ctx context.Context, w io.Writer, evt usecase.StreamEvent) error {
	name, data := "progress", any(nil)
	if evt.Err != nil {
		name, data = "error", newFatalRecord(evt.Err)
	} else {
		data = newProgressRecord(evt.Event)
	}

	payload, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal data", "error", err)
		return nil
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)
	return err
}

// clearWriteDeadline lifts the server write timeout for a long-running stream.
func clearWriteDeadline(ctx context.Context, w http.ResponseWriter) {
	err := http.NewResponseController(w).SetWriteDeadline(time.Time{})
	if err != nil && !errors.Is(err, http.ErrNotSupported) {
		slog.WarnContext(ctx, "failed to clear write deadline", "error", err)
	}
}

func closeFile(ctx context.Context, file io.Closer) {
	if err := file.Close(); err != nil {
		slog.WarnContext(ctx, "failed to close uploaded file", "error", err)
	}
}
