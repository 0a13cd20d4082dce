package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/mailblast/internal/campaign/entity"
	"github.com/shandysiswandi/mailblast/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestQueueCampaign(t *testing.T) {
	env := newTestEnv(t, "")
	env.mq.On("PublishCampaign", mock.Anything, mock.MatchedBy(func(job entity.SendJob) bool {
		return job.ID == 1 &&
			job.SenderEmail == "news@x.com" &&
			job.SenderName == "News" &&
			len(job.Recipients) == 2 &&
			job.Recipients[0] == entity.Recipient{Name: "A", Email: "a@x.com"}
	})).Return(nil).Once()

	out, err := env.uc.QueueCampaign(context.Background(), validSendInput())

	require.NoError(t, err)
	assert.Equal(t, int64(1), out.CampaignID)
	assert.Empty(t, env.mail.calls)
	env.mq.AssertExpectations(t)
}

func TestQueueCampaign_PublishError(t *testing.T) {
	env := newTestEnv(t, "")
	env.mq.On("PublishCampaign", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	out, err := env.uc.QueueCampaign(context.Background(), validSendInput())

	assert.Nil(t, out)
	requireCode(t, err, goerror.CodeInternal)
}

func TestQueueCampaign_Invalid(t *testing.T) {
	env := newTestEnv(t, "")
	in := validSendInput()
	in.Recipients = nil

	_, err := env.uc.QueueCampaign(context.Background(), in)

	requireCode(t, err, goerror.CodeInvalidInput)
	env.mq.AssertNotCalled(t, "PublishCampaign", mock.Anything, mock.Anything)
}

func TestQueueCampaign_NotConfigured(t *testing.T) {
	env := newTestEnv(t, "")
	env.uc.repoMQ = nil

	_, err := env.uc.QueueCampaign(context.Background(), validSendInput())

	requireCode(t, err, goerror.CodeUnavailable)
}

func TestQueueCampaign_Idempotency(t *testing.T) {
	env := newTestEnv(t, "")
	env.mq.On("PublishCampaign", mock.Anything, mock.Anything).Return(nil)
	in := validSendInput()
	in.IdempotencyKey = "q1"

	_, err := env.uc.QueueCampaign(context.Background(), in)
	require.NoError(t, err)

	_, err = env.uc.QueueCampaign(context.Background(), in)
	ge := requireCode(t, err, goerror.CodeConflict)
	assert.Contains(t, ge.Msg(), "already sent")

	env.mq.AssertNumberOfCalls(t, "PublishCampaign", 1)
}
