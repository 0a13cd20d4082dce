package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_resolve(t *testing.T) {
	_, err := Message{From: "a@x.com"}.resolve("")
	assert.ErrorIs(t, err, ErrNoRecipients)

	_, err = Message{To: []string{"b@x.com"}}.resolve(" ")
	assert.ErrorIs(t, err, ErrNoSender)

	msg, err := Message{Bcc: []string{"b@x.com"}}.resolve("noreply@x.com")
	require.NoError(t, err)
	assert.Equal(t, "noreply@x.com", msg.From)

	msg, err = Message{From: `"Me" <me@x.com>`, To: []string{"b@x.com"}}.resolve("noreply@x.com")
	require.NoError(t, err)
	assert.Equal(t, `"Me" <me@x.com>`, msg.From)
}

func TestNewFromDriver(t *testing.T) {
	ctx := context.Background()

	m, err := NewFromDriver(ctx, "", FactoryOptions{From: "noreply@x.com"})
	require.NoError(t, err)
	assert.IsType(t, &Log{}, m)

	m, err = NewFromDriver(ctx, " SMTP ", FactoryOptions{SMTP: SMTPConfig{Host: "localhost", Port: 2525}})
	require.NoError(t, err)
	assert.IsType(t, &SMTP{}, m)

	_, err = NewFromDriver(ctx, DriverSMTP, FactoryOptions{})
	assert.ErrorIs(t, err, ErrSMTPHostPortRequired)

	_, err = NewFromDriver(ctx, DriverResend, FactoryOptions{})
	assert.ErrorIs(t, err, ErrResendAPIKeyRequired)

	_, err = NewFromDriver(ctx, "carrier-pigeon", FactoryOptions{})
	assert.ErrorContains(t, err, "unsupported driver")
}

func TestLog_Send(t *testing.T) {
	l := NewLog("noreply@x.com")
	require.NoError(t, l.Send(context.Background(), Message{To: []string{"a@x.com"}, Subject: "hi"}))
	assert.ErrorIs(t, l.Send(context.Background(), Message{}), ErrNoRecipients)
	assert.NoError(t, l.Close())
}

func TestSMTP_build(t *testing.T) {
	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 587, From: "noreply@x.com"})
	require.NoError(t, err)

	_, err = s.build(Message{From: "not an address", To: []string{"a@x.com"}})
	assert.ErrorContains(t, err, "invalid from")

	m, err := s.build(Message{From: `"Sender" <me@x.com>`, To: []string{"a@x.com"}, Subject: "Hi", HTMLBody: "<p>x</p>"})
	require.NoError(t, err)
	assert.NotNil(t, m)

	assert.ErrorIs(t, s.Send(context.Background(), Message{}), ErrNoRecipients)
}

func TestResend_Send(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		if got["subject"] == "fail" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"bad"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email_1"}`))
	}))
	defer srv.Close()

	r, err := NewResend(ResendConfig{APIKey: "re_test", From: "noreply@x.com", BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	err = r.Send(context.Background(), Message{To: []string{"a@x.com"}, Subject: "Hi", HTMLBody: "<p>Hello</p>"})
	require.NoError(t, err)
	assert.Equal(t, "noreply@x.com", got["from"])
	assert.Equal(t, "<p>Hello</p>", got["html"])
	assert.Equal(t, []any{"a@x.com"}, got["to"])

	err = r.Send(context.Background(), Message{To: []string{"a@x.com"}, Subject: "fail"})
	assert.Error(t, err)
}

func TestSES_input(t *testing.T) {
	s := &SES{defaultFrom: "noreply@x.com", configurationSet: "bulk"}

	in := s.input(Message{From: "me@x.com", To: []string{"a@x.com"}, Subject: "Hi", HTMLBody: "<p>x</p>"})
	assert.Equal(t, "me@x.com", *in.Source)
	assert.Equal(t, []string{"a@x.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "Hi", *in.Message.Subject.Data)
	assert.Equal(t, "<p>x</p>", *in.Message.Body.Html.Data)
	assert.Nil(t, in.Message.Body.Text)
	assert.Equal(t, "bulk", *in.ConfigurationSetName)
}
