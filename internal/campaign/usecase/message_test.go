package usecase

import (
	"testing"

	"github.com/shandysiswandi/mailblast/internal/campaign/entity"
	"github.com/stretchr/testify/assert"
)

func TestBuildHTML(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		greeting bool
		rName    string
		want     string
	}{
		{name: "greeting", text: "Hello\nThere", greeting: true, rName: "A", want: "<p>Dear A,</p><p>Hello<br>There</p>"},
		{name: "no greeting", text: "Hello\nThere", want: "<p>Hello<br>There</p>"},
		{name: "empty name keeps greeting", text: "Hi", greeting: true, want: "<p>Dear ,</p><p>Hi</p>"},
		{name: "no escaping", text: "<b>x</b>\n\n", want: "<p><b>x</b><br><br></p>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildHTML(tt.text, tt.greeting, tt.rName)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, BuildHTML(tt.text, tt.greeting, tt.rName))
		})
	}
}

func TestFormatSender(t *testing.T) {
	assert.Equal(t, `"News Team" <news@x.com>`, FormatSender("News Team", "news@x.com"))
	assert.Equal(t, "news@x.com", FormatSender("", "news@x.com"))
}

func TestBuildMessage(t *testing.T) {
	j := job(nil)
	j.UseGreeting = true
	msg := buildMessage(j, entity.Recipient{Name: "A", Email: "a@x.com"})

	assert.Equal(t, `"News" <news@x.com>`, msg.From)
	assert.Equal(t, []string{"a@x.com"}, msg.To)
	assert.Equal(t, "Hi", msg.Subject)
	assert.Equal(t, "<p>Dear A,</p><p>Hello</p>", msg.HTMLBody)
	assert.Equal(t, msg, buildMessage(j, entity.Recipient{Name: "A", Email: "a@x.com"}))
}
