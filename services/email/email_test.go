package emailsvc

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core"
)

func newMessage() *core.EmailMessage {
	msg := &core.EmailMessage{
		To:          []mail.Address{{Name: "Head", Address: "head@school.test"}},
		Subject:     "Attendance report",
		TextContent: "present: 1",
	}
	msg.Attach([]byte(`{"present":1}`), "report.json", "application/json")
	return msg
}

func TestNew(t *testing.T) {
	conf := core.NewTestConfig()
	assert.IsType(t, &ConsoleService{}, New(conf, io.Discard))

	conf.Email.Backend = core.EmailSendgrid
	conf.Email.SendgridAPIKey = "key"
	assert.IsType(t, &sendgridService{}, New(conf, io.Discard))
}

func TestConsoleService_SendMessages(t *testing.T) {
	out := new(bytes.Buffer)
	svc := NewConsoleService(core.NewTestConfig(), out)

	noRecipients := &core.EmailMessage{Subject: "lost", TextContent: "lol"}
	require.NoError(t, svc.SendMessages(noRecipients, newMessage()))

	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Attendance report", sent[0].Subject)

	body := out.String()
	assert.Contains(t, body, `From: "Mahudhurio" <no-reply@mahudhurio.test>`)
	assert.Contains(t, body, "Subject: [Mahudhurio] Attendance report")
	assert.Contains(t, body, `To: "Head" <head@school.test>`)
	assert.Contains(t, body, "present: 1")
	assert.Contains(t, body, "attachment; filename=report.json")
	assert.Contains(t, body, base64.StdEncoding.EncodeToString([]byte(`{"present":1}`)))
	assert.NotContains(t, body, "lost")
}

func TestSendgridService_SendMessages(t *testing.T) {
	type sgRequest struct {
		Personalizations []struct {
			To      []struct{ Email, Name string } `json:"to"`
			Subject string                         `json:"subject"`
		} `json:"personalizations"`
		From        struct{ Email, Name string } `json:"from"`
		Attachments []struct {
			Content  string `json:"content"`
			Type     string `json:"type"`
			Filename string `json:"filename"`
		} `json:"attachments"`
	}

	tests := []struct {
		name       string
		status     int
		wantErrStr string
	}{
		{name: "accepted", status: http.StatusAccepted},
		{name: "rejected", status: http.StatusUnauthorized, wantErrStr: `sending "Attendance report": status: 401 - body: {"errors":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got sgRequest
			var auth, path string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				auth = r.Header.Get("Authorization")
				path = r.URL.Path
				_ = json.NewDecoder(r.Body).Decode(&got)
				w.WriteHeader(tt.status)
				if tt.status >= http.StatusBadRequest {
					_, _ = w.Write([]byte(`{"errors":[]}`))
				}
			}))
			defer srv.Close()

			conf := core.NewTestConfig()
			conf.Email.Backend = core.EmailSendgrid
			conf.Email.SendgridAPIKey = "sg-key"
			svc := NewSendgridService(conf)
			svc.host = srv.URL

			err := svc.SendMessages(newMessage())
			if tt.wantErrStr != "" {
				assert.EqualError(t, err, tt.wantErrStr)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, "Bearer sg-key", auth)
			assert.Equal(t, sendgridEndpoint, path)
			require.Len(t, got.Personalizations, 1)
			assert.Equal(t, "[Mahudhurio] Attendance report", got.Personalizations[0].Subject)
			assert.Equal(t, "head@school.test", got.Personalizations[0].To[0].Email)
			assert.Equal(t, "no-reply@mahudhurio.test", got.From.Email)
			require.Len(t, got.Attachments, 1)
			assert.Equal(t, "report.json", got.Attachments[0].Filename)
			assert.Equal(t, "application/json", got.Attachments[0].Type)
			assert.Equal(t, base64.StdEncoding.EncodeToString([]byte(`{"present":1}`)), got.Attachments[0].Content)
		})
	}
}
