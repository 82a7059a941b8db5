package emailsvc

import (
	"bytes"
	"context"
	"net/http"
	"net/mail"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/videograder/core"
)

var testConf = &core.Config{
	AppName: "VideoGrader",
	Email:   core.EmailConfig{FromName: "Grades", FromAddress: "grades@example.edu", SendgridAPIKey: "key"},
}

type gradebookData struct {
	Instructor string
	Course     string
	Filename   string
	Students   int
	Videos     int
}

func newMessage() *core.EmailMessage {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: "Ann Smith", Address: "asmith@example.edu"}},
		Subject:      "Video grades: mat-101",
		TemplateName: "gradebook",
		TemplateData: gradebookData{Instructor: "asmith", Course: "mat-101", Filename: "asmith.csv", Students: 2, Videos: 3},
	}
	msg.Attach([]byte("OrgDefinedID,Username\n"), "asmith.csv", "text/csv")
	return msg
}

func TestConsoleService_SendMessages(t *testing.T) {
	var out bytes.Buffer
	svc := NewConsoleService(testConf, &out)

	err := svc.SendMessages(context.Background(), newMessage(), &core.EmailMessage{Subject: "no recipients", BodyStr: "x"})
	require.NoError(t, err)

	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].TextContent, "Hello asmith,")
	assert.Contains(t, sent[0].TextContent, "mat-101 are attached (asmith.csv)")
	assert.Contains(t, sent[0].TextContent, "2 student(s), 3 video(s).")

	assert.Contains(t, out.String(), "Subject: [VideoGrader] Video grades: mat-101")
	assert.Contains(t, out.String(), `From: "Grades" <grades@example.edu>`)
	assert.Contains(t, out.String(), "attachment; filename=asmith.csv")
}

func TestConsoleService_UnknownTemplate(t *testing.T) {
	svc := NewConsoleService(testConf, nil)
	msg := &core.EmailMessage{To: []mail.Address{{Address: "a@example.edu"}}, TemplateName: "missing"}

	err := svc.SendMessages(context.Background(), msg)
	assert.Error(t, err)
	assert.Empty(t, svc.SentMessages())
}

func TestSendgridService_SendMessages(t *testing.T) {
	var requests []rest.Request
	sendgridAPI = func(req rest.Request) (*rest.Response, error) {
		requests = append(requests, req)
		return &rest.Response{StatusCode: http.StatusAccepted}, nil
	}
	defer func() { sendgridAPI = sendgridAPIDefault }()

	svc := NewSendgridService(testConf)
	require.NoError(t, svc.SendMessages(context.Background(), newMessage()))
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodPost, string(requests[0].Method))
	assert.Contains(t, string(requests[0].Body), `"subject":"[VideoGrader] Video grades: mat-101"`)
	assert.Contains(t, string(requests[0].Body), `"filename":"asmith.csv"`)

	sendgridAPI = func(req rest.Request) (*rest.Response, error) {
		return &rest.Response{StatusCode: http.StatusUnauthorized, Body: "bad key"}, nil
	}
	err := svc.SendMessages(context.Background(), newMessage())
	assert.EqualError(t, err, "sending email - status: 401 - body: bad key")
}
