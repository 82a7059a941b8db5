package core

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"

	"github.com/trezcool/videograder/fs"
)

const emailTemplatesDir = "templates/email"

var (
	templates    map[string]*texttmpl.Template // {name: *Template}
	templatesErr error
	tmplInit     sync.Once
)

type (
	Attachment struct {
		Content     *bytes.Buffer // base64 encoded
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		BodyStr     string // simple text/plain, non-templated content
		Attachments []Attachment

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
	}

	ContextData struct {
		AppName string
		Data    interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages one after the other and reports the first failure.
		SendMessages(ctx context.Context, messages ...*EmailMessage) error
	}
)

func (m *EmailMessage) Render(appName string) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	} else if m.TemplateName == "" {
		return nil
	}

	tmplInit.Do(parseTemplates) // only once per process
	if templatesErr != nil {
		return templatesErr
	}
	tmpl, ok := templates[m.TemplateName]
	if !ok {
		return errors.Errorf("unknown email template %q", m.TemplateName)
	}

	var buff bytes.Buffer
	data := ContextData{AppName: appName, Data: m.TemplateData}
	if err := tmpl.ExecuteTemplate(&buff, m.TemplateName+".txt", data); err != nil {
		return errors.Wrapf(err, "rendering %s", m.TemplateName)
	}
	m.TextContent = strings.TrimSpace(buff.String())
	return nil
}

// Attach base64 encodes `content` as a new attachment.
func (m *EmailMessage) Attach(content []byte, filename string, ct ...string) {
	at := Attachment{Filename: filename, Content: new(bytes.Buffer)}

	encoder := base64.NewEncoder(base64.StdEncoding, at.Content)
	_, _ = encoder.Write(content) // writes to a bytes.Buffer never fail
	_ = encoder.Close()

	if len(ct) > 0 {
		at.ContentType = ct[0]
	} else {
		at.ContentType = http.DetectContentType(content)
	}
	m.Attachments = append(m.Attachments, at)
}

func (m *EmailMessage) HasRecipients() bool  { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool     { return m.TextContent != "" }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }

func parseTemplates() {
	templates = make(map[string]*texttmpl.Template)

	entries, err := appfs.FS.ReadDir(emailTemplatesDir)
	if err != nil {
		templatesErr = errors.Wrap(err, "listing email templates")
		return
	}
	base := path.Join(emailTemplatesDir, "_base.txt")

	for _, entry := range entries {
		fname := entry.Name()
		if strings.HasPrefix(fname, "_") || path.Ext(fname) != ".txt" {
			continue
		}
		tmpl, err := texttmpl.ParseFS(appfs.FS, base, path.Join(emailTemplatesDir, fname))
		if err != nil {
			templatesErr = errors.Wrapf(err, "parsing %s", fname)
			return
		}
		templates[strings.TrimSuffix(fname, ".txt")] = tmpl.Option("missingkey=error")
	}
}
