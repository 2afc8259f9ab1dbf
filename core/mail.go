package core

import (
	"bytes"
	htmltmpl "html/template"
	"io/fs"
	"log"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"
)

var (
	textTemplates map[string]*texttmpl.Template
	htmlTemplates map[string]*htmltmpl.Template
	tmplInit      sync.Once
	tmplFS        fs.FS
	tmplRoot      string
)

type (
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails.
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// SetMailTemplateFS registers the filesystem holding the email templates
// (<root>/<name>.txt and <root>/<name>.gohtml). Must be called before the
// first Render.
func SetMailTemplateFS(fsys fs.FS, root string) {
	tmplFS = fsys
	tmplRoot = root
}

func (m *EmailMessage) contextData(conf *Config) ContextData {
	return ContextData{
		FrontendBaseURL: conf.FrontendBaseURL,
		Data:            m.TemplateData,
	}
}

func (m *EmailMessage) renderText(conf *Config) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	}
	tmpl, ok := textTemplates[m.TemplateName]
	if !ok {
		return nil
	}
	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.contextData(conf)); err != nil {
		return err
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) renderHTML(conf *Config) error {
	tmpl, ok := htmlTemplates[m.TemplateName]
	if !ok {
		return nil
	}
	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.contextData(conf)); err != nil {
		return err
	}
	m.HTMLContent = buff.String()
	return nil
}

func (m *EmailMessage) Render(conf *Config) error {
	if m.TemplateName != "" {
		tmplInit.Do(parseTemplates) // only parse once on first use
	}
	if err := m.renderText(conf); err != nil {
		return err
	}
	return m.renderHTML(conf)
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }

func parseTemplates() {
	textTemplates = make(map[string]*texttmpl.Template)
	htmlTemplates = make(map[string]*htmltmpl.Template)
	if tmplFS == nil {
		return
	}

	entries, err := fs.ReadDir(tmplFS, tmplRoot)
	if err != nil {
		log.Printf("core.parseTemplates: %v", err)
		return
	}

	for _, entry := range entries {
		fname := entry.Name()
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		fp := path.Join(tmplRoot, fname)
		if ext == ".txt" {
			tmpl, err := texttmpl.ParseFS(tmplFS, fp)
			if err != nil {
				log.Printf("core.parseTemplates: %v", err)
				continue
			}
			textTemplates[name] = tmpl.Option("missingkey=error")
		} else {
			tmpl, err := htmltmpl.ParseFS(tmplFS, fp)
			if err != nil {
				log.Printf("core.parseTemplates: %v", err)
				continue
			}
			htmlTemplates[name] = tmpl.Option("missingkey=error")
		}
	}
}
