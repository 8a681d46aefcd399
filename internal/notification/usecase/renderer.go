package usecase

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

//go:embed templates/*
var templateFS embed.FS

var ErrTemplateNotFound = errors.New("notification: template not found")

const (
	TemplateOTP     = "otp"
	TemplateWelcome = "welcome"
)

// Rendered is a composed email body pair.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

// Renderer turns a named template and its data into email content.
type Renderer interface {
	Render(name string, data any) (Rendered, error)
}

type templatePair struct {
	subject string
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

// TemplateRenderer renders the embedded templates/<name>.html and
// templates/<name>.txt files.
type TemplateRenderer struct {
	templates map[string]templatePair
}

func NewTemplateRenderer() (*TemplateRenderer, error) {
	subjects := map[string]string{
		TemplateOTP:     "Your CRM login code",
		TemplateWelcome: "Welcome to the CRM",
	}

	r := &TemplateRenderer{templates: make(map[string]templatePair, len(subjects))}
	for name, subject := range subjects {
		h, err := htmltemplate.New(name+".html").Option("missingkey=error").ParseFS(templateFS, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s html template: %w", name, err)
		}
		t, err := texttemplate.New(name+".txt").Option("missingkey=error").ParseFS(templateFS, "templates/"+name+".txt")
		if err != nil {
			return nil, fmt.Errorf("parse %s text template: %w", name, err)
		}
		r.templates[name] = templatePair{subject: subject, html: h, text: t}
	}

	return r, nil
}

func (r *TemplateRenderer) Render(name string, data any) (Rendered, error) {
	tp, ok := r.templates[name]
	if !ok {
		return Rendered{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}

	var html, text bytes.Buffer
	if err := tp.html.Execute(&html, data); err != nil {
		return Rendered{}, fmt.Errorf("render %s html: %w", name, err)
	}
	if err := tp.text.Execute(&text, data); err != nil {
		return Rendered{}, fmt.Errorf("render %s text: %w", name, err)
	}

	return Rendered{Subject: tp.subject, HTML: html.String(), Text: text.String()}, nil
}
