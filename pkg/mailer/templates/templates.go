package templates

import (
	"bytes"
	"fmt"
	htmpl "html/template"
	texttpl "text/template"
)

const (
	Activation    = "activation"
	ResetPassword = "reset_password"
)

type emailTemplate struct {
	subject string
	text    string
	html    string
}

var registry = map[string]emailTemplate{
	Activation: {
		subject: "Activate your account",
		text: `Hello {{.FirstName}},

Your account has been created. Follow the link below to choose a password and activate it:

{{.Link}}

If you did not expect this email, you can safely ignore it.`,
		html: `<p>Hello {{.FirstName}},</p>
<p>Your account has been created. Follow <a href="{{.Link}}">this link</a> to choose a password and activate it.</p>
<p>If you did not expect this email, you can safely ignore it.</p>`,
	},
	ResetPassword: {
		subject: "Reset your password",
		text: `Hello{{if .FirstName}} {{.FirstName}}{{end}},

To reset your password, follow the link below:

{{.Link}}

The link expires shortly. If you did not request a reset, ignore this email.`,
		html: `<p>Hello{{if .FirstName}} {{.FirstName}}{{end}},</p>
<p>To reset your password, follow <a href="{{.Link}}">this link</a>.</p>
<p>The link expires shortly. If you did not request a reset, ignore this email.</p>`,
	},
}

// Render produces subject, text and html bodies for a named template.
// Data typically carries FirstName and Link.
func Render(name string, data map[string]any) (subject, text, html string, err error) {
	t, ok := registry[name]
	if !ok {
		return "", "", "", fmt.Errorf("unknown email template %q", name)
	}

	tt, err := texttpl.New(name + "_text").Parse(t.text)
	if err != nil {
		return "", "", "", err
	}
	var tb bytes.Buffer
	if err := tt.Execute(&tb, data); err != nil {
		return "", "", "", err
	}

	ht, err := htmpl.New(name + "_html").Parse(t.html)
	if err != nil {
		return "", "", "", err
	}
	var hb bytes.Buffer
	if err := ht.Execute(&hb, data); err != nil {
		return "", "", "", err
	}

	return t.subject, tb.String(), hb.String(), nil
}
