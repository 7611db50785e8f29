package email

import (
	"fmt"
	htmltemplate "html/template"
	"strings"
	"text/template"
)

type messageTemplate struct {
	subject string
	text    *template.Template
	html    *htmltemplate.Template
}

var templates = map[Kind]messageTemplate{
	KindOTP: {
		subject: "Your login code",
		text: mustTemplate("otp_text", `Hi {{.DisplayName}},

Your one-time login code is: {{.Code}}

It expires in {{.TTL}}. If you did not try to log in, you can ignore this
email and consider changing your password.
`),
		html: mustHTMLTemplate("otp_html", `<p>Hi {{.DisplayName}},</p>
<p>Your one-time login code is: <strong>{{.Code}}</strong></p>
<p>It expires in {{.TTL}}. If you did not try to log in, you can ignore this
email and consider changing your password.</p>
`),
	},
	KindVerifyEmail: {
		subject: "Verify your email address",
		text: mustTemplate("verify_text", `Hi {{.DisplayName}},

Please confirm your email address by opening the link below:

{{.Link}}

The link expires in {{.TTL}}.
`),
		html: mustHTMLTemplate("verify_html", `<p>Hi {{.DisplayName}},</p>
<p>Please confirm your email address by opening the link below:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>The link expires in {{.TTL}}.</p>
`),
	},
	KindResetPassword: {
		subject: "Reset your password",
		text: mustTemplate("reset_text", `Hi {{.DisplayName}},

Someone requested a password reset for your account. If that was you, open
the link below to choose a new password:

{{.Link}}

The link expires in {{.TTL}} and can be used once. If you did not request
this, no action is needed.
`),
		html: mustHTMLTemplate("reset_html", `<p>Hi {{.DisplayName}},</p>
<p>Someone requested a password reset for your account. If that was you,
open the link below to choose a new password:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>The link expires in {{.TTL}} and can be used once. If you did not request
this, no action is needed.</p>
`),
	},
}

func mustTemplate(name, body string) *template.Template {
	return template.Must(template.New(name).Parse(body))
}

// html bodies go through html/template so user-supplied display names get
// escaped.
func mustHTMLTemplate(name, body string) *htmltemplate.Template {
	return htmltemplate.Must(htmltemplate.New(name).Parse(body))
}

// render produces subject, text body and html body for a message kind.
func render(kind Kind, vars map[string]string) (subject, text, html string, err error) {
	tpl, ok := templates[kind]
	if !ok {
		return "", "", "", fmt.Errorf("email: unknown message kind %q", kind)
	}

	var textBuf, htmlBuf strings.Builder
	if err := tpl.text.Execute(&textBuf, vars); err != nil {
		return "", "", "", fmt.Errorf("email: render %s text: %w", kind, err)
	}
	if err := tpl.html.Execute(&htmlBuf, vars); err != nil {
		return "", "", "", fmt.Errorf("email: render %s html: %w", kind, err)
	}
	return tpl.subject, textBuf.String(), htmlBuf.String(), nil
}
