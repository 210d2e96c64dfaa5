// Package emailtpl renders the transactional emails shared by the recovery and
// notification modules.
package emailtpl

import (
	"bytes"
	htmltemplate "html/template"
	"strconv"
	texttemplate "text/template"
	"time"
)

const PasswordResetSubject = "Password Reset OTP - KRISHIGNAN"

// PasswordReset is the data rendered into the reset email.
type PasswordReset struct {
	FullName string
	Code     string
	ValidFor time.Duration
	IssuedAt time.Time
}

// Rendered is a ready-to-send email body pair.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

type view struct {
	Greeting string
	Code     string
	Minutes  string
	Year     int
}

var passwordResetHTML = htmltemplate.Must(htmltemplate.New("password_reset_html").Parse(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background:#f4f7f2;font-family:Arial,Helvetica,sans-serif;">
  <div style="max-width:560px;margin:24px auto;background:#ffffff;border-radius:12px;overflow:hidden;">
    <div style="background:#2e7d32;color:#ffffff;padding:24px;text-align:center;">
      <h1 style="margin:0;font-size:26px;">🌾 KRISHIGNAN</h1>
      <p style="margin:4px 0 0;font-size:12px;letter-spacing:3px;">FARMING WISDOM</p>
    </div>
    <div style="padding:28px;color:#333333;">
      <h2 style="margin-top:0;">Password Reset Request</h2>
      <p>{{.Greeting}}</p>
      <p>Use the code below to reset your password:</p>
      <div style="font-size:32px;font-weight:bold;letter-spacing:8px;text-align:center;background:#e8f5e9;color:#1b5e20;padding:16px;border-radius:8px;">{{.Code}}</div>
      <p style="margin-top:20px;">⏰ Valid for {{.Minutes}} minutes</p>
      <p style="font-size:13px;color:#777777;">Do not share this code with anyone. If you did not request a password reset, you can ignore this email.</p>
    </div>
    <div style="background:#f1f8e9;padding:16px;text-align:center;font-size:12px;color:#666666;">
      © {{.Year}} KRISHIGNAN. All rights reserved.
    </div>
  </div>
</body>
</html>
`))

var passwordResetText = texttemplate.Must(texttemplate.New("password_reset_text").Parse(`KRISHIGNAN - FARMING WISDOM

Password Reset Request

{{.Greeting}}

Your password reset code is: {{.Code}}

Valid for {{.Minutes}} minutes. Do not share this code with anyone.
If you did not request a password reset, you can ignore this email.

© {{.Year}} KRISHIGNAN
`))

// RenderPasswordReset renders both bodies of the reset email.
func RenderPasswordReset(in PasswordReset) (Rendered, error) {
	v := view{
		Greeting: "Hello,",
		Code:     in.Code,
		Minutes:  strconv.Itoa(int(in.ValidFor.Round(time.Minute) / time.Minute)),
		Year:     in.IssuedAt.Year(),
	}
	if in.FullName != "" {
		v.Greeting = "Hello " + in.FullName + ","
	}

	var html, text bytes.Buffer
	if err := passwordResetHTML.Execute(&html, v); err != nil {
		return Rendered{}, err
	}
	if err := passwordResetText.Execute(&text, v); err != nil {
		return Rendered{}, err
	}

	return Rendered{Subject: PasswordResetSubject, HTML: html.String(), Text: text.String()}, nil
}
