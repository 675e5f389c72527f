package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// BackupCodeData is the content of the backup code email.
type BackupCodeData struct {
	Issuer        string
	Code          string
	ExpiryMinutes int
}

// BackupCode renders the one-time sign-in code email. Every dynamic value is
// escaped before it reaches the writer.
func BackupCode(data BackupCodeData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		issuer := templ.EscapeString(data.Issuer)
		parts := []string{
			`<!DOCTYPE html><html><head><meta charset="utf-8"><title>`, issuer, ` sign-in code</title></head>`,
			`<body style="font-family:-apple-system,Segoe UI,Helvetica,Arial,sans-serif;background:#f6f6f6;padding:24px">`,
			`<table role="presentation" width="100%" style="max-width:480px;margin:0 auto;background:#ffffff;border-radius:8px;padding:24px">`,
			`<tr><td><h1 style="font-size:20px;margin:0 0 16px">`, issuer, `</h1>`,
			`<p style="margin:0 0 16px">Use this code to finish signing in:</p>`,
			`<p style="font-size:32px;letter-spacing:6px;font-weight:bold;margin:0 0 16px">`, templ.EscapeString(data.Code), `</p>`,
			`<p style="margin:0 0 8px;color:#555555">The code expires in `, strconv.Itoa(data.ExpiryMinutes), ` minutes and works once.</p>`,
			`<p style="margin:0;color:#999999;font-size:12px">If you did not try to sign in, change your password.</p>`,
			`</td></tr></table></body></html>`,
		}
		for _, p := range parts {
			if _, err := io.WriteString(w, p); err != nil {
				return err
			}
		}
		return nil
	})
}
