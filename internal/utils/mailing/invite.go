package mailing

import (
	"bytes"
	"html/template"
	"time"
)

const InviteSubject = "You're invited to share a fridge"

var inviteTemplate = template.Must(template.New("invite").Parse(`<p>{{.Inviter}} invited you to join <b>{{.Household}}</b>.</p>
<p>Your invite code is <b style="font-size:20px;letter-spacing:4px">{{.Code}}</b>. It expires {{.Expires}}.</p>
{{if .AppURL}}<p><a href="{{.AppURL}}">Open the app</a> and enter the code to join.</p>{{end}}`))

type InviteData struct {
	Inviter   string
	Household string
	Code      string
	ExpiresAt time.Time
	AppURL    string
}

func RenderInvite(data InviteData) (string, error) {
	var buf bytes.Buffer
	err := inviteTemplate.Execute(&buf, struct {
		InviteData
		Expires string
	}{data, data.ExpiresAt.UTC().Format("2006-01-02 15:04 MST")})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
