package web

import (
	"bytes"
	"html/template"
	"net/http"
)

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}} - marketdash</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; }
table { border-collapse: collapse; }
th, td { padding: 0.25rem 0.6rem; border-bottom: 1px solid #ddd; text-align: right; }
nav { display: flex; gap: 1rem; align-items: center; margin-bottom: 1rem; }
.error { color: #b00020; }
#live { color: #666; font-size: 0.85rem; }
</style>
</head>
<body data-topic="{{.Topic}}">
<nav>
<a href="/markets">Markets</a>
{{if .User}}<span>{{.User}}</span>
<form method="post" action="/logout"><button type="submit">Log out</button></form>{{end}}
<span id="live"></span>
</nav>
{{.Body}}
{{if .Topic}}<script src="/static/live.js"></script>{{end}}
</body>
</html>
`))

var loginTmpl = template.Must(template.New("login").Parse(`<h1>Sign in</h1>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<form method="post" action="{{.Action}}">
<p><label>Email <input type="email" name="email" value="{{.Email}}" required></label></p>
<p><label>Password <input type="password" name="password" required></label></p>
<p><button type="submit">Sign in</button></p>
</form>
`))

type page struct {
	Title string
	Topic string
	User  string
	Body  template.HTML
}

func (a *App) writePage(w http.ResponseWriter, status int, p page) {
	if sess := a.Session.Current(); sess != nil {
		p.User = sess.Email
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, p); err != nil {
		a.logger().Error("render page failed", "title", p.Title, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

type loginForm struct {
	Action string
	Email  string
	Error  string
}

func (a *App) writeLogin(w http.ResponseWriter, status int, form loginForm) {
	form.Action = a.Guard.LoginPath()

	var buf bytes.Buffer
	if err := loginTmpl.Execute(&buf, form); err != nil {
		a.logger().Error("render login failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	a.writePage(w, status, page{Title: "Sign in", Body: template.HTML(buf.String())})
}
