package handlers

import (
	"html/template"
	"net/http"

	"github.com/seumatch/seumatch/internal/observability/logger"
	"github.com/seumatch/seumatch/internal/theme"
)

// Las páginas de marketing son rendering puro: una plantilla mínima del
// landing con el tema activo aplicado. El resto de la UI vive en el
// cliente.
const landingTmpl = `<!doctype html>
<html lang="en" data-theme="{{.Theme}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>SEU Match — find your match on campus</title>
</head>
<body class="{{.Theme}}">
<header><h1>SEU Match</h1></header>
<main>
<section id="hero">
<p>Matrimony matching for the Southeast University community.</p>
<a href="/v1/auth/session">Sign in with your university account</a>
</section>
</main>
</body>
</html>`

// LandingHandler sirve las páginas estáticas del landing.
type LandingHandler struct {
	ThemeCookie  string
	DefaultTheme theme.Theme

	tmpl *template.Template
}

func NewLandingHandler(themeCookie string, defaultTheme theme.Theme) *LandingHandler {
	return &LandingHandler{
		ThemeCookie:  themeCookie,
		DefaultTheme: defaultTheme,
		tmpl:         template.Must(template.New("landing").Parse(landingTmpl)),
	}
}

// Index maneja GET /.
func (h *LandingHandler) Index(w http.ResponseWriter, r *http.Request) {
	t := theme.FromCookie(r, h.ThemeCookie, h.DefaultTheme)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.Execute(w, map[string]any{"Theme": string(t)}); err != nil {
		logger.From(r.Context()).Error("landing render failed", logger.Err(err))
	}
}
