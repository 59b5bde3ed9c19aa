package home

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/indieinfra/capture/config"
	"github.com/indieinfra/capture/server/resp"
)

//go:embed templates/*.html
var templates embed.FS

var index = template.Must(template.ParseFS(templates, "templates/index.html"))

type landing struct {
	Title      string
	UploadPath string
}

type Message struct {
	Message string `json:"message"`
}

type Health struct {
	Status string `json:"status"`
}

// HandleHome serves the landing page in the configured format.
func HandleHome(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Server.Landing != "html" {
			resp.WriteOK(w, Message{Message: "Backend is running!"})
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := index.Execute(w, landing{Title: "Capture", UploadPath: "/upload"}); err != nil {
			resp.WriteInternalServerError(w, "failed to render landing page")
		}
	}
}

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp.WriteOK(w, Health{Status: "ok"})
}
