package restserver

import (
	"bytes"
	htmltemplate "html/template"
	"net/http"

	"github.com/runtimeterrors/trailrunners/internal/chart"
	"github.com/runtimeterrors/trailrunners/internal/constants"
	"github.com/runtimeterrors/trailrunners/internal/log"
)

var pageTitles = map[string]string{
	"index":        "Trail Summary",
	"about":        "About",
	"privacy":      "Privacy Policy",
	"info":         "Info",
	"gpx_generate": "How to Generate GPX Files",
}

// ServePage returns a handler rendering the named page inside the shared layout
func (h *Handlers) ServePage(page string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		view, err := htmltemplate.New(page).ParseFS(h.controller.FS,
			"templates/layout.html.tmpl", "templates/"+page+".html.tmpl")
		if err != nil {
			log.Errorf("error parsing %s template: %v", page, err)
			http.Error(w, "Page not available", http.StatusInternalServerError)
			return
		}

		data := pageData{
			Page:            page,
			Title:           pageTitles[page],
			Version:         constants.Version,
			DefaultSegments: h.controller.cfg.Chart.DefaultSegments,
			MaxSegments:     h.controller.cfg.Chart.MaxSegments,
			Legend:          legendSwatches(),
		}

		// Render fully before writing so a template error can still become a 500
		var buf bytes.Buffer
		if err := view.ExecuteTemplate(&buf, "layout", data); err != nil {
			log.Errorf("error executing %s template: %v", page, err)
			http.Error(w, "Page not available", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(buf.Bytes())
	}
}

func legendSwatches() []legendSwatch {
	items := chart.Legend()
	swatches := make([]legendSwatch, len(items))
	for i, it := range items {
		// Colours come from the fixed tier palette
		swatches[i] = legendSwatch{Text: it.Text, Style: htmltemplate.CSS("background: " + it.Color)}
	}
	return swatches
}
