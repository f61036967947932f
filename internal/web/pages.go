package web

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"heart-predictor/internal/collector"
	"heart-predictor/internal/common"
	"heart-predictor/internal/ml"

	"github.com/rs/zerolog/log"
)

type pageData struct {
	Page         string // "predict" or "contact"
	Title        string
	Subtitle     string
	Blurb        string
	Hint         string
	ContactURL   string
	ModelVersion string
	Fields       []field
	Result       *result
	Error        string
}

type field struct {
	Name  string
	Min   float64
	Max   float64
	Step  float64
	Value float64
}

type result struct {
	Positive  bool
	Message   string
	RequestID string
}

func (s *Server) basePage(page string) pageData {
	return pageData{
		Page:         page,
		Title:        common.PageTitle,
		Subtitle:     common.PageSubtitle,
		Blurb:        common.ProjectBlurb,
		Hint:         common.PageHint,
		ContactURL:   s.opts.ContactURL,
		ModelVersion: s.classifier.Metadata().Version,
	}
}

// fields pairs each spec with a value. Submitted values that parse are kept so
// the form redisplays what the operator entered.
func (s *Server) fields(submitted func(name string) string) []field {
	out := make([]field, len(s.specs))
	for i, spec := range s.specs {
		value := s.defaults[i]
		if submitted != nil {
			if x, err := strconv.ParseFloat(submitted(spec.Name), 64); err == nil {
				value = x
			}
		}
		out[i] = field{
			Name:  spec.Name,
			Min:   spec.Min,
			Max:   spec.Max,
			Step:  collector.Step(spec),
			Value: value,
		}
	}
	return out
}

func (s *Server) handlePredictPage(w http.ResponseWriter, r *http.Request) {
	data := s.basePage("predict")
	data.Fields = s.fields(nil)
	s.render(w, http.StatusOK, data)
}

func (s *Server) handlePredictSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := r.ParseForm(); err != nil {
		data := s.basePage("predict")
		data.Fields = s.fields(nil)
		data.Error = "could not read the submitted form"
		s.render(w, http.StatusBadRequest, data)
		return
	}

	data := s.basePage("predict")
	data.Fields = s.fields(r.PostForm.Get)

	v, err := collector.FromForm(r.PostForm, s.specs)
	if err != nil {
		data.Error = err.Error()
		s.render(w, http.StatusBadRequest, data)
		return
	}

	if err := s.waitProgress(r.Context()); err != nil {
		data.Error = "request canceled"
		s.render(w, http.StatusServiceUnavailable, data)
		return
	}

	res, err := s.classify(r.Context(), v, "form", "")
	if err != nil {
		status, _ := errorStatus(err)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Msg("classification failed")
			data.Error = "the model could not produce a prediction"
		} else {
			data.Error = err.Error()
		}
		s.render(w, status, data)
		return
	}

	data.Result = &result{Positive: res.label == ml.Positive, Message: res.label.Message(), RequestID: res.requestID}
	s.render(w, http.StatusOK, data)
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, s.basePage("contact"))
}

// render executes into a buffer first so a template error never leaves a
// half-written page behind.
func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := s.pages.Execute(&buf, data); err != nil {
		log.Error().Err(err).Str("page", data.Page).Msg("failed to render page")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		log.Debug().Err(err).Msg("failed to write page")
	}
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Heart Disease Prediction</title>
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; background: linear-gradient(120deg, #050816 0%, #0b1220 35%, #0f766e 70%, #7c3aed 100%); color: #e6eef8; min-height: 100vh; }
        .layout { display: flex; min-height: 100vh; }
        nav { width: 200px; padding: 24px 16px; background: rgba(15,23,42,0.95); border-right: 1px solid rgba(148,163,184,0.35); }
        nav h2 { font-size: 16px; margin-top: 0; }
        nav a { display: block; padding: 8px 12px; margin-bottom: 6px; border-radius: 999px; color: #e5e7eb; text-decoration: none; }
        nav a.active { background: rgba(148,163,184,0.25); font-weight: 600; }
        main { flex: 1; padding: 28px; max-width: 1200px; }
        .card { padding: 28px 24px; border-radius: 18px; background: rgba(15,23,42,0.85); border: 1px solid rgba(148,163,184,0.28); }
        .sub { font-size: 13px; color: rgba(226,232,240,0.82); }
        .columns { display: grid; grid-template-columns: 1fr 1.2fr; gap: 32px; }
        .input { margin-bottom: 12px; }
        .input label { display: flex; justify-content: space-between; font-size: 14px; }
        .input input { width: 100%; }
        button { background: linear-gradient(120deg,#06b6d4,#22c55e); color: white; border-radius: 999px; padding: 8px 18px; font-weight: 600; border: none; cursor: pointer; }
        .result { padding: 16px; border-radius: 12px; }
        .result.ok { background: rgba(34,197,94,0.2); border: 1px solid #22c55e; }
        .result.warn { background: rgba(234,179,8,0.2); border: 1px solid #eab308; }
        .result.info { background: rgba(59,130,246,0.2); border: 1px solid #3b82f6; }
        .result.error { background: rgba(239,68,68,0.2); border: 1px solid #ef4444; }
        footer { margin-top: 16px; font-size: 12px; color: rgba(226,232,240,0.6); }
    </style>
</head>
<body>
<div class="layout">
    <nav>
        <h2>Navigation</h2>
        <a href="/predict"{{if eq .Page "predict"}} class="active"{{end}}>Predict</a>
        <a href="/contact"{{if eq .Page "contact"}} class="active"{{end}}>Contact Us</a>
    </nav>
    <main>
        <h1>{{.Title}}</h1>
{{if eq .Page "contact"}}
        <div class="card">
            <h2>Contact Us</h2>
            {{if .ContactURL}}<p>Use the form linked below to reach out to us.</p>
            <p><a href="{{.ContactURL}}" target="_blank" rel="noopener">Open Contact Form</a></p>
            {{else}}<p>No contact form is configured.</p>{{end}}
        </div>
{{else}}
        <p>{{.Blurb}}</p>
        <div class="card">
            <div><strong>Heart Disease Predictor</strong></div>
            <div class="sub">{{.Subtitle}}</div>
            <div class="columns">
                <form method="post" action="/predict">
                    <h3>Inputs</h3>
                    {{range .Fields}}<div class="input">
                        <label for="{{.Name}}">Select {{.Name}} value <output id="{{.Name}}-value">{{num .Value}}</output></label>
                        <input type="range" id="{{.Name}}" name="{{.Name}}" min="{{num .Min}}" max="{{num .Max}}" step="{{num .Step}}" value="{{num .Value}}"
                               oninput="document.getElementById('{{.Name}}-value').value = this.value">
                    </div>
                    {{end}}<button type="submit">Run Model</button>
                </form>
                <div>
                    <h3>Result</h3>
                    {{if .Error}}<div class="result error">{{.Error}}</div>
                    {{else if .Result}}<div class="result {{if .Result.Positive}}warn{{else}}ok{{end}}">{{.Result.Message}}</div>
                    <p class="reference">Reference: <code>{{.Result.RequestID}}</code></p>
                    {{else}}<div class="result info">{{.Hint}}</div>{{end}}
                </div>
            </div>
        </div>
{{end}}
        <footer>{{if .ModelVersion}}Model {{.ModelVersion}}{{end}}</footer>
    </main>
</div>
</body>
</html>
`
