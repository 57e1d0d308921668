package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dusk-indust/flowchart/internal/export"
	"github.com/dusk-indust/flowchart/internal/flow"
	"github.com/dusk-indust/flowchart/internal/service"
	"github.com/dusk-indust/flowchart/internal/store"
	"github.com/dusk-indust/flowchart/internal/translate"
)

// translateRequest is the body of POST /api/translate.
type translateRequest struct {
	Source   string `json:"source"`
	Language string `json:"language,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// translateResponse carries the Result's fields at the top level.
type translateResponse struct {
	Success  bool          `json:"success"`
	Name     string        `json:"name"`
	Language flow.Language `json:"language"`
	Cached   bool          `json:"cached"`
	*flow.Result
	Code string `json:"code,omitempty"`
}

type languageInfo struct {
	Name       flow.Language `json:"name"`
	Extensions []string      `json:"extensions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	langs := s.svc.Languages()
	out := make([]languageInfo, 0, len(langs))
	for _, l := range langs {
		out = append(out, languageInfo{Name: l, Extensions: translate.Extensions(l)})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"languages":      out,
		"maxSourceBytes": s.svc.MaxSourceBytes(),
	})
}

// handleUpload translates the multipart field "file". The language comes
// from the optional "language" field or the file name's extension.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := s.svc.MaxSourceBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			s.writeError(w, r, service.ErrTooLarge)
		case errors.Is(err, http.ErrMissingFile):
			writeMessage(w, http.StatusBadRequest, "no file uploaded")
		default:
			writeMessage(w, http.StatusBadRequest, "invalid upload: "+err.Error())
		}
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeMessage(w, http.StatusBadRequest, "no file selected")
		return
	}

	src, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	tr, err := s.svc.Translate(r.Context(), service.Request{
		Source:   src,
		Language: r.FormValue("language"),
		Filename: header.Filename,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("upload translated", "file", header.Filename, "lang", tr.Language, "bytes", len(src))
	resp := response(tr)
	resp.Code = string(src)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	// JSON escaping can double the size of the source text.
	r.Body = http.MaxBytesReader(w, r.Body, 2*s.svc.MaxSourceBytes()+multipartOverhead)

	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.writeError(w, r, service.ErrTooLarge)
			return
		}
		writeMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	tr, err := s.svc.Translate(r.Context(), service.Request{
		Source:   []byte(req.Source),
		Language: req.Language,
		Filename: req.Filename,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response(tr))
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.svc.Sources(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if sources == nil {
		sources = []store.SourceInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

func (s *Server) handleUnits(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		writeMessage(w, http.StatusBadRequest, "source is required")
		return
	}
	st := s.svc.Store()
	if st == nil {
		s.writeError(w, r, service.ErrNoStore)
		return
	}
	info, err := st.GetSource(r.Context(), source)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if info == nil {
		writeMessage(w, http.StatusNotFound, "source not found: "+source)
		return
	}
	units, err := st.ListUnits(r.Context(), source)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"source": info, "units": units})
}

// handleDiagram renders one stored diagram. Query parameters: source
// (required), unit (default main) and format (default json).
func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	source := q.Get("source")
	if source == "" {
		writeMessage(w, http.StatusBadRequest, "source is required")
		return
	}
	format, err := export.ParseFormat(q.Get("format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	unit := q.Get("unit")
	if unit == "" {
		unit = store.MainUnit
	}

	d, err := s.svc.Diagram(r.Context(), source, unit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, err := export.Render(r.Context(), d, unit, format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Store()
	if st == nil {
		s.writeError(w, r, service.ErrNoStore)
		return
	}
	stats, err := st.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func response(tr *service.Translation) translateResponse {
	return translateResponse{
		Success:  true,
		Name:     tr.Name,
		Language: tr.Language,
		Cached:   tr.Cached,
		Result:   tr.Result,
	}
}
