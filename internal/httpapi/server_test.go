package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/flowchart/internal/export"
	"github.com/dusk-indust/flowchart/internal/flow"
	"github.com/dusk-indust/flowchart/internal/service"
	"github.com/dusk-indust/flowchart/internal/store"
)

const calcSource = "def add(a, b):\n    return a + b\n\nprint(add(1, 2))\n"

func newTestServer(t *testing.T, opts service.Options) *Server {
	t.Helper()
	if opts.Store == nil {
		opts.Store = store.NewMemStore()
	}
	svc, err := service.New(opts)
	require.NoError(t, err)
	return New(svc, log.New(io.Discard))
}

// uploadRequest builds a multipart POST /upload carrying content as the
// "file" field. An empty filename omits the field.
func uploadRequest(t *testing.T, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func postTranslate(t *testing.T, s *Server, req translateRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, "/api/translate", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return serve(s, r)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, service.Options{})
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestLanguages(t *testing.T) {
	s := newTestServer(t, service.Options{})
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/languages", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[struct {
		Languages []languageInfo `json:"languages"`
		Max       int64          `json:"maxSourceBytes"`
	}](t, rec)
	require.Len(t, got.Languages, 3)
	assert.Equal(t, flow.LangJavaScript, got.Languages[1].Name)
	assert.Equal(t, []string{".cjs", ".js", ".jsx", ".mjs"}, got.Languages[1].Extensions)
	assert.Equal(t, int64(1<<20), got.Max)
}

func TestUpload(t *testing.T) {
	s := newTestServer(t, service.Options{})
	rec := serve(s, uploadRequest(t, "calc.py", calcSource, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	got := decode[translateResponse](t, rec)
	assert.True(t, got.Success)
	assert.Equal(t, "calc.py", got.Name)
	assert.Equal(t, flow.LangPython, got.Language)
	assert.Equal(t, calcSource, got.Code)
	require.NotNil(t, got.Result)
	require.Len(t, got.Functions, 1)
	assert.Equal(t, "add", got.Functions[0].Name)
	assert.Equal(t, flow.KindStart, got.Main.Nodes[0].Kind)
}

func TestUpload_LanguageField(t *testing.T) {
	s := newTestServer(t, service.Options{})
	rec := serve(s, uploadRequest(t, "snippet.txt", "alert(1);\n", map[string]string{"language": "js"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, flow.LangJavaScript, decode[translateResponse](t, rec).Language)
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name     string
		opts     service.Options
		filename string
		content  string
		status   int
		contains string
	}{
		{name: "missing file", status: http.StatusBadRequest, contains: "no file uploaded"},
		{name: "syntax error", filename: "bad.py", content: "def f(:\n", status: http.StatusBadRequest, contains: "syntax error at line"},
		{name: "unsupported", filename: "app.rb", content: "puts 1\n", status: http.StatusUnsupportedMediaType, contains: "unsupported language"},
		{
			name:     "too large",
			opts:     service.Options{MaxSourceBytes: 100},
			filename: "big.py",
			content:  strings.Repeat("x = 1\n", 50),
			status:   http.StatusRequestEntityTooLarge,
			contains: "too large",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, tc.opts)
			rec := serve(s, uploadRequest(t, tc.filename, tc.content, nil))
			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, decode[errorResponse](t, rec).Error, tc.contains)
		})
	}
}

func TestUpload_SyntaxErrorLine(t *testing.T) {
	s := newTestServer(t, service.Options{})
	rec := serve(s, uploadRequest(t, "bad.py", "x = 1\ny = (\n", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	got := decode[errorResponse](t, rec)
	assert.GreaterOrEqual(t, got.Line, 1)
	assert.True(t, strings.HasPrefix(got.Error, fmt.Sprintf("syntax error at line %d:", got.Line)))
}

func TestTranslate(t *testing.T) {
	s := newTestServer(t, service.Options{})
	rec := postTranslate(t, s, translateRequest{
		Source:   "function greet(n) { console.log(n); }\ngreet('x');\n",
		Language: "javascript",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[translateResponse](t, rec)
	assert.True(t, got.Success)
	assert.True(t, strings.HasPrefix(got.Name, "sha256:"))
	assert.Empty(t, got.Code)
	_, ok := got.Lookup("greet")
	assert.True(t, ok)

	again := decode[translateResponse](t, postTranslate(t, s, translateRequest{
		Source:   "function greet(n) { console.log(n); }\ngreet('x');\n",
		Language: "js",
	}))
	assert.True(t, again.Cached)
}

func TestTranslate_BadRequest(t *testing.T) {
	s := newTestServer(t, service.Options{})
	r := httptest.NewRequest(http.MethodPost, "/api/translate", strings.NewReader("{not json"))
	rec := serve(s, r)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postTranslate(t, s, translateRequest{Source: "x = 1"})
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestDiagram(t *testing.T) {
	s := newTestServer(t, service.Options{})
	require.Equal(t, http.StatusOK, serve(s, uploadRequest(t, "calc.py", calcSource, nil)).Code)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/diagram?source=calc.py&unit=add&format=mermaid", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, export.FormatMermaid.ContentType(), rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "flowchart TD\n"))

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/diagram?source=calc.py", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var d flow.Diagram
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, flow.KindStart, d.Nodes[0].Kind)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/diagram?source=calc.py&format=png", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/diagram?source=calc.py&unit=nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/diagram", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSourcesUnitsStats(t *testing.T) {
	s := newTestServer(t, service.Options{})

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/sources", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sources":[]}`, rec.Body.String())

	require.Equal(t, http.StatusOK, serve(s, uploadRequest(t, "calc.py", calcSource, nil)).Code)

	sources := decode[struct {
		Sources []store.SourceInfo `json:"sources"`
	}](t, serve(s, httptest.NewRequest(http.MethodGet, "/api/sources", nil)))
	require.Len(t, sources.Sources, 1)
	assert.Equal(t, store.SourceInfo{Source: "calc.py", Language: flow.LangPython, Units: 2}, sources.Sources[0])

	units := decode[struct {
		Units []store.UnitInfo `json:"units"`
	}](t, serve(s, httptest.NewRequest(http.MethodGet, "/api/units?source=calc.py", nil)))
	require.Len(t, units.Units, 2)
	assert.Equal(t, "add", units.Units[1].Name)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/units?source=other.py", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	stats := decode[store.Stats](t, serve(s, httptest.NewRequest(http.MethodGet, "/api/stats", nil)))
	assert.Equal(t, 1, stats.Sources)
	assert.Equal(t, 2, stats.Diagrams)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, service.Options{})
	req := httptest.NewRequest(http.MethodOptions, "/api/translate", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := serve(s, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("translate python: %w", &flow.SyntaxError{Line: 2, Message: "x"}), http.StatusBadRequest},
		{&flow.DepthError{Line: 1, Limit: 3}, http.StatusUnprocessableEntity},
		{service.ErrTooLarge, http.StatusRequestEntityTooLarge},
		{service.ErrUnsupportedLanguage, http.StatusUnsupportedMediaType},
		{export.ErrUnknownFormat, http.StatusBadRequest},
		{service.ErrNotFound, http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}
