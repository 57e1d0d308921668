//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/flowchart/internal/export"
	"github.com/dusk-indust/flowchart/internal/flow"
	"github.com/dusk-indust/flowchart/internal/httpapi"
	"github.com/dusk-indust/flowchart/internal/service"
	"github.com/dusk-indust/flowchart/internal/store"
)

// TestPipeline_E2E_Fixtures translates the fixture directory into a store,
// then reads every diagram back and renders it in every format.
func TestPipeline_E2E_Fixtures(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	st, err := store.Open(ctx, "")
	require.NoError(t, err)
	defer st.Close()

	svc, err := service.New(service.Options{Store: st, Workers: 2})
	require.NoError(t, err)

	results, err := svc.TranslateDir(ctx, filepath.Join("..", "..", "testdata", "fixtures"))
	require.NoError(t, err)
	require.Len(t, results, 3, "fixtures hold one file per language")

	langs := map[flow.Language]bool{}
	units := 0
	for _, r := range results {
		require.NoError(t, r.Err, r.Path)
		langs[r.Translation.Language] = true
		units += len(r.Translation.Result.UnitNames())

		stored, err := st.LoadResult(ctx, r.Path)
		require.NoError(t, err)
		require.NotNil(t, stored, r.Path)
		assert.Equal(t, r.Translation.Result.UnitNames(), stored.UnitNames())

		for _, name := range stored.UnitNames() {
			want, _ := r.Translation.Result.Lookup(name)
			got, ok := stored.Lookup(name)
			require.True(t, ok, name)
			assert.Equal(t, want.Nodes, got.Nodes, "%s %s", r.Path, name)
			assert.Equal(t, want.Edges, got.Edges, "%s %s", r.Path, name)

			for _, f := range export.Formats {
				out, err := export.Render(ctx, got, name, f)
				require.NoError(t, err, "%s %s %s", r.Path, name, f)
				assert.NotEmpty(t, out)
			}
		}
	}
	assert.Len(t, langs, 3)

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Sources)
	assert.Equal(t, units, stats.Diagrams)
}

// TestPipeline_E2E_HTTPUpload uploads a fixture to a live HTTP server and
// fetches one of its diagrams as SVG.
func TestPipeline_E2E_HTTPUpload(t *testing.T) {
	svc, err := service.New(service.Options{Store: store.NewMemStore()})
	require.NoError(t, err)
	srv := httptest.NewServer(httpapi.New(svc, log.New(io.Discard)))
	defer srv.Close()

	src, err := os.ReadFile(filepath.Join("..", "..", "testdata", "fixtures", "bank.cs"))
	require.NoError(t, err)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "bank.cs")
	require.NoError(t, err)
	_, err = fw.Write(src)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/upload", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var uploaded struct {
		Success  bool          `json:"success"`
		Language flow.Language `json:"language"`
		Classes  []flow.Unit   `json:"classes"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&uploaded))
	assert.True(t, uploaded.Success)
	assert.Equal(t, flow.LangCSharp, uploaded.Language)
	require.NotEmpty(t, uploaded.Classes)

	svgResp, err := http.Get(srv.URL + "/api/diagram?source=bank.cs&unit=Account.Deposit&format=svg")
	require.NoError(t, err)
	defer svgResp.Body.Close()
	require.Equal(t, http.StatusOK, svgResp.StatusCode)
	assert.Equal(t, "image/svg+xml", svgResp.Header.Get("Content-Type"))

	svg, err := io.ReadAll(svgResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
}
