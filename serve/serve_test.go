package serve

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func newSite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string][]byte{
		"index.html":   []byte("<html></html>"),
		"demo.js":      []byte("// glue"),
		"demo_bg.wasm": {0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00},
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func get(t *testing.T, ts *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandler(t *testing.T) {
	ts := httptest.NewServer((&Server{Dir: newSite(t)}).Handler())
	defer ts.Close()

	t.Run("serves_index", func(t *testing.T) {
		resp := get(t, ts, "/")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		if string(body) != "<html></html>" {
			t.Errorf("body = %q", body)
		}
	})

	t.Run("wasm_mime_type", func(t *testing.T) {
		resp := get(t, ts, "/demo_bg.wasm")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/wasm" {
			t.Errorf("Content-Type = %q, want application/wasm", ct)
		}
	})

	t.Run("no_store_caching", func(t *testing.T) {
		for _, p := range []string{"/", "/demo.js", "/demo_bg.wasm"} {
			resp := get(t, ts, p)
			if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
				t.Errorf("%s: Cache-Control = %q, want no-store", p, cc)
			}
		}
	})

	t.Run("missing_file_404", func(t *testing.T) {
		resp := get(t, ts, "/absent.wasm")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})
}
