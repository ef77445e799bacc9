package server

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
	"sync"
)

//go:embed static/*
var staticFiles embed.FS

// asset is an embedded file with its precomputed headers
type asset struct {
	data        []byte
	contentType string
	etag        string
}

// staticAssets indexes every embedded file by its path below static/ (e.g., "css/admin.css")
var staticAssets = sync.OnceValues(func() (map[string]asset, error) {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub filesystem: %w", err)
	}
	assets := make(map[string]asset)
	err = fs.WalkDir(sub, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(sub, name)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(data)
		assets[name] = asset{
			data:        data,
			contentType: contentType(name, data),
			etag:        `"` + hex.EncodeToString(sum[:8]) + `"`,
		}
		return nil
	})
	return assets, err
})

// StreamFile writes an embedded static asset, answering 304 when the
// browser already holds the same version
func StreamFile(w http.ResponseWriter, r *http.Request, fileName string) error {
	assets, err := staticAssets()
	if err != nil {
		return err
	}
	a, ok := assets[fileName]
	if !ok {
		return fmt.Errorf("no static asset %s", fileName)
	}

	w.Header().Set("ETag", a.etag)
	if r.Header.Get("If-None-Match") == a.etag {
		w.WriteHeader(http.StatusNotModified)
		return nil
	}
	w.Header().Set("Content-Type", a.contentType)
	if _, err := w.Write(a.data); err != nil {
		return fmt.Errorf("failed to write %s content: %w", fileName, err)
	}
	return nil
}

func contentType(fileName string, data []byte) string {
	ctype := mime.TypeByExtension(strings.ToLower(path.Ext(fileName)))
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	if strings.HasPrefix(ctype, "text/") && !strings.Contains(strings.ToLower(ctype), "charset=") {
		ctype += "; charset=utf-8"
	}
	return ctype
}

// serveFileHandler serves /css/{file} and friends from the embedded assets
func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.URL.Path, "/")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		if err := StreamFile(w, r, filePath); err != nil {
			logError(r.Method, filePath, err.Error())
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
		}
	}
}
