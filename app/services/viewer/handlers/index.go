package handlers

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"
)

//go:embed views
var views embed.FS

type index struct {
	page []byte
}

// newIndex renders the page once; it only depends on the node it points at.
func newIndex(build string, nodeURL string) (*index, error) {
	tmpl, err := template.ParseFS(views, "views/index.html")
	if err != nil {
		return nil, err
	}

	data := struct {
		Build   string
		NodeURL string
	}{
		Build:   build,
		NodeURL: nodeURL,
	}

	var b bytes.Buffer
	if err := tmpl.Execute(&b, data); err != nil {
		return nil, err
	}

	return &index{page: b.Bytes()}, nil
}

func (ig *index) handler(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	_, err := w.Write(ig.page)
	return err
}
