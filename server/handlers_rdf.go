package server

import (
	"bytes"
	"net/http"

	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/graph"
	"github.com/teranos/kgbridge/triple"
)

// ImportResponse reports a successful import.
type ImportResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Format  triple.Format     `json:"format"`
	Stats   graph.ImportStats `json:"stats"`
}

// HandleImport imports an RDF body. The Content-Type header is a format
// hint; without a usable hint the payload is sniffed.
func (s *Server) HandleImport(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	s.importBody(w, r, r.Header.Get("Content-Type"))
}

// HandleImportText imports a Turtle body regardless of Content-Type.
func (s *Server) HandleImportText(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	s.importBody(w, r, triple.Turtle.ContentType())
}

func (s *Server) importBody(w http.ResponseWriter, r *http.Request, contentType string) {
	body, err := readBody(w, r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		s.handleError(w, r, errors.NewValidationError("request body is empty"))
		return
	}

	det := triple.DetectFormat(body, contentType)
	model, err := triple.Parse(r.Context(), body, det.Format)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	stats, err := s.importer.Import(r.Context(), model)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, ImportResponse{
		Success: true,
		Message: "RDF data imported successfully",
		Format:  det.Format,
		Stats:   stats,
	})
}

// HandleExport returns the store as Turtle, or N-Triples with ?format=ntriples.
func (s *Server) HandleExport(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	format := triple.Turtle
	if name := r.URL.Query().Get("format"); name != "" {
		f, err := triple.ParseFormatName(name)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		format = f
	}

	// Buffered so a failure can still become a JSON error.
	var buf bytes.Buffer
	if err := s.exporter.ExportTo(r.Context(), &buf, format); err != nil {
		s.handleError(w, r, err)
		return
	}
	writeText(w, http.StatusOK, format.ContentType(), buf.String())
}

// HandleGraphData returns a bounded snapshot of the store.
func (s *Server) HandleGraphData(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	g, err := s.projector.Snapshot(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, g)
}
