package server

import (
	"net/http"

	"github.com/teranos/kgbridge/errors"
	"github.com/teranos/kgbridge/reasoning"
	"github.com/teranos/kgbridge/triple"
)

// transferRequest is the body of /api/reasoning/transfer-process.
type transferRequest struct {
	Data        string `json:"rdfData"`
	ContentType string `json:"contentType,omitempty"`
}

// HandleExecute runs a reasoning request and returns the full result.
func (s *Server) HandleExecute(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req reasoning.Request
	if err := readJSON(w, r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}
	res, err := s.orchestrator.Execute(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, res)
}

// HandleInferredOnly returns only the newly derived triples as Turtle.
func (s *Server) HandleInferredOnly(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req reasoning.Request
	if err := readJSON(w, r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}
	diff, err := s.orchestrator.InferredOnly(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	out, err := triple.SerializeString(r.Context(), diff, triple.Turtle, triple.SerializeOptions{})
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeText(w, http.StatusOK, triple.Turtle.ContentType(), out)
}

// HandleTransferProcess runs the transfer-process rules over the posted data.
func (s *Server) HandleTransferProcess(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req transferRequest
	if err := readJSON(w, r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}
	res, err := s.orchestrator.InferTransferProcess(r.Context(), req.Data, req.ContentType)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, res)
}

// HandleValidateRules checks a plain-text rule document. The report is
// always 200; validity is in the body.
func (s *Server) HandleValidateRules(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, reasoning.ValidateRules(string(body)))
}

// HandleExamples returns the example catalogue as name → content.
func (s *Server) HandleExamples(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	examples, err := reasoning.Examples()
	if err != nil {
		s.handleError(w, r, errors.Wrap(err, "load example catalogue"))
		return
	}
	if name := r.URL.Query().Get("name"); name != "" {
		ex, ok := examples.Get(name)
		if !ok {
			s.handleError(w, r, errors.NewNotFoundError("no example named %q", name))
			return
		}
		_ = writeJSON(w, http.StatusOK, ex)
		return
	}
	_ = writeJSON(w, http.StatusOK, examples)
}

// HandleReasonerTypes lists the reasoner types with their descriptions.
func (s *Server) HandleReasonerTypes(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	_ = writeJSON(w, http.StatusOK, map[string]interface{}{"types": reasoning.ReasonerTypes()})
}
