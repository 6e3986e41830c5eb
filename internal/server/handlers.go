package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cursor2d/cursor2d/pkg/errors"
	"github.com/cursor2d/cursor2d/pkg/pipeline"
	"github.com/cursor2d/cursor2d/pkg/target"
)

// maxBodyBytes bounds request bodies; scripts are bounded separately.
const maxBodyBytes = 2 * errors.MaxScriptBytes

type renderRequest struct {
	Script  string `json:"script"`
	Library string `json:"library"`
}

type generateRequest struct {
	Prompt  string `json:"prompt"`
	Library string `json:"library"`
}

// renderResponse is the body of a successful render or generate call.
type renderResponse struct {
	Msg              string `json:"msg"`
	Library          string `json:"library"`
	OutputURL        string `json:"outputUrl"`
	Prompt           string `json:"prompt,omitempty"`
	GeneratedOutput  string `json:"generatedOutput"`
	NormalizedOutput string `json:"normalizedOutput"`
	Status           string `json:"status"`
	JobID            string `json:"jobId"`
	Cached           bool   `json:"cached"`
}

type errorResponse struct {
	Msg     string `json:"msg"`
	Code    string `json:"code,omitempty"`
	Pattern string `json:"pattern,omitempty"`
	JobID   string `json:"jobId,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"msg":         "Cursor-2D Backend API",
		"status":      "running",
		"environment": s.opts.Env,
		"version":     s.opts.Version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"service":   ServiceName,
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, "", err)
		return
	}
	s.execute(w, r, "Render completed", req.Library, "", req.Script)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, "", err)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		s.writeError(w, "", errors.New(errors.ErrCodeInvalidInput, "Prompt is required"))
		return
	}
	if s.generator == nil {
		s.writeError(w, "", errors.New(errors.ErrCodeUnsupported, "no script generator configured"))
		return
	}
	t, err := target.Parse(req.Library)
	if err != nil {
		s.writeError(w, "", err)
		return
	}

	script, err := s.generator.Generate(r.Context(), req.Prompt, t)
	if err != nil {
		s.logger.Error("generation failed", "target", t, "err", err)
		s.writeError(w, "", errors.Wrap(errors.ErrCodeInternal, err, "Failed to generate animation"))
		return
	}
	s.execute(w, r, "Generated completed", t.String(), req.Prompt, script)
}

// execute runs the pipeline and writes the response.
func (s *Server) execute(w http.ResponseWriter, r *http.Request, msg, library, prompt, script string) {
	id := uuid.NewString()
	res, err := s.runner.Execute(r.Context(), pipeline.Options{
		Target: library,
		Script: script,
		JobID:  id,
	})
	if err != nil {
		s.writeError(w, recordedID(id, err), err)
		return
	}

	writeJSON(w, http.StatusOK, renderResponse{
		Msg:              msg,
		Library:          res.Target.String(),
		OutputURL:        res.URL,
		Prompt:           prompt,
		GeneratedOutput:  script,
		NormalizedOutput: res.Normalized,
		Status:           "completed",
		JobID:            res.JobID,
		Cached:           res.CacheInfo.RenderHit,
	})
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	if s.runner.Jobs == nil {
		s.writeError(w, "", errors.New(errors.ErrCodeUnsupported, "job records are disabled"))
		return
	}
	rec, err := s.runner.Jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// recordedID returns id when the failed run left a job record behind.
func recordedID(id string, err error) string {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidTarget, errors.ErrCodeUnsupported:
		return ""
	}
	return id
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid JSON body")
	}
	return nil
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidTarget, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeBannedPattern:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, jobID string, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", code, "job", jobID, "err", err)
	}

	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		// Engine output stays in the job record.
		msg = "Failed to generate animation"
	}
	resp := errorResponse{
		Msg:   msg,
		Code:  string(code),
		JobID: jobID,
	}
	if d, ok := errors.GetDiagnostics(err); ok {
		resp.Pattern = d.Pattern
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
