package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docsink/internal/convert"
	"github.com/dgallion1/docsink/internal/diag"
	"github.com/dgallion1/docsink/internal/parser"
	"github.com/dgallion1/docsink/internal/pipeline"
)

// convertResponse is the body of a synchronous conversion.
type convertResponse struct {
	File        string         `json:"file"`
	Format      convert.Format `json:"format"`
	Output      string         `json:"output"`
	Diagnostics []diag.Record  `json:"diagnostics"`
	Failure     string         `json:"failure,omitempty"`
	Failed      []string       `json:"failed_records,omitempty"`
	DurationMs  int64          `json:"duration_ms"`
}

// handleConvert converts one uploaded file and returns the output with its
// diagnostics. A tripped fail policy answers 422 with the output included.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	opts, err := s.requestOptions(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, status, err := s.readUpload(file)
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}

	log := s.log.With("request_id", middleware.GetReqID(r.Context()))
	res, err := convert.File(bytes.NewReader(data), filename, opts, log)
	if res == nil {
		jsonError(w, "conversion failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.orchestrator.Stats().Observe(res)

	body := convertResponse{
		File:        res.File,
		Format:      res.Format,
		Output:      string(res.Output),
		Diagnostics: res.Records,
		Failure:     res.Failure,
		DurationMs:  res.Duration.Milliseconds(),
	}
	if body.Diagnostics == nil {
		body.Diagnostics = []diag.Record{}
	}
	code := http.StatusOK
	if fe := res.FailureError(); fe != nil {
		body.Failed = fe.Messages
		code = http.StatusUnprocessableEntity
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func (s *Server) handleBatchConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	opts, err := s.requestOptions(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, 0, len(files))
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		if !parser.IsSupportedExtension(filename) {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)),
			})
			continue
		}

		data, err := s.readPart(fh)
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}

		job := pipeline.NewJob(filename, data, opts)
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}

		results = append(results, map[string]any{
			"filename":   filename,
			"job_id":     job.ID,
			"status":     pipeline.StatusQueued,
			"poll_url":   fmt.Sprintf("/api/convert/%s/status", job.ID),
			"output_url": fmt.Sprintf("/api/convert/%s/output", job.ID),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"jobs": results})
}

func (s *Server) handleConvertStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

// handleConvertOutput streams the rendered output of a finished job. Jobs
// whose fail policy tripped still serve their output, flagged by the
// X-Docsink-Status header.
func (s *Server) handleConvertOutput(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	if !snap.Status.Done() {
		jsonError(w, fmt.Sprintf("job is %s", snap.Status), http.StatusConflict)
		return
	}
	res := job.Result()
	if res == nil {
		jsonError(w, "job produced no output: "+strings.Join(snap.Errors, "; "), http.StatusGone)
		return
	}
	w.Header().Set("Content-Type", res.Format.ContentType())
	w.Header().Set("X-Docsink-Status", string(snap.Status))
	w.Write(res.Output)
}

// requestOptions layers the form fields format, fail_severity and fail_text
// over the profile. Without a policy in either, the service default applies.
func (s *Server) requestOptions(r *http.Request) (convert.Options, error) {
	opts, err := s.profile.ConvertOptions()
	if err != nil {
		return convert.Options{}, err
	}
	if !opts.Policy.Enabled() {
		if opts.Policy, err = s.cfg.Policy(); err != nil {
			return convert.Options{}, err
		}
	}
	opts.Formatter = diag.Formatter{}

	if v := r.FormValue("format"); v != "" {
		if opts.Format, err = convert.ParseFormat(v); err != nil {
			return convert.Options{}, err
		}
	}
	if v := r.FormValue("fail_severity"); v != "" {
		sev, err := diag.ParseSeverity(v)
		if err != nil {
			return convert.Options{}, fmt.Errorf("fail_severity: %w", err)
		}
		opts.Policy.Severity = sev
	}
	if v := r.FormValue("fail_text"); v != "" {
		opts.Policy.ContainsText = v
	}
	return opts, nil
}

var errTooLarge = errors.New("file exceeds max size")

func (s *Server) readUpload(f io.Reader) ([]byte, int, error) {
	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to read file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("%w (%d bytes)", errTooLarge, s.cfg.MaxUploadBytes)
	}
	return data, http.StatusOK, nil
}

func (s *Server) readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file")
	}
	defer f.Close()
	data, _, err := s.readUpload(f)
	return data, err
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
