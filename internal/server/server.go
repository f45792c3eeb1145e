// Package server exposes uploads and job outputs over HTTP. It writes only
// into uploads/ and only reads from outputs/.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/deva-0608/dataslide/internal/dataset"
	"github.com/deva-0608/dataslide/internal/deck"
	"github.com/deva-0608/dataslide/internal/jobs"
)

// Options configures the HTTP layer.
type Options struct {
	// MaxUploadBytes caps the request body of POST /upload.
	MaxUploadBytes int64
	// NewID returns a fresh job id; defaults to the first 8 characters of a UUID.
	NewID func() string
}

// Server serves the REST surface over a job store.
type Server struct {
	store *jobs.Store
	log   *zap.Logger
	opt   Options
}

// New creates a Server. A nil logger disables request logging.
func New(store *jobs.Store, log *zap.Logger, opt Options) *Server {
	if opt.MaxUploadBytes <= 0 {
		opt.MaxUploadBytes = 50 << 20
	}
	if opt.NewID == nil {
		opt.NewID = func() string { return uuid.NewString()[:8] }
	}
	return &Server{store: store, log: log, opt: opt}
}

// downloadable lists the artifacts GET /download may return.
var downloadable = map[string]bool{
	jobs.DescriptionFile:     true,
	jobs.InsightsFile:        true,
	jobs.FeatureInsightsFile: true,
	deck.ManifestFile:        true,
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.home).Methods(http.MethodGet)
	r.HandleFunc("/upload", s.upload).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/status/{job_id:[A-Za-z0-9_-]+}", s.status).Methods(http.MethodGet)
	r.HandleFunc("/preview/{job_id:[A-Za-z0-9_-]+}", s.preview).Methods(http.MethodGet)
	r.HandleFunc("/download/{job_id:[A-Za-z0-9_-]+}/{artifact}", s.download).Methods(http.MethodGet)
	r.HandleFunc("/download/{job_id:[A-Za-z0-9_-]+}/plots/{file}", s.downloadPlot).Methods(http.MethodGet)
	r.Use(corsMiddleware, RequestLogger(s.log))
	return r
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		if s.log != nil {
			s.log.Info("http server listening", zap.String("addr", addr))
		}
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "dataslide is running", "status": "ok"})
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.opt.MaxUploadBytes)
	file, hdr, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "Upload exceeds the size limit.")
			return
		}
		writeError(w, http.StatusBadRequest, "No file uploaded.")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(hdr.Filename))
	if !uploadable(ext) {
		writeError(w, http.StatusBadRequest, "Please upload a CSV or Excel file.")
		return
	}
	id := s.opt.NewID()
	if _, err := s.store.SaveUpload(id, ext, file); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "Upload exceeds the size limit.")
			return
		}
		if s.log != nil {
			s.log.Error("save upload", zap.String("job_id", id), zap.Error(err))
		}
		writeError(w, http.StatusInternalServerError, "Could not store the upload.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"job_id": id, "filename": hdr.Filename})
}

func uploadable(ext string) bool {
	for _, e := range dataset.SupportedExtensions() {
		if ext == e {
			return true
		}
	}
	return false
}

// StatusResponse is the body of GET /status/{job_id}.
type StatusResponse struct {
	Status      string         `json:"status"`
	JobID       string         `json:"job_id"`
	SlideCount  *int           `json:"slide_count,omitempty"`
	Preview     *deck.Manifest `json:"preview,omitempty"`
	DownloadURL string         `json:"download_url,omitempty"`
	Error       *jobs.Failure  `json:"error,omitempty"`
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["job_id"]
	if !s.store.JobExists(id) {
		writeError(w, http.StatusNotFound, "Job not found.")
		return
	}
	resp := StatusResponse{Status: "pending", JobID: id}
	st, ok, err := s.store.ReadStatus(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Unreadable job status.")
		return
	}
	switch {
	case !ok:
	case st == jobs.Completed:
		m := s.manifest(id)
		n := len(m.Slides)
		resp.Status, resp.SlideCount, resp.Preview = "ready", &n, m
		resp.DownloadURL = path.Join("/download", id, jobs.DescriptionFile)
	case st == jobs.Failed:
		resp.Status = string(st)
		if f, ok, err := s.store.ReadFailure(id); err == nil && ok {
			resp.Error = f
		}
	default:
		resp.Status = string(st)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) preview(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["job_id"]
	st, ok, err := s.store.ReadStatus(id)
	if err != nil || !ok || st != jobs.Completed {
		writeJSON(w, http.StatusOK, map[string]string{"status": "pending"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "preview": s.manifest(id)})
}

// manifest reads preview.json, falling back to a single placeholder slide.
func (s *Server) manifest(id string) *deck.Manifest {
	b, err := s.store.ReadArtifact(id, deck.ManifestFile)
	if err == nil {
		var m deck.Manifest
		if json.Unmarshal(b, &m) == nil {
			return &m
		}
	}
	return &deck.Manifest{JobID: id, Slides: []deck.Slide{{Title: "Data Presentation", Subtitle: "Generated for job " + id}}}
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if !downloadable[vars["artifact"]] {
		writeError(w, http.StatusNotFound, "Unknown artifact.")
		return
	}
	s.serveArtifact(w, r, vars["job_id"], vars["artifact"])
}

func (s *Server) downloadPlot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	file := vars["file"]
	if !strings.EqualFold(filepath.Ext(file), ".png") || strings.HasPrefix(file, ".") {
		writeError(w, http.StatusNotFound, "Unknown artifact.")
		return
	}
	s.serveArtifact(w, r, vars["job_id"], path.Join(jobs.PlotsDir, file))
}

func (s *Server) serveArtifact(w http.ResponseWriter, r *http.Request, id, name string) {
	f, err := s.store.OpenArtifact(id, name)
	if err != nil {
		writeError(w, http.StatusNotFound, "Artifact not found yet.")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, "Artifact not found yet.")
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+"_"+path.Base(name)))
	http.ServeContent(w, r, path.Base(name), info.ModTime(), f)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

// RequestLogger returns middleware that logs HTTP requests at DEBUG level.
// A nil logger disables it.
func RequestLogger(log *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if log == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)
			log.Debug("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", m.Code),
				zap.Int64("bytes", m.Written),
				zap.Duration("duration", m.Duration),
				zap.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}
