package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RyanBlaney/sonido-genre/logging"
	"github.com/RyanBlaney/sonido-genre/pipeline"
	"github.com/RyanBlaney/sonido-genre/transcode"
)

// DefaultMaxUploadBytes caps the size of an uploaded file
const DefaultMaxUploadBytes int64 = 10 << 20

// multipartOverhead is allowed on top of the file size for boundaries and part headers
const multipartOverhead int64 = 64 << 10

// AllowedTypes lists the accepted upload content types
var AllowedTypes = []string{
	"audio/mpeg",
	"audio/wav",
	"audio/x-wav",
	"audio/wave",
	"audio/ogg",
	"audio/mp4",
}

// Response messages
const (
	msgMethodNotAllowed = "Method Not Allowed"
	msgNoFile           = "No file uploaded"
	msgInvalidType      = "Invalid file type. Please upload an audio file (MP3, WAV, OGG, M4A)"
	msgTooLarge         = "File too large"
	msgProcessing       = "Error processing audio file"
)

// Analyzer runs the genre analysis on a file on disk
type Analyzer interface {
	Analyze(ctx context.Context, path string) (*pipeline.Result, error)
}

// Config holds HTTP server settings
type Config struct {
	Addr            string
	MaxUploadBytes  int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TempDir         string
}

// Server accepts audio uploads and answers with the analysis result
type Server struct {
	config   Config
	analyzer Analyzer
	logger   logging.Logger
}

// New creates a server. Zero-valued config fields get defaults.
func New(config Config, analyzer Analyzer, logger logging.Logger) *Server {
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}
	if config.TempDir == "" {
		config.TempDir = os.TempDir()
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Server{
		config:   config,
		analyzer: analyzer,
		logger:   logger.WithFields(logging.Fields{"component": "upload_server"}),
	}
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/analyze", s.handleAnalyze)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Upload server listening", logging.Fields{"addr": ln.Addr().String()})
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down upload server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	requestID := uuid.NewString()
	logger := s.logger.WithFields(logging.Fields{
		"function":   "handleAnalyze",
		"request_id": requestID,
	})

	limit := s.config.MaxUploadBytes + multipartOverhead
	if r.ContentLength > limit {
		writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, limit)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
		default:
			writeError(w, http.StatusBadRequest, msgNoFile)
		}
		logger.Debug("Rejected upload", logging.Fields{"reason": err.Error()})
		return
	}
	defer file.Close()

	if header.Size > s.config.MaxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !allowedType(contentType) {
		logger.Debug("Rejected upload type", logging.Fields{"content_type": contentType})
		writeError(w, http.StatusBadRequest, msgInvalidType)
		return
	}

	path, err := s.spool(file, header.Filename)
	if err != nil {
		logger.Error(err, "Failed to store upload")
		writeError(w, http.StatusInternalServerError, msgProcessing)
		return
	}
	defer os.Remove(path)

	logger.Info("Analyzing upload", logging.Fields{
		"filename":     header.Filename,
		"size":         header.Size,
		"content_type": contentType,
	})

	result, err := s.analyzer.Analyze(r.Context(), path)
	if err != nil {
		logger.Error(err, "Analysis failed", logging.Fields{"kind": pipeline.Kind(err)})
		writeError(w, http.StatusInternalServerError, msgProcessing)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// spool copies the upload into a temp file, keeping the extension so the
// decoder can use it as a format hint
func (s *Server) spool(src io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if !slices.Contains(transcode.SupportedFormats(), strings.TrimPrefix(ext, ".")) {
		ext = ""
	}

	dst, err := os.CreateTemp(s.config.TempDir, "upload-*"+ext)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

func allowedType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return slices.Contains(AllowedTypes, mediaType)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, pipeline.ErrorResult{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
