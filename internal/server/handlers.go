package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/olivier-w/enchordify/internal/analysis"
	"github.com/olivier-w/enchordify/internal/media"
	"github.com/olivier-w/enchordify/internal/timeline"
)

const (
	msgNoFiles     = "No files were uploaded"
	msgNoFilePart  = "No file part was included"
	msgNoFilename  = "No filename was included"
	msgNotAllowed  = "File type not allowed"
	msgTooLarge    = "File too large"
	msgNotUploaded = "File was not uploaded"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// secureFilename reduces name to a flat ASCII file name that is safe to
// join onto the upload directory. It may return "".
func secureFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.Join(strings.Fields(strings.ReplaceAll(name, "/", " ")), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// parseUpload reads the multipart form, mapping an oversized body to 413.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) bool {
	if s.opts.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if isTooLarge(err) {
			http.Error(w, msgTooLarge, http.StatusRequestEntityTooLarge)
			return false
		}
		if errors.Is(err, http.ErrNotMultipart) {
			http.Error(w, msgNoFiles, http.StatusBadRequest)
			return false
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large")
}

func (s *Server) save(hdr *multipart.FileHeader, name string) (string, error) {
	src, err := hdr.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(s.opts.UploadDir, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(s.opts.UploadDir, name)
	dst, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dest)
		return "", err
	}
	return dest, dst.Close()
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !s.parseUpload(w, r) {
		return
	}
	log := requestLog(r, s.log)

	files := r.MultipartForm.File
	if len(files) == 0 {
		http.Error(w, msgNoFiles, http.StatusBadRequest)
		return
	}
	for _, hdrs := range files {
		for _, hdr := range hdrs {
			name := secureFilename(hdr.Filename)
			if name == "" || !media.IsUploadAllowed(name) {
				http.Error(w, msgNotAllowed, http.StatusBadRequest)
				return
			}
			dest, err := s.save(hdr, name)
			if err != nil {
				log.Error("saving upload", zap.String("file", name), zap.Error(err))
				http.Error(w, "could not store upload", http.StatusInternalServerError)
				return
			}
			log.Info("stored upload", zap.String("path", dest), zap.Int64("bytes", hdr.Size))
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !s.parseUpload(w, r) {
		return
	}

	form := r.MultipartForm
	hdrs := form.File["file"]
	if len(hdrs) == 0 {
		// A file part sent with an empty filename is parsed as a plain value.
		if _, ok := form.Value["file"]; ok {
			http.Error(w, msgNoFilename, http.StatusBadRequest)
			return
		}
		if len(form.File) == 0 {
			http.Error(w, msgNoFiles, http.StatusBadRequest)
			return
		}
		http.Error(w, msgNoFilePart, http.StatusBadRequest)
		return
	}
	hdr := hdrs[0]
	if hdr.Filename == "" {
		http.Error(w, msgNoFilename, http.StatusBadRequest)
		return
	}
	name := secureFilename(hdr.Filename)
	if !media.IsUploadAllowed(name) {
		http.Error(w, msgNotAllowed, http.StatusBadRequest)
		return
	}

	dest, err := s.save(hdr, name)
	if err != nil {
		requestLog(r, s.log).Error("saving upload", zap.String("file", name), zap.Error(err))
		http.Error(w, "could not store upload", http.StatusInternalServerError)
		return
	}
	s.analyze(w, r, dest)
}

// maxJSONBody caps the /analyze/uploaded request body.
const maxJSONBody = 64 << 10

type uploadedRequest struct {
	File *string `json:"file"`
}

func (s *Server) handleAnalyzeUploaded(w http.ResponseWriter, r *http.Request) {
	var req uploadedRequest
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		if isTooLarge(err) {
			http.Error(w, msgTooLarge, http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, fmt.Sprintf("invalid JSON body: %v", err), http.StatusBadRequest)
		return
	}
	if req.File == nil {
		http.Error(w, msgNoFilename, http.StatusBadRequest)
		return
	}
	name := secureFilename(*req.File)
	if name == "" {
		http.Error(w, msgNoFilename, http.StatusBadRequest)
		return
	}
	path := filepath.Join(s.opts.UploadDir, name)
	if _, err := os.Stat(path); err != nil {
		http.Error(w, msgNotUploaded, http.StatusNotFound)
		return
	}
	s.analyze(w, r, path)
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request, path string) {
	log := requestLog(r, s.log)

	records, err := s.analyzer.Analyze(r.Context(), path)
	if err != nil {
		log.Warn("analysis failed", zap.String("path", path), zap.Error(err))
		var f *analysis.Failure
		if errors.As(err, &f) {
			err = f.Err
		}
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	records = analysis.Refine(records)
	if _, err := timeline.FromRecords(records); err != nil {
		log.Warn("analyzer returned an invalid timeline", zap.String("path", path), zap.Error(err))
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if records == nil {
		records = []timeline.Record{}
	}
	log.Info("analyzed", zap.String("path", path), zap.Int("chords", len(records)))

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(records)
}
