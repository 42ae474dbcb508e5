package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/docmd/internal/bids"
	"github.com/example/docmd/internal/filestore"
	"github.com/example/docmd/internal/jobs"
	"github.com/example/docmd/internal/model"
)

const maxUploadBytes = 50 << 20

type Server struct {
	Files filestore.Store
	Jobs  *jobs.Service
	Bids  *bids.Service

	// SyncTimeout caps the blocking /v1/convert call; PollInterval is its
	// status-poll cadence.
	SyncTimeout  time.Duration
	PollInterval time.Duration
}

func (s Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(cors)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/files", s.handleUploadFile)
		r.Get("/files", s.handleListFiles)
		r.Get("/files/{id}", s.handleGetFile)
		r.Delete("/files/{id}", s.handleDeleteFile)

		r.Post("/jobs", s.handleSubmitJob)
		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{id}", s.handleGetJob)

		r.Post("/convert", s.handleConvertSync)

		r.Get("/bids", s.handleListBids)
		r.Post("/bids", s.handleCreateBid)
		r.Get("/bids/analysis", s.handleBidAnalysis)
		r.Post("/bids/clear", s.handleClearBids)
		r.Get("/bids/{id}", s.handleGetBid)
		r.Put("/bids/{id}", s.handleUpdateBid)
		r.Delete("/bids/{id}", s.handleDeleteBid)
	})

	return r
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("missing 'file' part: %w", err))
		return
	}
	defer file.Close()
	if header.Filename == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("no filename provided"))
		return
	}

	info, err := s.Files.Save(ctx, header.Filename, file)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, fmt.Errorf("store upload: %w", err))
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (s Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.Files.List(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalFiles": len(files),
		"files":      files,
	})
}

func (s Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	info, err := s.Files.Info(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Files.Delete(r.Context(), id); err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"fileId": id, "deleted": true})
}

type submitRequest struct {
	FileID string `json:"fileId"`
}

func (s Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.FileID == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("fileId is required"))
		return
	}

	jobID, err := s.Jobs.Submit(r.Context(), req.FileID)
	if err != nil {
		writeKindErr(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"jobId": jobID})
}

func (s Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.Jobs.GetStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeKindErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Jobs.List(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobIds": ids})
}

type convertRequest struct {
	FileID         string `json:"fileId"`
	TimeoutSeconds int    `json:"timeoutSeconds,omitempty"`
}

func (s Server) handleConvertSync(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.FileID == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("fileId is required"))
		return
	}

	timeout := s.SyncTimeout
	if req.TimeoutSeconds > 0 {
		requested := time.Duration(req.TimeoutSeconds) * time.Second
		if requested < timeout {
			timeout = requested
		}
	}

	job, err := s.Jobs.RunAndWait(r.Context(), req.FileID, timeout, s.PollInterval)
	if err != nil {
		writeKindErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// statusForKind maps engine error kinds onto HTTP status codes.
func statusForKind(kind model.ErrorKind) int {
	switch kind {
	case model.KindArtifactNotFound, model.KindJobNotFound:
		return http.StatusNotFound
	case model.KindUnsupportedArtifactType:
		return http.StatusBadRequest
	case model.KindBusy:
		return http.StatusTooManyRequests
	case model.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeKindErr(w http.ResponseWriter, err error) {
	if kind := model.KindOf(err); kind != "" {
		writeJSON(w, statusForKind(kind), map[string]any{
			"error": map[string]any{"kind": kind, "message": err.Error()},
		})
		return
	}
	writeErr(w, http.StatusInternalServerError, err)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{"error": err.Error()})
}
