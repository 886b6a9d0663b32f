package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"fcd/internal/core"
	"fcd/internal/ledger"
)

const (
	maxEntryBody = 1 << 20  // 1 MiB of JSON is already generous
	maxSlipBody  = 10 << 20 // slip photos
)

const (
	entriesCacheKey = "entries"
	statsCacheKey   = "stats"
)

type errorResponse struct {
	Error string `json:"error"`
}

type entriesResponse struct {
	Entries []core.Entry `json:"entries"`
	Count   int          `json:"count"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListEntries(w, r)
	case http.MethodPost:
		s.handleCreateEntry(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxEntryBody)

	var draft core.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		slog.ErrorContext(r.Context(), "Failed to decode entry draft", "error", err)
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	entry, err := s.service.Create(r.Context(), draft)
	if err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusUnprocessableEntity, verr.Reason)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to create entry", "error", err, "tx_type", string(draft.Type))
		writeError(w, http.StatusInternalServerError, "failed to save entry")
		return
	}

	// Derived reads are stale the moment a write lands.
	s.entriesCache.Purge()
	s.statsCache.Purge()

	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	if entries, found := s.entriesCache.Get(entriesCacheKey); found {
		slog.DebugContext(r.Context(), "Entries cache hit", "count", len(entries))
		writeJSON(w, http.StatusOK, entriesResponse{Entries: entries, Count: len(entries)})
		return
	}

	entries, err := s.lister.ListEntries(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list entries", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load entries")
		return
	}
	if entries == nil {
		entries = []core.Entry{}
	}

	s.entriesCache.Set(entriesCacheKey, entries)
	writeJSON(w, http.StatusOK, entriesResponse{Entries: entries, Count: len(entries)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if stats, found := s.statsCache.Get(statsCacheKey); found {
		slog.DebugContext(r.Context(), "Stats cache hit")
		writeJSON(w, http.StatusOK, stats)
		return
	}

	entries, err := s.lister.ListEntries(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list entries for stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}

	stats := core.Compute(entries)
	s.statsCache.Set(statsCacheKey, stats)
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleExtractSlip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.extractor == nil {
		writeError(w, http.StatusServiceUnavailable, "slip extraction is disabled")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSlipBody)
	if err := r.ParseMultipartForm(maxSlipBody); err != nil {
		slog.ErrorContext(r.Context(), "Failed to parse slip upload", "error", err)
		writeError(w, http.StatusBadRequest, "expected multipart upload with a slip file")
		return
	}

	file, _, err := r.FormFile("slip")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing slip file")
		return
	}
	defer func() { _ = file.Close() }()

	image, err := io.ReadAll(file)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to read slip upload", "error", err)
		writeError(w, http.StatusBadRequest, "unreadable slip file")
		return
	}

	fields, err := s.extractor.Extract(r.Context(), image)
	if err != nil {
		if errors.Is(err, ledger.ErrNoFields) {
			writeError(w, http.StatusUnprocessableEntity, "no usable fields found on slip")
			return
		}
		slog.ErrorContext(r.Context(), "Slip extraction failed", "error", err)
		writeError(w, http.StatusBadGateway, "slip extraction failed")
		return
	}

	writeJSON(w, http.StatusOK, fields)
}
