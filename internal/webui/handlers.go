package webui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/linkmap-analysis/internal/parser"
	"github.com/linkmap-analysis/internal/parser/linkmap"
	"github.com/linkmap-analysis/pkg/compression"
	apperrors "github.com/linkmap-analysis/pkg/errors"
	"github.com/linkmap-analysis/pkg/model"
	"github.com/linkmap-analysis/pkg/telemetry"
)

// snapshot is the map file as read for one request.
type snapshot struct {
	doc    *linkmap.Document
	report *model.MapReport
}

// load reads the map file again so every request sees its current content.
func (s *Server) load(ctx context.Context) (*snapshot, error) {
	ctx, span := telemetry.StartSpan(ctx, "webui.load")
	defer span.End()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = apperrors.New(apperrors.CodeNotFound, "map file not found: "+s.path)
		} else {
			err = apperrors.Wrap(apperrors.CodeReadError, "failed to open map file", err)
		}
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer f.Close()

	r, _, err := compression.NewReader(f)
	if err != nil {
		err = apperrors.Wrap(apperrors.CodeReadError, "failed to open map file", err)
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer r.Close()

	doc, err := s.opts.Parser.ParseDocument(ctx, r)
	if err != nil {
		code := apperrors.CodeReadError
		if errors.Is(err, parser.ErrInputTooLarge) {
			code = apperrors.CodeTooLarge
		}
		err = apperrors.Wrap(code, "failed to read map file", err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	snap := &snapshot{doc: doc}
	if s.opts.Cache != nil {
		snap.report, _ = s.opts.Cache.Report(s.path, doc.Text())
	} else {
		snap.report = doc.Report(s.path)
	}
	return snap, nil
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := apperrors.GetErrorCode(err)
	if code == apperrors.CodeNotFound {
		status = http.StatusNotFound
	} else {
		s.logger.Error("Request failed: %v", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

// withSnapshot loads the map file and hands it to fn, answering errors itself.
func (s *Server) withSnapshot(w http.ResponseWriter, r *http.Request, fn func(*snapshot)) {
	snap, err := s.load(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	fn(snap)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "source": s.path})
}

type memoryResponse struct {
	Regions []model.MemoryRegion `json:"regions"`
	Stats   model.MemoryStats    `json:"stats"`
}

func (s *Server) handleMemory(w http.ResponseWriter, r *http.Request) {
	s.withSnapshot(w, r, func(snap *snapshot) {
		s.writeJSON(w, http.StatusOK, memoryResponse{Regions: snap.report.Regions, Stats: snap.report.Stats})
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.withSnapshot(w, r, func(snap *snapshot) {
		s.writeJSON(w, http.StatusOK, snap.report.Stats)
	})
}

// handleSymbols lists symbols, filtered by ?section= when given.
func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	s.withSnapshot(w, r, func(snap *snapshot) {
		if section := r.URL.Query().Get("section"); section != "" {
			s.writeJSON(w, http.StatusOK, snap.doc.SymbolsInSection(section))
			return
		}
		s.writeJSON(w, http.StatusOK, snap.report.Symbols)
	})
}

func (s *Server) handleSymbol(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	s.withSnapshot(w, r, func(snap *snapshot) {
		loc, ok := snap.doc.Locate(name)
		if !ok {
			s.writeError(w, apperrors.New(apperrors.CodeNotFound, "symbol not found: "+name))
			return
		}
		s.writeJSON(w, http.StatusOK, loc)
	})
}

// handleSections lists linked sections, filtered by ?output_section= when given.
func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	s.withSnapshot(w, r, func(snap *snapshot) {
		s.writeJSON(w, http.StatusOK, snap.report.SectionsByOutput(r.URL.Query().Get("output_section")))
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	s.withSnapshot(w, r, func(snap *snapshot) {
		s.writeJSON(w, http.StatusOK, snap.report)
	})
}
