package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"buyersdesk/agent"
	"buyersdesk/brief"
	"buyersdesk/listing"
	"buyersdesk/query"
	"buyersdesk/search"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type listingService interface {
	Search(ctx context.Context, filters listing.Filters) (listing.SearchResult, error)
	Get(ctx context.Context, id string) (listing.Record, error)
	Create(ctx context.Context, params listing.CreateParams) (listing.Record, error)
	Update(ctx context.Context, id string, params listing.CreateParams) (listing.Record, error)
	SoftDelete(ctx context.Context, id string) (listing.Record, error)
	Restore(ctx context.Context, id string) (listing.Record, error)
	SetDecision(ctx context.Context, id string, decision listing.Decision) (listing.Record, error)
}

type briefService interface {
	Create(ctx context.Context, params brief.CreateParams) (brief.Brief, error)
	List(ctx context.Context, filters brief.Filters) (brief.ListResult, error)
	Get(ctx context.Context, id string) (brief.Brief, error)
	Close(ctx context.Context, id string) (brief.Brief, error)
}

type Server struct {
	listingService listingService
	agentService   *agent.Service
	briefService   briefService
	logger         *zap.Logger
}

func NewServer(listings listingService, agents *agent.Service, briefs briefService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		listingService: listings,
		agentService:   agents,
		briefService:   briefs,
		logger:         logger,
	}
}

func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/listings/search", s.handleSearch).Methods(http.MethodPost)
	api.HandleFunc("/listings", s.handleCreateListing).Methods(http.MethodPost)
	api.HandleFunc("/listings/{id}", s.handleListing).Methods(http.MethodGet, http.MethodPut, http.MethodDelete)
	api.HandleFunc("/listings/{id}/restore", s.handleRestoreListing).Methods(http.MethodPost)
	api.HandleFunc("/listings/{id}/decision", s.handleDecision).Methods(http.MethodPut)

	api.HandleFunc("/agents", s.handleAgents).Methods(http.MethodGet)
	api.HandleFunc("/agents/{id}", s.handleAgent).Methods(http.MethodGet)

	api.HandleFunc("/briefs", s.handleBriefs).Methods(http.MethodGet, http.MethodPost)
	api.HandleFunc("/briefs/{id}/close", s.handleCloseBrief).Methods(http.MethodPost)
	api.HandleFunc("/briefs/{id}/listings", s.handleBriefListings).Methods(http.MethodGet)

	r.Use(s.logRequests)
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(started)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req search.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid search body")
		return
	}

	state := req.State()
	filters := state.Filters()
	res, err := s.listingService.Search(r.Context(), filters)
	if err != nil {
		s.logger.Error("listing search", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, search.NewResponse(query.ResultPage{
		Items:      res.Items,
		TotalCount: res.TotalCount,
		TotalPages: query.PageCount(res.TotalCount, filters.PageSize),
		AllCount:   res.AllCount,
	}))
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		writeError(w, http.StatusBadRequest, "listing id required")
		return
	}

	var (
		rec listing.Record
		err error
	)
	switch r.Method {
	case http.MethodGet:
		rec, err = s.listingService.Get(r.Context(), id)
	case http.MethodPut:
		var body listingRequest
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid listing body")
			return
		}
		params, perr := body.params()
		if perr != nil {
			writeError(w, http.StatusBadRequest, perr.Error())
			return
		}
		rec, err = s.listingService.Update(r.Context(), id, params)
	case http.MethodDelete:
		rec, err = s.listingService.SoftDelete(r.Context(), id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err != nil {
		s.writeListingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	var body listingRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid listing body")
		return
	}
	params, err := body.params()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := s.listingService.Create(r.Context(), params)
	if err != nil {
		s.writeListingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleRestoreListing(w http.ResponseWriter, r *http.Request) {
	rec, err := s.listingService.Restore(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeListingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Decision string `json:"decision"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid decision body")
		return
	}
	rec, err := s.listingService.SetDecision(r.Context(), mux.Vars(r)["id"], listing.Decision(body.Decision))
	if err != nil {
		s.writeListingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) writeListingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, listing.ErrNotFound):
		writeError(w, http.StatusNotFound, "listing not found")
	case errors.Is(err, listing.ErrInvalidInput),
		errors.Is(err, listing.ErrInvalidStatus),
		errors.Is(err, listing.ErrInvalidDecision):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("listing request", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	profiles, err := s.agentService.List(r.Context(), r.URL.Query().Get("agency"), limit)
	if err != nil {
		s.logger.Error("list agents", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	items := make([]agentResponse, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, newAgentResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		writeError(w, http.StatusBadRequest, "agent id required")
		return
	}
	profile, err := s.agentService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, agent.ErrNotFound) {
			writeError(w, http.StatusNotFound, "agent not found")
			return
		}
		s.logger.Error("get agent", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, newAgentResponse(profile))
}

func (s *Server) handleBriefs(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		s.handleCreateBrief(w, r)
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	res, err := s.briefService.List(r.Context(), brief.Filters{
		Status:    brief.Status(q.Get("status")),
		Region:    q.Get("region"),
		Page:      page,
		PageSize:  pageSize,
		SortKey:   q.Get("sortKey"),
		SortOrder: q.Get("sortOrder"),
	})
	if err != nil {
		s.writeBriefError(w, err)
		return
	}

	items := make([]briefResponse, 0, len(res.Items))
	for _, b := range res.Items {
		items = append(items, newBriefResponse(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": res.Total})
}

func (s *Server) handleCreateBrief(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ClientName   string   `json:"clientName"`
		Regions      []string `json:"regions"`
		PriceMin     int64    `json:"priceMin"`
		PriceMax     int64    `json:"priceMax"`
		PropertyType string   `json:"propertyType"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid brief body")
		return
	}
	b, err := s.briefService.Create(r.Context(), brief.CreateParams{
		ClientName:   body.ClientName,
		Regions:      body.Regions,
		PriceMin:     body.PriceMin,
		PriceMax:     body.PriceMax,
		PropertyType: body.PropertyType,
	})
	if err != nil {
		s.writeBriefError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newBriefResponse(b))
}

func (s *Server) handleCloseBrief(w http.ResponseWriter, r *http.Request) {
	b, err := s.briefService.Close(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeBriefError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newBriefResponse(b))
}

// handleBriefListings runs the brief's listing query. page and pageSize
// query parameters page through it.
func (s *Server) handleBriefListings(w http.ResponseWriter, r *http.Request) {
	b, err := s.briefService.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeBriefError(w, err)
		return
	}

	state := b.ListingQuery()
	state.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	state.PageSize, _ = strconv.Atoi(r.URL.Query().Get("pageSize"))
	filters := state.Normalize().Filters()

	res, err := s.listingService.Search(r.Context(), filters)
	if err != nil {
		s.logger.Error("brief listings", zap.String("brief", b.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, search.NewResponse(query.ResultPage{
		Items:      res.Items,
		TotalCount: res.TotalCount,
		TotalPages: query.PageCount(res.TotalCount, filters.PageSize),
		AllCount:   res.AllCount,
	}))
}

func (s *Server) writeBriefError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, brief.ErrNotFound):
		writeError(w, http.StatusNotFound, "brief not found")
	case errors.Is(err, brief.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, brief.ErrAlreadyClosed):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("brief request", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
