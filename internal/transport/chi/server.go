package chi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/request"
	"github.com/kailas-cloud/prodsearch/internal/logger"
	"github.com/kailas-cloud/prodsearch/internal/metrics"
	healthuc "github.com/kailas-cloud/prodsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/prodsearch/internal/usecase/search"
)

const maxBodyBytes = 1 << 20

// Server serves the search API over chi.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	return &Server{
		search:        search,
		health:        health,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Router mounts the API with the standard middleware chain.
// Empty apiKeys disables authentication.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/search", s.SearchQuery)
	r.Post("/search", s.Search)
	r.Get("/items/{id}", s.GetItem)
	r.Get("/spaces", s.ListSpaces)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}

// SearchQuery handles GET /search. Field and space weights are repeated
// "name:weight" parameters: ?q=shoes&field=product_title:1&field=product_brand:0.6
func (s *Server) SearchQuery(w http.ResponseWriter, r *http.Request) {
	var (
		req    SearchRequest
		fields []string
		spaces []string
	)
	query := r.URL.Query()
	binds := []struct {
		name string
		dest any
	}{
		{"q", &req.Query},
		{"mode", &req.Mode},
		{"top_k", &req.TopK},
		{"per_field_limit", &req.PerFieldLimit},
		{"aggregate", &req.Aggregate},
		{"truncate_after_aggregate", &req.TruncateAfterAggregate},
		{"field", &fields},
		{"space", &spaces},
	}
	for _, b := range binds {
		if err := runtime.BindQueryParameter("form", true, false, b.name, query, b.dest); err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("invalid parameter %s: %v", b.name, err))
			return
		}
	}

	var err error
	if fields != nil {
		if req.Fields, err = parseWeightEntries(fields); err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid field weight: "+err.Error())
			return
		}
	}
	if spaces != nil {
		if req.Spaces, err = parseWeightEntries(spaces); err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid space weight: "+err.Error())
			return
		}
	}
	s.runSearch(w, r, &req)
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	s.runSearch(w, r, &req)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, body *SearchRequest) {
	params, err := body.params()
	if err != nil {
		s.handleValidationError(w, err)
		return
	}
	req, err := request.New(params)
	if err != nil {
		s.handleValidationError(w, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := s.search.Handle(ctx, &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	if req.Mode() == mode.Dense {
		setEncodingHeaders(w, usage)
	}
	writeJSON(w, http.StatusOK, responseToDTO(&resp))
}

// GetItem handles GET /items/{id}.
func (s *Server) GetItem(w http.ResponseWriter, r *http.Request) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false})
	if err != nil || id == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid item id")
		return
	}

	res, err := s.search.Item(id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultToDTO(&res))
}

// ListSpaces handles GET /spaces.
func (s *Server) ListSpaces(w http.ResponseWriter, _ *http.Request) {
	infos := s.search.Spaces()
	items := make([]SpaceResponse, len(infos))
	for i, info := range infos {
		items[i] = spaceToDTO(info)
	}
	writeJSON(w, http.StatusOK, SpaceListResponse{Items: items})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setEncodingHeaders(w http.ResponseWriter, usage *domain.EncodingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Encoding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func (s *Server) handleValidationError(w http.ResponseWriter, err error) {
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
