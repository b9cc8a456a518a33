package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"flowdiagram/app/usecase"
)

type DiagramHandler struct {
	generateService usecase.GenerateUsecase
	diagramService  usecase.DiagramUsecase
	logger          *slog.Logger
	upgrader        websocket.Upgrader

	// метрики
	reqDuration *prometheus.HistogramVec
	reqCount    *prometheus.CounterVec
	errCount    *prometheus.CounterVec
}

func NewDiagramHandler(
	generateService usecase.GenerateUsecase,
	diagramService usecase.DiagramUsecase,
	logger *slog.Logger,
	reg prometheus.Registerer,
) *DiagramHandler {

	reqDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	reqCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "path"},
	)

	errCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of HTTP request errors.",
		},
		[]string{"method", "path", "status"},
	)

	reg.MustRegister(reqDuration, reqCount, errCount)

	return &DiagramHandler{
		generateService: generateService,
		diagramService:  diagramService,
		logger:          logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		reqDuration: reqDuration,
		reqCount:    reqCount,
		errCount:    errCount,
	}
}

// Middleware для метрик
func (h *DiagramHandler) withMetrics(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := r.URL.Path
		method := r.Method

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rw, r)

		duration := time.Since(start).Seconds()
		statusStr := strconv.Itoa(rw.status)

		h.reqCount.WithLabelValues(method, path).Inc()
		h.reqDuration.WithLabelValues(method, path, statusStr).Observe(duration)

		if rw.status >= 400 {
			h.errCount.WithLabelValues(method, path, statusStr).Inc()
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (h *DiagramHandler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/generate", h.withMetrics(h.handleGenerate)).Methods(http.MethodPost)
	api.HandleFunc("/generate/live", h.handleGenerateLive).Methods(http.MethodGet)
	api.HandleFunc("/diagrams", h.withMetrics(h.handleListDiagrams)).Methods(http.MethodGet)
	api.HandleFunc("/diagrams/{id}", h.withMetrics(h.handleGetDiagram)).Methods(http.MethodGet)
	api.HandleFunc("/diagrams/{id}", h.withMetrics(h.handleDeleteDiagram)).Methods(http.MethodDelete)
	api.HandleFunc("/diagrams/{id}/download", h.withMetrics(h.handleDownloadDiagram)).Methods(http.MethodGet)
	api.HandleFunc("/health", h.withMetrics(h.handleHealth)).Methods(http.MethodGet)

	// Prometheus
	r.Handle("/metrics", promhttp.Handler())
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

type generateReq struct {
	Flow string `json:"flow"`
}

// POST /api/v1/generate
func (h *DiagramHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("bad request body: %w", err))
		return
	}

	result, err := h.generateService.Generate(r.Context(), req.Flow)
	if err != nil {
		if errors.Is(err, usecase.ErrFlowTooShort) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		h.logger.Error("generate failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GET /api/v1/generate/live
//
// Websocket variant of the generation endpoint. The client sends one
// {"flow": ...} message; the server pushes a generating frame and then
// either a done frame with the result or an error frame.
func (h *DiagramHandler) handleGenerateLive(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "err", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			h.logger.Warn("websocket close failed", "err", err)
		}
	}()

	var req generateReq
	if err := conn.ReadJSON(&req); err != nil {
		_ = conn.WriteJSON(map[string]string{"status": "error", "error": "bad request body"})
		return
	}

	if err := conn.WriteJSON(map[string]string{"status": "generating"}); err != nil {
		return
	}

	result, err := h.generateService.Generate(r.Context(), req.Flow)
	if err != nil {
		_ = conn.WriteJSON(map[string]string{"status": "error", "error": err.Error()})
		return
	}

	_ = conn.WriteJSON(map[string]string{
		"status":  "done",
		"mermaid": result.Mermaid,
		"notes":   result.Notes,
	})
}

// GET /api/v1/diagrams
func (h *DiagramHandler) handleListDiagrams(w http.ResponseWriter, r *http.Request) {
	diagrams, err := h.diagramService.ListDiagrams(r.Context())
	if err != nil {
		h.logger.Error("list diagrams failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, diagrams)
}

// GET /api/v1/diagrams/{id}
func (h *DiagramHandler) handleGetDiagram(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("id required"))
		return
	}
	diagram, err := h.diagramService.GetDiagram(r.Context(), id)
	if err != nil {
		h.logger.Error("get diagram failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if diagram == nil {
		writeError(w, http.StatusNotFound, errors.New("diagram not found"))
		return
	}
	writeJSON(w, http.StatusOK, diagram)
}

// DELETE /api/v1/diagrams/{id}
func (h *DiagramHandler) handleDeleteDiagram(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("id required"))
		return
	}
	if err := h.diagramService.DeleteDiagram(r.Context(), id); err != nil {
		h.logger.Error("delete diagram failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// GET /api/v1/diagrams/{id}/download
func (h *DiagramHandler) handleDownloadDiagram(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("id required"))
		return
	}
	text, err := h.diagramService.ExportText(r.Context(), id)
	if err != nil {
		h.logger.Error("export diagram failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if text == "" {
		writeError(w, http.StatusNotFound, errors.New("diagram not found"))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\"payment-flow-"+id+".txt\"")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

// GET /api/v1/health
func (h *DiagramHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"ok": true,
		"ts": time.Now().UTC(),
	}
	writeJSON(w, http.StatusOK, status)
}
