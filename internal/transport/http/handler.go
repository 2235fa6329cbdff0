package httptransport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"stats-service/internal/entity"
	"stats-service/internal/service"
	"stats-service/internal/stats"
)

type Handler struct {
	disp   *service.Dispatcher
	ds     *stats.Dataset
	logger *slog.Logger
}

func NewHandler(disp *service.Dispatcher, ds *stats.Dataset, logger *slog.Logger) *Handler {
	return &Handler{disp: disp, ds: ds, logger: logger}
}

type queryRequestDTO struct {
	Question string `json:"question"`
	State    string `json:"state,omitempty"`
}

type submitResp struct {
	JobID int64 `json:"job_id"`
}

type resultResp struct {
	Status entity.JobStatus `json:"status"`
	Data   json.RawMessage  `json:"data"`
}

type resultErrorResp struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type jobStatusResp struct {
	Status entity.JobStatus `json:"status"`
}

type numJobsResp struct {
	NumJobs int `json:"num_jobs"`
}

type messageResp struct {
	Message string `json:"message"`
}

// SubmitQuery godoc
// @Summary Submit a statistics query
// @Description Queues the named query as a background job and returns its id. Poll /api/get_results/{job_id}.
// @Tags queries
// @Accept json
// @Produce json
// @Param query path string true "query name (states_mean, state_mean, best5, worst5, global_mean, diff_from_mean, state_diff_from_mean, mean_by_category, state_mean_by_category)"
// @Param request body queryRequestDTO true "question (and state for per-state queries)"
// @Success 200 {object} submitResp
// @Failure 400 {object} apiError
// @Failure 503 {object} apiError
// @Router /api/{query} [post]
func (h *Handler) SubmitQuery(q stats.Query) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var dto queryRequestDTO
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid json")
			return
		}

		req := stats.Request{Question: dto.Question, State: dto.State}
		if err := req.Validate(q); err != nil {
			h.logger.Warn("query rejected",
				slog.String("query", q.Name),
				slog.String("error", err.Error()),
			)
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}

		payload, err := json.Marshal(req)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "invalid input")
			return
		}

		id, err := h.disp.Submit(payload, h.ds.Computation(q))
		if err != nil {
			if errors.Is(err, entity.ErrRejected) {
				writeErr(w, http.StatusServiceUnavailable, err.Error())
				return
			}
			h.logger.Error("submit failed", slog.String("query", q.Name), slog.String("error", err.Error()))
			writeErr(w, http.StatusInternalServerError, "submit failed")
			return
		}

		h.logger.Info("job queued",
			slog.String("job_id", id.String()),
			slog.String("query", q.Name),
		)
		writeJSON(w, http.StatusOK, submitResp{JobID: int64(id)})
	}
}

// GetResults godoc
// @Summary Get job status and result
// @Tags jobs
// @Produce json
// @Param job_id path integer true "job id"
// @Success 200 {object} resultResp
// @Failure 500 {object} apiError
// @Router /api/get_results/{job_id} [get]
func (h *Handler) GetResults(w http.ResponseWriter, r *http.Request) {
	id, err := entity.ParseJobID(chi.URLParam(r, "job_id"))
	if err != nil {
		writeJSON(w, http.StatusOK, resultErrorResp{Status: "error", Reason: "Invalid job_id"})
		return
	}

	st, err := h.disp.QueryStatus(r.Context(), id)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) && st.Status == entity.StatusNotFound {
			writeJSON(w, http.StatusOK, resultErrorResp{Status: "error", Reason: "Invalid job_id"})
			return
		}
		h.logger.Error("load result failed", slog.String("job_id", id.String()), slog.String("error", err.Error()))
		writeErr(w, http.StatusInternalServerError, "result unavailable")
		return
	}

	writeJSON(w, http.StatusOK, resultResp{Status: st.Status, Data: st.Result})
}

// GracefulShutdown godoc
// @Summary Stop accepting jobs and wait for queued jobs to finish
// @Tags admin
// @Produce json
// @Success 200 {object} messageResp
// @Failure 500 {object} apiError
// @Router /api/graceful_shutdown [get]
func (h *Handler) GracefulShutdown(w http.ResponseWriter, r *http.Request) {
	if err := h.disp.Shutdown(true); err != nil {
		h.logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
		writeErr(w, http.StatusInternalServerError, "Failed to shut down the server gracefully")
		return
	}
	h.logger.Info("job dispatcher shut down gracefully")
	writeJSON(w, http.StatusOK, messageResp{Message: "Shutting down the server gracefully"})
}

// Jobs godoc
// @Summary List all jobs with their status
// @Tags jobs
// @Produce json
// @Success 200 {object} map[string]jobStatusResp
// @Router /api/jobs [get]
func (h *Handler) Jobs(w http.ResponseWriter, r *http.Request) {
	jobs := h.disp.Jobs()
	resp := make(map[string]jobStatusResp, len(jobs))
	for id, st := range jobs {
		resp[strconv.FormatInt(int64(id), 10)] = jobStatusResp{Status: st}
	}
	writeJSON(w, http.StatusOK, resp)
}

// NumJobs godoc
// @Summary Number of submitted jobs
// @Tags jobs
// @Produce json
// @Success 200 {object} numJobsResp
// @Router /api/num_jobs [get]
func (h *Handler) NumJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, numJobsResp{NumJobs: h.disp.NumJobs()})
}
