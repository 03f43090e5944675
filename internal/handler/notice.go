package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/segyhp/circulation-notices/internal/domain"
	"github.com/segyhp/circulation-notices/internal/service"
	"github.com/segyhp/circulation-notices/pkg/response"
)

// NoticeProcessor runs a processing cycle on demand
type NoticeProcessor interface {
	Process(ctx context.Context, opts service.ProcessOptions, now time.Time) (domain.Summary, error)
}

// NoticeScheduler creates and removes scheduled notices
type NoticeScheduler interface {
	Schedule(ctx context.Context, notice domain.ScheduledNotice) (domain.ScheduledNotice, error)
	DeleteForLoan(ctx context.Context, loanID uuid.UUID, events ...domain.TriggeringEvent) error
	DeleteForRequest(ctx context.Context, requestID uuid.UUID) error
}

type ScheduledNoticeHandler struct {
	processor NoticeProcessor
	scheduler NoticeScheduler
	validator *validator.Validate
	now       func() time.Time
}

func NewScheduledNoticeHandler(processor NoticeProcessor, scheduler NoticeScheduler) *ScheduledNoticeHandler {
	return &ScheduledNoticeHandler{
		processor: processor,
		scheduler: scheduler,
		validator: validator.New(),
		now:       time.Now,
	}
}

// ProcessRequest is the body of a manual processing trigger
type ProcessRequest struct {
	RealTime         bool     `json:"realTime"`
	TriggeringEvents []string `json:"triggeringEvents" validate:"omitempty,dive,required"`
	Limit            int      `json:"limit" validate:"gte=0,lte=1000"`
}

// Process runs one cycle of the selected engine and returns its summary
func (h *ScheduledNoticeHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	events, ok := parseEvents(req.TriggeringEvents)
	if !ok {
		response.BadRequest(w, "Unknown triggering event", nil)
		return
	}

	summary, err := h.processor.Process(r.Context(), service.ProcessOptions{
		RealTime: req.RealTime,
		Events:   events,
		Limit:    req.Limit,
	}, h.now())
	if err != nil {
		response.InternalServerError(w, "Failed to process scheduled notices", err)
		return
	}

	response.Success(w, summary)
}

// Create schedules a notice on behalf of a circulation workflow
func (h *ScheduledNoticeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var notice domain.ScheduledNotice
	if err := json.NewDecoder(r.Body).Decode(&notice); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	created, err := h.scheduler.Schedule(r.Context(), notice)
	if err != nil {
		response.FromError(w, "Failed to schedule notice", err)
		return
	}

	response.Created(w, created)
}

// DeleteForLoan removes the notices of a loan, optionally of one triggering event
func (h *ScheduledNoticeHandler) DeleteForLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(mux.Vars(r)["loanId"])
	if err != nil {
		response.BadRequest(w, "Invalid loan ID", err)
		return
	}

	var events []domain.TriggeringEvent
	if raw := r.URL.Query()["triggeringEvent"]; len(raw) > 0 {
		var ok bool
		if events, ok = parseEvents(raw); !ok {
			response.BadRequest(w, "Unknown triggering event", nil)
			return
		}
	}

	if err := h.scheduler.DeleteForLoan(r.Context(), loanID, events...); err != nil {
		response.FromError(w, "Failed to delete loan notices", err)
		return
	}

	response.NoContent(w)
}

// DeleteForRequest removes every notice of a request
func (h *ScheduledNoticeHandler) DeleteForRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := uuid.Parse(mux.Vars(r)["requestId"])
	if err != nil {
		response.BadRequest(w, "Invalid request ID", err)
		return
	}

	if err := h.scheduler.DeleteForRequest(r.Context(), requestID); err != nil {
		response.FromError(w, "Failed to delete request notices", err)
		return
	}

	response.NoContent(w)
}

func parseEvents(raw []string) ([]domain.TriggeringEvent, bool) {
	events := make([]domain.TriggeringEvent, 0, len(raw))
	for _, s := range raw {
		e, ok := domain.ParseTriggeringEvent(s)
		if !ok {
			return nil, false
		}
		events = append(events, e)
	}
	return events, true
}

// RegisterRoutes mounts the notice endpoints under router
func (h *ScheduledNoticeHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/scheduled-notices/process", h.Process).Methods(http.MethodPost)
	router.HandleFunc("/scheduled-notices", h.Create).Methods(http.MethodPost)
	router.HandleFunc("/scheduled-notices/loans/{loanId}", h.DeleteForLoan).Methods(http.MethodDelete)
	router.HandleFunc("/scheduled-notices/requests/{requestId}", h.DeleteForRequest).Methods(http.MethodDelete)
}
