package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/circulation-notices/internal/domain"
	"github.com/segyhp/circulation-notices/internal/service"
	customError "github.com/segyhp/circulation-notices/pkg/errors"
)

var handlerNow = time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)

type mockProcessor struct {
	mock.Mock
}

func (m *mockProcessor) Process(ctx context.Context, opts service.ProcessOptions, now time.Time) (domain.Summary, error) {
	args := m.Called(ctx, opts, now)
	return args.Get(0).(domain.Summary), args.Error(1)
}

type mockScheduler struct {
	mock.Mock
}

func (m *mockScheduler) Schedule(ctx context.Context, notice domain.ScheduledNotice) (domain.ScheduledNotice, error) {
	args := m.Called(ctx, notice)
	return args.Get(0).(domain.ScheduledNotice), args.Error(1)
}

func (m *mockScheduler) DeleteForLoan(ctx context.Context, loanID uuid.UUID, events ...domain.TriggeringEvent) error {
	args := m.Called(ctx, loanID, events)
	return args.Error(0)
}

func (m *mockScheduler) DeleteForRequest(ctx context.Context, requestID uuid.UUID) error {
	args := m.Called(ctx, requestID)
	return args.Error(0)
}

func newTestRouter(processor *mockProcessor, scheduler *mockScheduler) *mux.Router {
	h := NewScheduledNoticeHandler(processor, scheduler)
	h.now = func() time.Time { return handlerNow }

	router := mux.NewRouter()
	h.RegisterRoutes(router)
	return router
}

func TestScheduledNoticeHandler_Process(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*mockProcessor)
		expectedStatus int
		checkResponse  func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "runs the real-time engine for selected events",
			body: `{"realTime":true,"triggeringEvents":["Hold expiration"],"limit":50}`,
			setupMock: func(m *mockProcessor) {
				m.On("Process", mock.Anything, service.ProcessOptions{
					RealTime: true,
					Events:   []domain.TriggeringEvent{domain.TriggeringEventHoldExpiration},
					Limit:    50,
				}, handlerNow).Return(domain.Summary{Fetched: 4, Sent: 3, Deleted: 3, Skipped: 1}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var wrapper struct {
					Success bool           `json:"success"`
					Data    domain.Summary `json:"data"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wrapper))
				assert.True(t, wrapper.Success)
				assert.Equal(t, 4, wrapper.Data.Fetched)
				assert.Equal(t, 3, wrapper.Data.Sent)
			},
		},
		{
			name: "empty body runs the daily engine",
			body: "",
			setupMock: func(m *mockProcessor) {
				m.On("Process", mock.Anything, mock.MatchedBy(func(o service.ProcessOptions) bool {
					return !o.RealTime && len(o.Events) == 0 && o.Limit == 0
				}), handlerNow).Return(domain.Summary{}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown triggering event",
			body:           `{"triggeringEvents":["Manual block"]}`,
			setupMock:      func(m *mockProcessor) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "limit out of range",
			body:           `{"limit":5000}`,
			setupMock:      func(m *mockProcessor) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed body",
			body:           `{"realTime":`,
			setupMock:      func(m *mockProcessor) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "page could not be loaded",
			body: `{}`,
			setupMock: func(m *mockProcessor) {
				m.On("Process", mock.Anything, mock.Anything, handlerNow).Return(domain.Summary{}, errors.New("connection refused")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			processor := &mockProcessor{}
			tt.setupMock(processor)
			router := newTestRouter(processor, &mockScheduler{})

			req := httptest.NewRequest(http.MethodPost, "/scheduled-notices/process", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			// Act
			router.ServeHTTP(w, req)

			// Assert
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.checkResponse != nil {
				tt.checkResponse(t, w)
			}
			processor.AssertExpectations(t)
		})
	}
}

func TestScheduledNoticeHandler_Create(t *testing.T) {
	notice := domain.ScheduledNotice{
		LoanID:          uuid.New(),
		RecipientUserID: uuid.New(),
		TriggeringEvent: domain.TriggeringEventDueDate,
		NextRunTime:     handlerNow.AddDate(0, 0, 1),
		Config: domain.NoticeConfig{
			Timing:     domain.TimingBefore,
			TemplateID: uuid.New(),
			Format:     domain.FormatEmail,
		},
	}

	tests := []struct {
		name           string
		setupMock      func(*mockScheduler)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "created",
			setupMock: func(m *mockScheduler) {
				stored := notice
				stored.ID = uuid.New()
				m.On("Schedule", mock.Anything, mock.MatchedBy(func(n domain.ScheduledNotice) bool {
					return n.LoanID == notice.LoanID && n.TriggeringEvent == notice.TriggeringEvent
				})).Return(stored, nil).Once()
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "rejected notice",
			setupMock: func(m *mockScheduler) {
				m.On("Schedule", mock.Anything, mock.Anything).
					Return(domain.ScheduledNotice{}, customError.WrapInvalidNotice(errors.New("no reference"))).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   customError.ErrCodeInvalidNotice,
		},
		{
			name: "storage failure",
			setupMock: func(m *mockScheduler) {
				m.On("Schedule", mock.Anything, mock.Anything).
					Return(domain.ScheduledNotice{}, customError.WrapDatabaseError(errors.New("timeout"))).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   customError.ErrCodeDatabaseError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			scheduler := &mockScheduler{}
			tt.setupMock(scheduler)
			router := newTestRouter(&mockProcessor{}, scheduler)

			body, err := json.Marshal(notice)
			require.NoError(t, err)
			req := httptest.NewRequest(http.MethodPost, "/scheduled-notices", bytes.NewBuffer(body))
			w := httptest.NewRecorder()

			// Act
			router.ServeHTTP(w, req)

			// Assert
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				var errResp struct {
					Code string `json:"code"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
				assert.Equal(t, tt.expectedCode, errResp.Code)
			}
			scheduler.AssertExpectations(t)
		})
	}
}

func TestScheduledNoticeHandler_Delete(t *testing.T) {
	loanID := uuid.New()
	requestID := uuid.New()

	tests := []struct {
		name           string
		path           string
		setupMock      func(*mockScheduler)
		expectedStatus int
	}{
		{
			name: "every notice of a loan",
			path: "/scheduled-notices/loans/" + loanID.String(),
			setupMock: func(m *mockScheduler) {
				m.On("DeleteForLoan", mock.Anything, loanID, ([]domain.TriggeringEvent)(nil)).Return(nil).Once()
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name: "loan notices of one event",
			path: "/scheduled-notices/loans/" + loanID.String() + "?triggeringEvent=Aged+to+lost",
			setupMock: func(m *mockScheduler) {
				m.On("DeleteForLoan", mock.Anything, loanID, []domain.TriggeringEvent{domain.TriggeringEventAgedToLost}).Return(nil).Once()
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "unknown event filter",
			path:           "/scheduled-notices/loans/" + loanID.String() + "?triggeringEvent=Lunch",
			setupMock:      func(m *mockScheduler) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid loan id",
			path:           "/scheduled-notices/loans/not-a-uuid",
			setupMock:      func(m *mockScheduler) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "every notice of a request",
			path: "/scheduled-notices/requests/" + requestID.String(),
			setupMock: func(m *mockScheduler) {
				m.On("DeleteForRequest", mock.Anything, requestID).Return(nil).Once()
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name: "request deletion failure",
			path: "/scheduled-notices/requests/" + requestID.String(),
			setupMock: func(m *mockScheduler) {
				m.On("DeleteForRequest", mock.Anything, requestID).Return(errors.New("timeout")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			scheduler := &mockScheduler{}
			tt.setupMock(scheduler)
			router := newTestRouter(&mockProcessor{}, scheduler)

			req := httptest.NewRequest(http.MethodDelete, tt.path, nil)
			w := httptest.NewRecorder()

			// Act
			router.ServeHTTP(w, req)

			// Assert
			assert.Equal(t, tt.expectedStatus, w.Code)
			scheduler.AssertExpectations(t)
		})
	}
}
