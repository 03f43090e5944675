package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/circulation-notices/internal/domain"
	"github.com/segyhp/circulation-notices/internal/service/mocks"
	customError "github.com/segyhp/circulation-notices/pkg/errors"
	"github.com/segyhp/circulation-notices/pkg/logger"
)

func newTestBuilder(repos *testRepos, errorLog *mocks.MockNoticeErrorLogger) *ContextBuilder {
	return NewContextBuilder(repos.notices, NewHandlerRegistry(repos.deps()), errorLog, logger.Discard())
}

func TestContextBuilder_Build(t *testing.T) {
	user := testUser()
	policyID := uuid.New()

	tests := []struct {
		name       string
		setup      func(*testRepos, *mocks.MockNoticeErrorLogger) domain.ScheduledNotice
		checkErr   func(*testing.T, error)
		check      func(*testing.T, BuiltNotice)
		noEvent    bool
		noDeletion bool
	}{
		{
			name: "relevant notice is rendered",
			setup: func(r *testRepos, _ *mocks.MockNoticeErrorLogger) domain.ScheduledNotice {
				loan := testLoan(user, testNow.AddDate(0, 0, 2))
				n := loanNotice(domain.TriggeringEventDueDate, loan, domain.TimingBefore, testNow, nil)
				r.templates.On("Exists", mock.Anything, n.Config.TemplateID).Return(true, nil)
				r.loans.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)
				r.policies.On("LookupPolicy", mock.Anything, mock.Anything, mock.Anything).Return(policyID, nil)
				return n
			},
			check: func(t *testing.T, b BuiltNotice) {
				assert.False(t, b.Verdict.Irrelevant)
				assert.True(t, b.sendable())
				assert.Contains(t, b.Context.Payload, "loan")
				require.Len(t, b.Context.Log.Items, 1)
				assert.Equal(t, policyID, b.Context.Log.Items[0].NoticePolicyID)
			},
			noEvent:    true,
			noDeletion: true,
		},
		{
			name: "irrelevant notice carries no payload",
			setup: func(r *testRepos, _ *mocks.MockNoticeErrorLogger) domain.ScheduledNotice {
				loan := testLoan(user, testNow.AddDate(0, 0, 2))
				loan.Status = domain.LoanStatusClosed
				n := loanNotice(domain.TriggeringEventDueDate, loan, domain.TimingBefore, testNow, nil)
				r.templates.On("Exists", mock.Anything, n.Config.TemplateID).Return(true, nil)
				r.loans.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)
				r.policies.On("LookupPolicy", mock.Anything, mock.Anything, mock.Anything).Return(policyID, nil)
				return n
			},
			check: func(t *testing.T, b BuiltNotice) {
				assert.True(t, b.Verdict.Irrelevant)
				assert.False(t, b.sendable())
				assert.Nil(t, b.Context.Payload)
				assert.Len(t, b.Context.Log.Items, 1)
			},
			noEvent:    true,
			noDeletion: true,
		},
		{
			name: "held upon at request notice is not sendable",
			setup: func(r *testRepos, _ *mocks.MockNoticeErrorLogger) domain.ScheduledNotice {
				request := testRequest(user, domain.RequestStatusOpenAwaitingPickup)
				n := requestNotice(domain.TriggeringEventHoldExpiration, request, domain.TimingUponAt, uuid.New())
				r.templates.On("Exists", mock.Anything, n.Config.TemplateID).Return(true, nil)
				r.requests.On("GetByID", mock.Anything, request.ID).Return(request, nil)
				r.policies.On("LookupPolicy", mock.Anything, mock.Anything, mock.Anything).Return(policyID, nil)
				return n
			},
			check: func(t *testing.T, b BuiltNotice) {
				assert.False(t, b.Verdict.Irrelevant)
				assert.True(t, b.held())
				assert.False(t, b.sendable())
			},
			noEvent:    true,
			noDeletion: true,
		},
		{
			name: "missing loan deletes the notice and reports it",
			setup: func(r *testRepos, e *mocks.MockNoticeErrorLogger) domain.ScheduledNotice {
				loan := testLoan(user, testNow)
				n := loanNotice(domain.TriggeringEventDueDate, loan, domain.TimingAfter, testNow, nil)
				r.templates.On("Exists", mock.Anything, n.Config.TemplateID).Return(true, nil)
				r.loans.On("GetByID", mock.Anything, loan.ID).
					Return(domain.Loan{}, customError.WrapRecordNotFound(customError.RecordLoan, loan.ID.String()))
				r.notices.On("Delete", mock.Anything, n.ID).Return(nil).Once()
				e.On("PublishNoticeError", mock.Anything, mock.MatchedBy(func(l domain.NoticeLog) bool {
					return l.UserID == user.ID && len(l.Items) == 1 && l.Items[0].LoanID == loan.ID
				}), mock.AnythingOfType("string")).Once()
				return n
			},
			checkErr: func(t *testing.T, err error) {
				assert.True(t, customError.IsReferenceNotFound(err))
			},
		},
		{
			name: "closed loan of a deleted patron is cleaned up quietly",
			setup: func(r *testRepos, _ *mocks.MockNoticeErrorLogger) domain.ScheduledNotice {
				loan := testLoan(user, testNow)
				n := loanNotice(domain.TriggeringEventDueDate, loan, domain.TimingAfter, testNow, nil)
				loan.User = nil
				loan.Status = domain.LoanStatusClosed
				r.templates.On("Exists", mock.Anything, n.Config.TemplateID).Return(true, nil)
				r.loans.On("GetByID", mock.Anything, loan.ID).Return(loan, nil)
				r.notices.On("Delete", mock.Anything, n.ID).Return(nil).Once()
				return n
			},
			checkErr: func(t *testing.T, err error) {
				assert.True(t, isQuietCleanup(err))
			},
			noEvent: true,
		},
		{
			name: "failed cleanup is reported as a failure",
			setup: func(r *testRepos, _ *mocks.MockNoticeErrorLogger) domain.ScheduledNotice {
				loan := testLoan(user, testNow)
				n := loanNotice(domain.TriggeringEventDueDate, loan, domain.TimingAfter, testNow, nil)
				r.templates.On("Exists", mock.Anything, n.Config.TemplateID).Return(false, nil)
				r.notices.On("Delete", mock.Anything, n.ID).Return(errors.New("deadlock detected"))
				return n
			},
			checkErr: func(t *testing.T, err error) {
				assert.EqualError(t, err, "deadlock detected")
				assert.False(t, customError.IsReferenceNotFound(err))
			},
			noEvent: true,
		},
		{
			name: "transient failure leaves the notice in place",
			setup: func(r *testRepos, e *mocks.MockNoticeErrorLogger) domain.ScheduledNotice {
				loan := testLoan(user, testNow)
				n := loanNotice(domain.TriggeringEventDueDate, loan, domain.TimingAfter, testNow, nil)
				r.templates.On("Exists", mock.Anything, n.Config.TemplateID).Return(true, nil)
				r.loans.On("GetByID", mock.Anything, loan.ID).Return(domain.Loan{}, customError.WrapDatabaseError(errors.New("timeout")))
				e.On("PublishNoticeError", mock.Anything, mock.Anything, mock.AnythingOfType("string")).Once()
				return n
			},
			checkErr: func(t *testing.T, err error) {
				assert.Error(t, err)
				assert.False(t, customError.IsReferenceNotFound(err))
			},
			noDeletion: true,
		},
		{
			name: "unknown triggering event is reported and kept",
			setup: func(r *testRepos, e *mocks.MockNoticeErrorLogger) domain.ScheduledNotice {
				loan := testLoan(user, testNow)
				n := loanNotice("Manual block", loan, domain.TimingAfter, testNow, nil)
				e.On("PublishNoticeError", mock.Anything, mock.Anything, mock.AnythingOfType("string")).Once()
				return n
			},
			checkErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, customError.ErrUnexpectedTriggeringEvent)
			},
			noDeletion: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			repos := newTestRepos()
			errorLog := &mocks.MockNoticeErrorLogger{}
			notice := tt.setup(repos, errorLog)
			builder := newTestBuilder(repos, errorLog)

			// Act
			built, err := builder.Build(context.Background(), notice, testNow)

			// Assert
			if tt.checkErr != nil {
				require.Error(t, err)
				tt.checkErr(t, err)
			} else {
				require.NoError(t, err)
				tt.check(t, built)
			}
			if tt.noEvent {
				errorLog.AssertNotCalled(t, "PublishNoticeError", mock.Anything, mock.Anything, mock.Anything)
			}
			if tt.noDeletion {
				repos.notices.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			}
			errorLog.AssertExpectations(t)
			repos.assertExpectations(t)
		})
	}
}
