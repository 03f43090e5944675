package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/segyhp/circulation-notices/internal/domain"
)

type MockPatronNoticeSender struct {
	mock.Mock
}

func (m *MockPatronNoticeSender) Send(ctx context.Context, notice domain.PatronNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

type MockNoticeErrorLogger struct {
	mock.Mock
}

func (m *MockNoticeErrorLogger) PublishNoticeError(ctx context.Context, record domain.NoticeLog, errMessage string) {
	m.Called(ctx, record, errMessage)
}
