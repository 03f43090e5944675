package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/circulation-notices/internal/domain"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, body interface{}) error {
	args := m.Called(ctx, routingKey, body)
	return args.Error(0)
}

func TestPatronNoticeSender_Send(t *testing.T) {
	log, _ := test.NewNullLogger()
	notice := domain.PatronNotice{
		TemplateID:      uuid.New(),
		RecipientID:     uuid.New(),
		DeliveryChannel: "Email",
		OutputFormat:    "text/html",
	}

	tests := []struct {
		name       string
		publishErr error
	}{
		{name: "published under channel routing key"},
		{name: "broker failure is returned", publishErr: errors.New("channel closed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := &mockPublisher{}
			publisher.On("Publish", mock.Anything, "patron-notice.email", notice).Return(tt.publishErr)

			err := NewPatronNoticeSender(publisher, log).Send(context.Background(), notice)

			if tt.publishErr != nil {
				assert.ErrorIs(t, err, tt.publishErr)
			} else {
				assert.NoError(t, err)
			}
			publisher.AssertExpectations(t)
		})
	}
}

func TestErrorLogPublisher_SwallowsBrokerFailure(t *testing.T) {
	log, hook := test.NewNullLogger()
	publisher := &mockPublisher{}
	record := domain.NoticeLog{UserID: uuid.New()}

	publisher.On("Publish", mock.Anything, "notice.error", mock.MatchedBy(func(e NoticeErrorEvent) bool {
		return e.ErrorMessage == "loan not found" && e.Log.UserID == record.UserID
	})).Return(errors.New("connection reset"))

	NewErrorLogPublisher(publisher, log).PublishNoticeError(context.Background(), record, "loan not found")

	publisher.AssertExpectations(t)
	if assert.NotNil(t, hook.LastEntry()) {
		assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	}
}
