package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/circulation-notices/internal/repository/mocks"
)

// stubRedis keeps Get and Set in memory; every other command is unused here
type stubRedis struct {
	redis.Cmdable
	values map[string]string
	sets   int
}

func newStubRedis() *stubRedis {
	return &stubRedis{values: map[string]string{}}
}

func (s *stubRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := s.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (s *stubRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	s.sets++
	s.values[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func TestCachedTemplateRepository_Exists(t *testing.T) {
	templateID := uuid.New()

	tests := []struct {
		name          string
		cached        map[string]string
		setupMock     func(*mocks.MockTemplateRepository)
		expected      bool
		expectedErr   bool
		expectedSets  int
		expectedCache string
	}{
		{
			name:          "cached template skips storage",
			cached:        map[string]string{templateCachePrefix + templateID.String(): "1"},
			setupMock:     func(m *mocks.MockTemplateRepository) {},
			expected:      true,
			expectedCache: "1",
		},
		{
			name: "found template is cached",
			setupMock: func(m *mocks.MockTemplateRepository) {
				m.On("Exists", context.Background(), templateID).Return(true, nil).Once()
			},
			expected:      true,
			expectedSets:  1,
			expectedCache: "1",
		},
		{
			name: "missing template is not cached",
			setupMock: func(m *mocks.MockTemplateRepository) {
				m.On("Exists", context.Background(), templateID).Return(false, nil).Once()
			},
			expected: false,
		},
		{
			name:   "stale negative entry is rechecked",
			cached: map[string]string{templateCachePrefix + templateID.String(): "0"},
			setupMock: func(m *mocks.MockTemplateRepository) {
				m.On("Exists", context.Background(), templateID).Return(true, nil).Once()
			},
			expected:      true,
			expectedSets:  1,
			expectedCache: "1",
		},
		{
			name: "storage failure is not cached",
			setupMock: func(m *mocks.MockTemplateRepository) {
				m.On("Exists", context.Background(), templateID).Return(false, errors.New("timeout")).Once()
			},
			expectedErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			client := newStubRedis()
			for k, v := range tt.cached {
				client.values[k] = v
			}
			next := &mocks.MockTemplateRepository{}
			tt.setupMock(next)
			repo := NewCachedTemplateRepository(next, client, time.Hour)

			// Act
			exists, err := repo.Exists(context.Background(), templateID)

			// Assert
			if tt.expectedErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expected, exists)
			assert.Equal(t, tt.expectedSets, client.sets)
			if tt.expectedCache != "" {
				assert.Equal(t, tt.expectedCache, client.values[templateCachePrefix+templateID.String()])
			}
			next.AssertExpectations(t)
		})
	}
}
