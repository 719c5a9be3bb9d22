package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jonmartinstorm/slsnusern/internal/models"
)

type MockHarvester struct {
	mock.Mock
}

func (m *MockHarvester) ProcessRepo(ctx context.Context, rawURL string) *models.RepositoryRecord {
	args := m.Called(ctx, rawURL)
	if rec := args.Get(0); rec != nil {
		return rec.(*models.RepositoryRecord)
	}
	return nil
}

type MockRecordWriter struct {
	mock.Mock
}

func (m *MockRecordWriter) WriteRecord(ctx context.Context, record *models.RepositoryRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRecordWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}
