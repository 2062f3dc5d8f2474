package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linkmap-analysis/internal/repository"
	"github.com/linkmap-analysis/pkg/model"
)

// MockReportRepository is a mock implementation of repository.ReportRepository.
type MockReportRepository struct {
	mock.Mock
}

// SaveReport mocks the SaveReport method.
func (m *MockReportRepository) SaveReport(ctx context.Context, report *model.MapReport) (int64, error) {
	args := m.Called(ctx, report)
	return args.Get(0).(int64), args.Error(1)
}

// GetReport mocks the GetReport method.
func (m *MockReportRepository) GetReport(ctx context.Context, id int64) (*model.MapReport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MapReport), args.Error(1)
}

// GetLatestBySource mocks the GetLatestBySource method.
func (m *MockReportRepository) GetLatestBySource(ctx context.Context, source string) (*model.MapReport, error) {
	args := m.Called(ctx, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MapReport), args.Error(1)
}

// ListReports mocks the ListReports method.
func (m *MockReportRepository) ListReports(ctx context.Context, opts repository.ListOptions) ([]repository.ReportSummary, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.ReportSummary), args.Error(1)
}

// DeleteReport mocks the DeleteReport method.
func (m *MockReportRepository) DeleteReport(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// RegionHistory mocks the RegionHistory method.
func (m *MockReportRepository) RegionHistory(ctx context.Context, source, region string, limit int) ([]repository.RegionUsage, error) {
	args := m.Called(ctx, source, region, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.RegionUsage), args.Error(1)
}

// ExpectSaveReport sets up an expectation for SaveReport of any report.
func (m *MockReportRepository) ExpectSaveReport(id int64, err error) *mock.Call {
	return m.On("SaveReport", mock.Anything, mock.Anything).Return(id, err)
}
