// Package mock provides testify mocks of the parser, storage and repository
// interfaces.
package mock

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/linkmap-analysis/pkg/model"
)

// MockParser is a mock implementation of the parser.Parser interface.
type MockParser struct {
	mock.Mock
}

// Parse mocks the Parse method. The reader is drained so callers see the
// input consumed.
func (m *MockParser) Parse(ctx context.Context, source string, reader io.Reader) (*model.MapReport, error) {
	if reader != nil {
		_, _ = io.Copy(io.Discard, reader)
	}
	args := m.Called(ctx, source, reader)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MapReport), args.Error(1)
}

// SupportedFormats mocks the SupportedFormats method.
func (m *MockParser) SupportedFormats() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

// Name mocks the Name method.
func (m *MockParser) Name() string {
	args := m.Called()
	return args.String(0)
}

// ExpectParse sets up an expectation for Parse of source.
func (m *MockParser) ExpectParse(source string, report *model.MapReport, err error) *mock.Call {
	return m.On("Parse", mock.Anything, source, mock.Anything).Return(report, err)
}

// ExpectName sets up an expectation for Name.
func (m *MockParser) ExpectName(name string) *mock.Call {
	return m.On("Name").Return(name)
}
