package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, ExitOK},
		{"empty city list", ErrEmptyCityList, ExitEmptyCityList},
		{"too few cities wrapped", fmt.Errorf("plan: %w", ErrTooFewCities), ExitTooFewCities},
		{"day range empty", ErrDayRangeEmpty, ExitDayRangeEmpty},
		{"no work after skip", ErrNoWorkAfterSkip, ExitNoWork},
		{"other error", errors.New("disk full"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestIsConfigError(t *testing.T) {
	assert.True(t, IsConfigError(fmt.Errorf("x: %w", ErrDayRangeEmpty)))
	assert.True(t, IsConfigError(ErrInvalidConfig))
	assert.False(t, IsConfigError(ErrHolidayTableIncomplete))
	assert.False(t, IsConfigError(nil))
}

func TestFetchError(t *testing.T) {
	tests := []struct {
		name     string
		err      *FetchError
		wantKind OutcomeKind
		contains []string
	}{
		{
			name:     "transport error",
			err:      NewTransportError("products", context.DeadlineExceeded),
			wantKind: OutcomeTransportError,
			contains: []string{"products", "transport_error", "deadline"},
		},
		{
			name:     "parse error",
			err:      NewParseError("batch", errors.New("unexpected token")),
			wantKind: OutcomeParseError,
			contains: []string{"batch", "parse_error", "unexpected token"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKind, tt.err.Kind)
			for _, want := range tt.contains {
				assert.Contains(t, tt.err.Error(), want)
			}
			out := Failed(tt.err)
			assert.Equal(t, tt.wantKind, out.Kind)
			assert.Empty(t, out.Records)
		})
	}

	err := NewTransportError("products", context.Canceled)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFetched(t *testing.T) {
	empty := Fetched(nil, 2)
	assert.Equal(t, OutcomeEmpty, empty.Kind)
	assert.Equal(t, 2, empty.Warnings)

	ok := Fetched([]FlightRecord{validRecord()}, 0)
	assert.Equal(t, OutcomeOK, ok.Kind)
	assert.Len(t, ok.Records, 1)
}

func TestOutcomeKind_String(t *testing.T) {
	assert.Equal(t, "ok", OutcomeOK.String())
	assert.Equal(t, "empty", OutcomeEmpty.String())
	assert.Equal(t, "unknown", OutcomeKind(42).String())
}

func TestMockFetcher_Interface(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var _ Fetcher = NewMockFetcher(ctrl)
	var _ ProxySource = NewMockProxySource(ctrl)

	mock := NewMockFetcher(ctrl)
	mock.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(Fetched([]FlightRecord{validRecord()}, 0))

	out := mock.Fetch(context.Background(), FetchRequest{Origin: "SHA", Destination: "BJS"})
	assert.Equal(t, OutcomeOK, out.Kind)
}
