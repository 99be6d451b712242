package status_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/showsync/internal/status"
	"github.com/stacklok/showsync/internal/status/mocks"
)

func TestTracker_PersistsTerminalPhases(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	persistence := mocks.NewMockPersistence(ctrl)
	persistence.EXPECT().Load(gomock.Any()).Return(map[status.Mode]status.PassStatus{}, nil)

	tracker := status.NewTracker(context.Background(), persistence)

	// In-flight phases stay in memory.
	tracker.Update(context.Background(), status.ModeFull, func(s *status.PassStatus) { s.Phase = status.PhaseFetchingDelta })
	tracker.Update(context.Background(), status.ModeFull, func(s *status.PassStatus) { s.Phase = status.PhaseApplying })

	persistence.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, statuses map[status.Mode]status.PassStatus) error {
			assert.Equal(t, status.PhaseSkipped, statuses[status.ModeFull].Phase)
			return errors.New("disk full")
		})
	// A save failure is logged, never surfaced.
	tracker.Update(context.Background(), status.ModeFull, func(s *status.PassStatus) { s.Phase = status.PhaseSkipped })
	assert.Equal(t, status.PhaseSkipped, tracker.Get(status.ModeFull).Phase)
}
