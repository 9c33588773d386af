// internal/core/services/snapshot_test.go
package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Degbogueur/stock-management/internal/core/services"
	"github.com/Degbogueur/stock-management/test/helpers"
	"github.com/Degbogueur/stock-management/test/mocks"
)

func TestSnapshotService_TakeSnapshot(t *testing.T) {
	newService := func(t *testing.T) (*services.SnapshotService, *mocks.MockSnapshotRepository) {
		t.Helper()
		ctrl := gomock.NewController(t)
		snapshots := mocks.NewMockSnapshotRepository(ctrl)
		return services.NewSnapshotService(snapshots, helpers.TestLogger()), snapshots
	}

	t.Run("captures_every_product_at_the_calendar_date", func(t *testing.T) {
		svc, snapshots := newService(t)

		asOf := time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC)
		snapshots.EXPECT().
			InsertForDate(gomock.Any(), time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)).
			Return(15, nil)

		written, err := svc.TakeSnapshot(context.Background(), asOf)

		require.NoError(t, err)
		assert.Equal(t, 15, written)
	})

	t.Run("rerun_for_the_same_date_writes_nothing", func(t *testing.T) {
		svc, snapshots := newService(t)

		asOf := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
		snapshots.EXPECT().
			InsertForDate(gomock.Any(), asOf).
			Return(0, nil)

		written, err := svc.TakeSnapshot(context.Background(), asOf)

		require.NoError(t, err)
		assert.Zero(t, written)
	})

	t.Run("repository_error_is_wrapped_with_the_date", func(t *testing.T) {
		svc, snapshots := newService(t)

		asOf := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
		snapshots.EXPECT().
			InsertForDate(gomock.Any(), asOf).
			Return(0, errors.New("relation does not exist"))

		_, err := svc.TakeSnapshot(context.Background(), asOf)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "2026-03-16")
	})
}
