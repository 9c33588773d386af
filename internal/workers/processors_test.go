package workers_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Degbogueur/stock-management/internal/adapters/storage"
	"github.com/Degbogueur/stock-management/internal/workers"
	"github.com/Degbogueur/stock-management/test/helpers"
	"github.com/Degbogueur/stock-management/test/mocks"
)

// fakeArchive is an in-memory StorageClient for processor tests.
type fakeArchive struct {
	objects map[string]time.Time
	deleted []string
	listErr error
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{objects: make(map[string]time.Time)}
}

func (f *fakeArchive) Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	f.objects[key] = time.Now().UTC()
	return "https://archive.test/" + key, nil
}

func (f *fakeArchive) GetPresignedURL(ctx context.Context, key string, duration time.Duration) (string, error) {
	if _, ok := f.objects[key]; !ok {
		return "", errors.New("no such key")
	}
	return "https://archive.test/" + key + "?signed", nil
}

func (f *fakeArchive) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []storage.ObjectInfo
	for key, modified := range f.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, storage.ObjectInfo{Key: key, LastModified: modified})
		}
	}
	return out, nil
}

func (f *fakeArchive) Delete(ctx context.Context, key string) error {
	if _, ok := f.objects[key]; !ok {
		return errors.New("no such key")
	}
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func TestSnapshotProcessor_ProcessWeeklySnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := mocks.NewMockSnapshotService(ctrl)
	processor := workers.NewSnapshotProcessor(service, helpers.TestLogger())

	t.Run("writes_snapshot_rows", func(t *testing.T) {
		service.EXPECT().
			TakeSnapshot(gomock.Any(), gomock.Any()).
			Return(42, nil)

		task := asynq.NewTask(workers.TypeWeeklySnapshot, nil)
		err := processor.ProcessWeeklySnapshot(context.Background(), task)
		assert.NoError(t, err)
	})

	t.Run("propagates_service_error", func(t *testing.T) {
		service.EXPECT().
			TakeSnapshot(gomock.Any(), gomock.Any()).
			Return(0, errors.New("database unavailable"))

		task := asynq.NewTask(workers.TypeWeeklySnapshot, nil)
		err := processor.ProcessWeeklySnapshot(context.Background(), task)
		assert.Error(t, err)
	})
}

func TestCleanupProcessor_CleanupExports(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes_only_expired_objects", func(t *testing.T) {
		archive := newFakeArchive()
		archive.objects["exports/2026/01/operations-old.xlsx"] = time.Now().UTC().Add(-120 * 24 * time.Hour)
		archive.objects["exports/2026/08/operations-recent.xlsx"] = time.Now().UTC().Add(-24 * time.Hour)
		archive.objects["backups/db.dump"] = time.Now().UTC().Add(-120 * 24 * time.Hour)

		processor := workers.NewCleanupProcessor(nil, archive, helpers.TestLogger())

		task := asynq.NewTask(workers.TypeCleanupExports, nil)
		err := processor.CleanupExports(ctx, task)
		require.NoError(t, err)

		assert.Equal(t, []string{"exports/2026/01/operations-old.xlsx"}, archive.deleted)
		assert.Contains(t, archive.objects, "exports/2026/08/operations-recent.xlsx")
		assert.Contains(t, archive.objects, "backups/db.dump")
	})

	t.Run("returns_error_when_listing_fails", func(t *testing.T) {
		archive := newFakeArchive()
		archive.listErr = errors.New("bucket unreachable")

		processor := workers.NewCleanupProcessor(nil, archive, helpers.TestLogger())

		task := asynq.NewTask(workers.TypeCleanupExports, nil)
		err := processor.CleanupExports(ctx, task)
		assert.Error(t, err)
	})
}
