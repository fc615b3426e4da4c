package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/idcard-reissue-api/internal/kv"
	"github.com/wso2/idcard-reissue-api/internal/models"
	"github.com/wso2/idcard-reissue-api/internal/notify"
)

type testStore struct {
	*RequestStore
	backend kv.Backend
	hub     *notify.Hub
}

func newTestStore(t *testing.T, backend kv.Backend) *testStore {
	t.Helper()
	if backend == nil {
		backend = kv.NewMemoryBackend()
	}
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	hub := notify.NewHub()
	t.Cleanup(func() { _ = hub.Close() })

	return &testStore{
		RequestStore: NewRequestStore(backend, hub, "requests", logger),
		backend:      backend,
		hub:          hub,
	}
}

func record(id int64, status models.Status) models.RequestRecord {
	return models.RequestRecord{
		ID:     id,
		Type:   models.ReasonLost.Label(),
		Date:   models.NewCalendarDate(time.Date(2024, 1, int(id%28)+1, 0, 0, 0, 0, time.UTC)),
		Status: status,
	}
}

func TestLoadAll_EmptyWhenAbsent(t *testing.T) {
	s := newTestStore(t, nil)

	records, err := s.LoadAll(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestSaveAll_LastCallWins(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	sequences := [][]models.RequestRecord{
		{record(1, models.StatusPending), record(2, models.StatusApproved)},
		{record(3, models.StatusPrinted)},
		{record(4, models.StatusPending), record(1, models.StatusCompleted), record(9, "On Hold")},
	}
	for _, records := range sequences {
		require.NoError(t, s.SaveAll(ctx, records))
	}

	got, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, sequences[len(sequences)-1], got)
}

func TestSaveAll_PublishesChange(t *testing.T) {
	s := newTestStore(t, nil)
	changes, cancel := s.Changes()
	defer cancel()

	require.NoError(t, s.SaveAll(context.Background(), []models.RequestRecord{record(1, models.StatusPending)}))

	select {
	case <-changes:
	case <-time.After(time.Second):
		t.Fatal("expected a storage change signal")
	}
}

func TestSaveAll_WritesDerivedStatusClass(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	require.NoError(t, s.SaveAll(ctx, []models.RequestRecord{record(1, models.StatusWaitingForHRApprove)}))

	raw, ok, err := s.backend.Get(ctx, "requests")
	require.NoError(t, err)
	require.True(t, ok)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "waiting", decoded[0]["statusClass"])
	assert.Equal(t, "2024-01-02", decoded[0]["date"])
}

func TestSaveAll_SurfacesQuotaErrors(t *testing.T) {
	s := newTestStore(t, kv.WithQuota(kv.NewMemoryBackend(), 16))
	changes, cancel := s.Changes()
	defer cancel()

	err := s.SaveAll(context.Background(), []models.RequestRecord{record(1, models.StatusPending)})

	require.Error(t, err)
	assert.True(t, errors.Is(err, kv.ErrQuotaExceeded))
	assert.True(t, errors.Is(err, ErrStorage))
	select {
	case <-changes:
		t.Fatal("failed write must not signal a change")
	default:
	}
}

func TestLoadAll_SurfacesDecodeErrors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	require.NoError(t, s.backend.Set(ctx, "requests", []byte(`{not json`)))

	_, err := s.LoadAll(ctx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
	assert.ErrorIs(t, err, ErrStorage)
}

func TestAppend_AssignsFreshID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	fixed := time.UnixMilli(1700000000000)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.SaveAll(ctx, []models.RequestRecord{record(1700000000000, models.StatusPending)}))

	appended, err := s.Append(ctx, models.RequestRecord{
		Type:   models.ReasonDamaged.Label(),
		Date:   models.NewCalendarDate(fixed),
		Status: models.StatusWaitingForHRApprove,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000001), appended.ID)

	all, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, appended, all[1])
}

func TestAppend_RejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	require.NoError(t, s.SaveAll(ctx, []models.RequestRecord{record(5, models.StatusPending)}))

	_, err := s.Append(ctx, record(5, models.StatusApproved))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateID)
	all, _ := s.LoadAll(ctx)
	assert.Len(t, all, 1)
}

func TestFindByID(t *testing.T) {
	records := []models.RequestRecord{record(1, models.StatusPending), record(2, models.StatusApproved)}

	i, ok := FindByID(records, 2)
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = FindByID(records, 3)
	assert.False(t, ok)
}

func TestAudit_NewestFirstPerRequest(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	audits := []models.StatusAudit{
		{AuditID: "a1", RequestID: 1, PreviousStatus: models.StatusPending, CurrentStatus: models.StatusApproved, ActionTime: 100},
		{AuditID: "a2", RequestID: 2, PreviousStatus: models.StatusPending, CurrentStatus: models.StatusRejected, ActionTime: 150},
		{AuditID: "a3", RequestID: 1, PreviousStatus: models.StatusApproved, CurrentStatus: models.StatusPrinted, ActionTime: 200},
	}
	for _, a := range audits {
		require.NoError(t, s.AppendAudit(ctx, a))
	}

	history, err := s.AuditFor(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "a3", history[0].AuditID)
	assert.Equal(t, "a1", history[1].AuditID)

	none, err := s.AuditFor(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, none)
}
