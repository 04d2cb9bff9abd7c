package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horae/internal/horae/service"
	"horae/internal/horae/store/memory"
	"horae/internal/horae/types"
)

// failingEnrollmentStore always reports the backing store unreachable.
type failingEnrollmentStore struct{}

func (failingEnrollmentStore) LoadAll(context.Context) ([]types.Enrollment, error) {
	return nil, errors.New("connection refused")
}

func TestEnrollmentSnapshot_RefreshInstallsSet(t *testing.T) {
	snap := newTestSnapshot(t, testEnrollments)

	assert.Equal(t, 2, snap.Len())

	e, ok := snap.Lookup("S001")
	require.True(t, ok)
	assert.Equal(t, "Alice Reyes", e.DisplayName)

	_, ok = snap.Lookup("S999")
	assert.False(t, ok)
}

func TestEnrollmentSnapshot_EmptyStoreIsValid(t *testing.T) {
	snap := newTestSnapshot(t, nil)
	assert.Equal(t, 0, snap.Len())
	assert.Empty(t, snap.Current())
}

func TestEnrollmentSnapshot_SkipsTemplatelessRows(t *testing.T) {
	snap := newTestSnapshot(t, []types.Enrollment{
		{IdentityID: "S001", DisplayName: "Alice Reyes", Template: []byte("tpl")},
		{IdentityID: "S002", DisplayName: "No Template"},
	})

	assert.Equal(t, 1, snap.Len())
	_, ok := snap.Lookup("S002")
	assert.False(t, ok)
}

func TestEnrollmentSnapshot_ReloadSwapsWholesale(t *testing.T) {
	st := memory.NewEnrollmentStore(testEnrollments)
	snap := service.NewEnrollmentSnapshot(st, service.SnapshotConfig{}, silentLogger(), nil)
	require.NoError(t, snap.Refresh(context.Background()))

	before := snap.Current()
	require.Len(t, before, 2)

	st.Replace([]types.Enrollment{
		{IdentityID: "S003", DisplayName: "Carla Uy", Template: []byte("tpl-S003")},
	})
	require.NoError(t, snap.Refresh(context.Background()))

	assert.Equal(t, 1, snap.Len())
	_, ok := snap.Lookup("S003")
	assert.True(t, ok)
	_, ok = snap.Lookup("S001")
	assert.False(t, ok)

	// The slice handed out before the reload is untouched.
	assert.Len(t, before, 2)
	assert.Equal(t, "S001", before[0].IdentityID)
}

// flakyEnrollmentStore delegates until told to fail.
type flakyEnrollmentStore struct {
	inner *memory.EnrollmentStore
	fail  bool
}

func (s *flakyEnrollmentStore) LoadAll(ctx context.Context) ([]types.Enrollment, error) {
	if s.fail {
		return nil, errors.New("connection refused")
	}
	return s.inner.LoadAll(ctx)
}

func TestEnrollmentSnapshot_FailedRefreshKeepsOldSnapshot(t *testing.T) {
	st := &flakyEnrollmentStore{inner: memory.NewEnrollmentStore(testEnrollments)}
	snap := service.NewEnrollmentSnapshot(st, service.SnapshotConfig{}, silentLogger(), nil)
	require.NoError(t, snap.Refresh(context.Background()))
	require.Equal(t, 2, snap.Len())

	st.fail = true
	require.Error(t, snap.Refresh(context.Background()))

	// The previous snapshot stays installed.
	assert.Equal(t, 2, snap.Len())
	_, ok := snap.Lookup("S001")
	assert.True(t, ok)
}

func TestEnrollmentSnapshot_UnreachableStoreAtStartup(t *testing.T) {
	snap := service.NewEnrollmentSnapshot(failingEnrollmentStore{}, service.SnapshotConfig{}, silentLogger(), nil)
	require.Error(t, snap.Refresh(context.Background()))
	assert.Equal(t, 0, snap.Len())
}
