package building

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abansal0486/parking-admin/internal/banned"
	"github.com/abansal0486/parking-admin/internal/quota"
)

func TestNew(t *testing.T) {
	b, err := New("  Harbour View ", " HV ")
	require.NoError(t, err)
	assert.Equal(t, "Harbour View", b.Name)
	assert.Equal(t, "HV", b.Code)

	period, nights := b.ResolveQuota()
	assert.Equal(t, quota.PeriodOnce, period)
	assert.Equal(t, 0, nights)

	_, err = New("   ", "HV")
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestSetQuotaReplacesPeriod(t *testing.T) {
	b, err := New("Harbour View", "")
	require.NoError(t, err)

	require.NoError(t, b.SetQuota(quota.PeriodWeekly, 3))
	require.NoError(t, b.SetQuota(quota.PeriodYearly, 30))

	period, nights := b.ResolveQuota()
	assert.Equal(t, quota.PeriodYearly, period)
	assert.Equal(t, 30, nights)
	assert.Equal(t, 0, b.Quota.Nights(quota.PeriodWeekly))

	assert.Error(t, b.SetQuota(quota.PeriodMonthly, 0))
	_, nights = b.ResolveQuota()
	assert.Equal(t, 30, nights, "failed update leaves the quota alone")
}

func TestIsBannedWithoutRegistry(t *testing.T) {
	b := &Building{Name: "Harbour View"}
	assert.False(t, b.IsBanned("AB123"))
	assert.True(t, b.RegistryCurrent())
}

func TestRegistryCurrent(t *testing.T) {
	src := banned.Source{Ref: "r-1", FileName: "banned.csv"}

	testCases := []struct {
		name   string
		ref    *banned.Source
		load   func(r *banned.Registry)
		expect bool
	}{
		{name: "no file, empty registry", ref: nil, load: func(*banned.Registry) {}, expect: true},
		{name: "no file, stale plates", ref: nil, load: func(r *banned.Registry) { r.Load(src, []string{"AB123"}) }, expect: false},
		{name: "file not loaded yet", ref: &src, load: func(*banned.Registry) {}, expect: false},
		{name: "matching ref", ref: &src, load: func(r *banned.Registry) { r.Load(src, []string{"AB123"}) }, expect: true},
		{name: "replaced file", ref: &banned.Source{Ref: "r-2"}, load: func(r *banned.Registry) { r.Load(src, []string{"AB123"}) }, expect: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := &Building{Name: "Harbour View", BannedSource: tc.ref}
			tc.load(b.Registry())
			assert.Equal(t, tc.expect, b.RegistryCurrent())
		})
	}
}

func TestAttachRegistry(t *testing.T) {
	r := banned.NewRegistry()
	r.LoadFromList([]string{"xy 987"})

	b := &Building{Name: "Harbour View"}
	b.AttachRegistry(r)
	assert.True(t, b.IsBanned("XY 987"))
	assert.Same(t, r, b.Registry())
}
