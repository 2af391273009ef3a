package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSet_SortsAndDedupes(t *testing.T) {
	set := NewSet([]GameVersion{
		{ID: "1.18", ReleaseTime: at(28)},
		{ID: "1.17", ReleaseTime: at(8)},
		{ID: "1.18", ReleaseTime: at(2)},
	})

	assert.Equal(t, []string{"1.17", "1.18"}, set.IDs())
	v, ok := set.Lookup("1.18")
	assert.True(t, ok)
	assert.Equal(t, at(28), v.ReleaseTime)
}

func TestGameVersion_IsAprilFools(t *testing.T) {
	v := GameVersion{ReleaseTime: time.Date(2020, time.April, 1, 23, 30, 0, 0, time.UTC)}
	assert.True(t, v.IsAprilFools())

	v.ReleaseTime = time.Date(2020, time.April, 2, 0, 30, 0, 0, time.FixedZone("CEST", 2*3600))
	assert.True(t, v.IsAprilFools(), "evaluated in UTC")

	v.ReleaseTime = time.Date(2020, time.March, 31, 12, 0, 0, 0, time.UTC)
	assert.False(t, v.IsAprilFools())
}

func TestSet_Newest(t *testing.T) {
	_, ok := Set{}.Newest()
	assert.False(t, ok)

	v, ok := testCatalog().Newest()
	assert.True(t, ok)
	assert.Equal(t, "1.18", v.ID)
}

func TestGameVersion_IsSnapshot(t *testing.T) {
	assert.True(t, GameVersion{Kind: KindSnapshot}.IsSnapshot())
	assert.False(t, GameVersion{Kind: KindRelease}.IsSnapshot())
	assert.False(t, GameVersion{Kind: KindOldBeta}.IsSnapshot())
	assert.False(t, GameVersion{Kind: KindOldAlpha}.IsSnapshot())
}
