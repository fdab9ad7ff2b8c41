package almanac_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-amlich/internal/almanac"
	"github.com/tartampluch/go-amlich/internal/canchi"
	"github.com/tartampluch/go-amlich/internal/lunar"
)

// TestNapAm_CycleClosure checks that all sixty pairs have a sound and that
// each sound covers exactly two pairs.
func TestNapAm_CycleClosure(t *testing.T) {
	counts := make(map[string]int)
	for i := 0; i < canchi.CycleLength; i++ {
		n, err := almanac.LookupNapAm(canchi.PairFromIndex(i))
		require.NoError(t, err)
		assert.NotEqual(t, almanac.NapAmUnknown, n.Name)
		assert.NotEmpty(t, n.Element)
		counts[n.Name]++
	}
	assert.Len(t, counts, 30)
	for name, c := range counts {
		assert.Equal(t, 2, c, name)
	}
}

func TestNapAm_KnownValues(t *testing.T) {
	tests := []struct {
		pair canchi.Pair
		want string
		elem almanac.Element
	}{
		{canchi.YearPair(1984), "Hải Trung Kim", almanac.Metal}, // Giáp Tý
		{canchi.YearPair(2024), "Phú Đăng Hỏa", almanac.Fire},   // Giáp Thìn
		{canchi.YearPair(2025), "Phú Đăng Hỏa", almanac.Fire},   // Ất Tỵ
		{canchi.YearPair(1990), "Lộ Bàng Thổ", almanac.Earth},   // Canh Ngọ
		{canchi.YearPair(2043), "Đại Hải Thủy", almanac.Water},  // Quý Hợi
		{canchi.YearPair(1988), "Đại Lâm Mộc", almanac.Wood},    // Mậu Thìn
	}
	for _, tt := range tests {
		n, err := almanac.LookupNapAm(tt.pair)
		require.NoError(t, err)
		assert.Equal(t, tt.want, n.Name, tt.pair.String())
		assert.Equal(t, tt.elem, n.Element, tt.pair.String())
	}
}

// TestNapAm_InvalidPairIsInvariantViolation verifies the fail-closed path.
func TestNapAm_InvalidPairIsInvariantViolation(t *testing.T) {
	n, err := almanac.LookupNapAm(canchi.Pair{Stem: 0, Branch: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, almanac.ErrInvariant))
	assert.Equal(t, almanac.NapAmUnknown, n.Name)
}

func TestOfficerFor(t *testing.T) {
	assert.Equal(t, "Kiến", almanac.OfficerFor(1, 1).Name)
	assert.Equal(t, "Thành", almanac.OfficerFor(2, 8).Name)
	assert.Equal(t, "Phá", almanac.OfficerFor(1, 7).Name)
	assert.Equal(t, "Bế", almanac.OfficerFor(12, 1).Name)
	assert.Equal(t, "Kiến", almanac.OfficerFor(12, 2).Name)
}

func TestOfficerFor_Formula(t *testing.T) {
	for m := 1; m <= 12; m++ {
		for d := 1; d <= 30; d++ {
			o := almanac.OfficerFor(m, d)
			assert.Equal(t, (m+d-2)%12, o.Index)
		}
	}
	assert.Equal(t, almanac.Good, almanac.OfficerFor(2, 8).Quality)
	assert.Equal(t, almanac.Bad, almanac.OfficerFor(1, 7).Quality)
}

func TestZodiac(t *testing.T) {
	lucky := 0
	for _, z := range almanac.ZodiacCycle {
		hours := almanac.LuckyHours(z)
		assert.Len(t, hours, 6, z.Name)

		uniq := make(map[canchi.Branch]bool)
		for _, h := range hours {
			assert.GreaterOrEqual(t, int(h), 0)
			assert.Less(t, int(h), 12)
			uniq[h] = true
		}
		assert.Len(t, uniq, 6, "hours of %s must be distinct", z.Name)
		if z.Lucky {
			lucky++
		}
	}
	assert.Equal(t, 6, lucky, "half of the spirits are Hoàng đạo")

	assert.Equal(t, "Thanh Long", almanac.ZodiacFor(1).Name)
	assert.Equal(t, "Thanh Long", almanac.ZodiacFor(13).Name)
	assert.Equal(t, "Bạch Hổ", almanac.ZodiacFor(7).Name)
	assert.False(t, almanac.ZodiacFor(7).Lucky)
	assert.True(t, almanac.ZodiacFor(8).Lucky)
}

// TestLuckyHours_ReturnsCopy ensures callers cannot mutate the shared table.
func TestLuckyHours_ReturnsCopy(t *testing.T) {
	z := almanac.ZodiacFor(1)
	h := almanac.LuckyHours(z)
	h[0] = 11
	assert.Equal(t, canchi.Branch(0), almanac.LuckyHours(almanac.ZodiacFor(1))[0])
}

func TestConflictBranches(t *testing.T) {
	got := almanac.ConflictBranches(canchi.Branch(4)) // Thìn
	assert.Equal(t, []canchi.Branch{7, 10, 1}, got)   // Mùi, Tuất, Sửu

	got = almanac.ConflictBranches(canchi.Branch(11))
	assert.Equal(t, []canchi.Branch{2, 5, 8}, got)
}

func TestElementRelations(t *testing.T) {
	assert.True(t, almanac.Wood.Generates(almanac.Fire))
	assert.True(t, almanac.Water.Generates(almanac.Wood))
	assert.False(t, almanac.Fire.Generates(almanac.Wood))
	assert.True(t, almanac.Water.Destroys(almanac.Fire))
	assert.True(t, almanac.Metal.Destroys(almanac.Wood))
	assert.False(t, almanac.Wood.Destroys(almanac.Metal))
	assert.Len(t, almanac.Elements, 5)
}

func TestDayStars(t *testing.T) {
	// 7/1 Canh Tuất: Thiên Hỷ; Tam Nương and Thụ Tử.
	lucky, unlucky := almanac.DayStars(1, 7, canchi.Pair{Stem: 6, Branch: 10})
	assert.Equal(t, []almanac.DayStar{{Name: "Thiên Hỷ", Lucky: true}}, lucky)
	assert.Equal(t, []almanac.DayStar{{Name: "Tam Nương"}, {Name: "Thụ Tử"}}, unlucky)

	// 1/1 Giáp Thìn: nothing.
	lucky, unlucky = almanac.DayStars(1, 1, canchi.Pair{Stem: 0, Branch: 4})
	assert.Empty(t, lucky)
	assert.Empty(t, unlucky)
	assert.NotNil(t, lucky)

	// Nguyệt Kỵ on the 14th, Nguyệt Phá when the day branch opposes the month.
	_, unlucky = almanac.DayStars(3, 14, canchi.Pair{Stem: 0, Branch: 10})
	names := make([]string, 0, len(unlucky))
	for _, s := range unlucky {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "Nguyệt Kỵ")
	assert.Contains(t, names, "Nguyệt Phá")
}

// stubConverter returns a fixed lunar date.
type stubConverter struct {
	date lunar.Date
	err  error
}

func (s stubConverter) ToLunar(time.Time) (lunar.Date, error) { return s.date, s.err }
func (s stubConverter) ToSolar(lunar.Date) (time.Time, error) { return time.Time{}, s.err }

func TestIdentifyAndDescribe(t *testing.T) {
	conv := lunar.NewVietnamese()
	hanoi := time.FixedZone("ICT", 7*3600)

	id, err := almanac.Identify(conv, time.Date(2024, 2, 10, 18, 0, 0, 0, hanoi))
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), id.Solar)
	assert.Equal(t, lunar.Date{Day: 1, Month: 1, Year: 2024}, id.Lunar)
	assert.Equal(t, "Giáp Thìn", id.Year.String())
	assert.Equal(t, "Bính Dần", id.Month.String())
	assert.Equal(t, "Giáp Thìn", id.Day.String())

	attrs, err := almanac.Describe(id)
	require.NoError(t, err)
	assert.Equal(t, "Phú Đăng Hỏa", attrs.NapAm.Name)
	assert.Equal(t, "Kiến", attrs.Officer.Name)
	assert.Equal(t, "Thanh Long", attrs.Zodiac.Name)
	assert.Len(t, attrs.LuckyHours, 6)
	assert.Len(t, attrs.ConflictBranches, 3)

	// Dog (Tuất) year people clash with a Thìn day.
	assert.True(t, attrs.InConflict(1994))
	assert.False(t, attrs.InConflict(1984))
}

func TestIdentify_ConverterError(t *testing.T) {
	_, err := almanac.Identify(stubConverter{err: lunar.ErrOutOfRange}, time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, lunar.ErrOutOfRange)
}

// TestDescribe_Deterministic checks repeated reads are identical.
func TestDescribe_Deterministic(t *testing.T) {
	conv := stubConverter{date: lunar.Date{Day: 8, Month: 2, Year: 2024}}
	d := time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC)

	id1, err := almanac.Identify(conv, d)
	require.NoError(t, err)
	id2, err := almanac.Identify(conv, d)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	a1, err := almanac.Describe(id1)
	require.NoError(t, err)
	a2, err := almanac.Describe(id2)
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
	assert.Equal(t, "Thành", a1.Officer.Name)
	assert.True(t, a1.Zodiac.Lucky)
}

func TestBranchElement(t *testing.T) {
	assert.Equal(t, almanac.Water, almanac.BranchElement(0))
	assert.Equal(t, almanac.Wood, almanac.BranchElement(2))
	assert.Equal(t, almanac.Fire, almanac.BranchElement(6))
	assert.Equal(t, almanac.Metal, almanac.BranchElement(9))
	assert.Equal(t, almanac.Water, almanac.BranchElement(11))

	counts := make(map[almanac.Element]int)
	for b := 0; b < canchi.BranchCount; b++ {
		counts[almanac.BranchElement(canchi.Branch(b))]++
	}
	assert.Equal(t, 4, counts[almanac.Earth], "the four storehouse branches are Earth")
}
