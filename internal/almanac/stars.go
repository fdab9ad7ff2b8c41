package almanac

import "github.com/tartampluch/go-amlich/internal/canchi"

// DayStar is an auspicious (cát tinh) or inauspicious (hung tinh) star of a day.
type DayStar struct {
	Name  string `json:"name"`
	Lucky bool   `json:"lucky"`
}

// dayStarRule decides whether a star is present on a day.
type dayStarRule struct {
	star    DayStar
	present func(lunarMonth, lunarDay int, day canchi.Pair) bool
}

// Months are 1-based; tables below are indexed by month-1.
var (
	nguyetDucStem = [4]canchi.Stem{2, 0, 8, 6} // Bính, Giáp, Nhâm, Canh, repeating every four months
	thuTuBranch   = [12]canchi.Branch{10, 4, 11, 5, 0, 6, 1, 7, 2, 8, 3, 9}
	tamNuongDays  = map[int]bool{3: true, 7: true, 13: true, 18: true, 22: true, 27: true}
	nguyetKyDays  = map[int]bool{5: true, 14: true, 23: true}
)

// dayStarRules are evaluated in declaration order, which fixes the order of
// the returned star lists.
var dayStarRules = []dayStarRule{
	{DayStar{"Thiên Hỷ", true}, func(m, _ int, p canchi.Pair) bool {
		return p.Branch == canchi.Branch(mod(m+9, 12))
	}},
	{DayStar{"Sinh Khí", true}, func(m, _ int, p canchi.Pair) bool {
		return p.Branch == canchi.Branch(mod(m-1, 12))
	}},
	{DayStar{"Nguyệt Đức", true}, func(m, _ int, p canchi.Pair) bool {
		return p.Stem == nguyetDucStem[mod(m-1, 4)]
	}},
	{DayStar{"Lục Hợp", true}, func(m, _ int, p canchi.Pair) bool {
		// Six-harmony partner of the month branch: the two indices sum to 1 mod 12.
		return p.Branch == canchi.Branch(mod(12-m, 12))
	}},
	{DayStar{"Nguyệt Phá", false}, func(m, _ int, p canchi.Pair) bool {
		return p.Branch == canchi.Branch(mod(m+7, 12))
	}},
	{DayStar{"Tam Nương", false}, func(_, d int, _ canchi.Pair) bool {
		return tamNuongDays[d]
	}},
	{DayStar{"Nguyệt Kỵ", false}, func(_, d int, _ canchi.Pair) bool {
		return nguyetKyDays[d]
	}},
	{DayStar{"Thụ Tử", false}, func(m, _ int, p canchi.Pair) bool {
		return p.Branch == thuTuBranch[mod(m-1, 12)]
	}},
}

// DayStars returns the lucky and unlucky stars present on a lunar day.
func DayStars(lunarMonth, lunarDay int, day canchi.Pair) (lucky, unlucky []DayStar) {
	lucky, unlucky = []DayStar{}, []DayStar{}
	for _, r := range dayStarRules {
		if !r.present(lunarMonth, lunarDay, day) {
			continue
		}
		if r.star.Lucky {
			lucky = append(lucky, r.star)
		} else {
			unlucky = append(unlucky, r.star)
		}
	}
	return lucky, unlucky
}
