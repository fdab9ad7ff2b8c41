package tuvi

import "github.com/tartampluch/go-amlich/internal/canchi"

// StarType groups the stars of a chart.
type StarType string

const (
	Major   StarType = "major"
	Minor   StarType = "minor"
	Malefic StarType = "malefic"
)

// Star is a named body of the Tử Vi chart.
type Star struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Type       StarType `json:"type"`
	Benefic    bool     `json:"benefic"`
	Brightness int      `json:"brightness"`
}

// PlacedStar is a star together with the palace it landed in.
type PlacedStar struct {
	Star
	Position int           `json:"position"`
	Branch   canchi.Branch `json:"branch"`
}

// offsetStar pairs a star with its cyclic offset from a reference palace.
type offsetStar struct {
	Star
	offset int
}

// majorStars are placed from the Tử Vi anchor. Thiên Đồng/Liêm Trinh and
// Cự Môn/Thiên Tướng share an offset.
var majorStars = []offsetStar{
	{Star{"tu_vi", "Tử Vi", Major, true, 5}, 0},
	{Star{"thien_co", "Thiên Cơ", Major, true, 3}, 1},
	{Star{"thai_duong", "Thái Dương", Major, true, 4}, 2},
	{Star{"vu_khuc", "Vũ Khúc", Major, true, 4}, 3},
	{Star{"thien_dong", "Thiên Đồng", Major, true, 3}, 4},
	{Star{"liem_trinh", "Liêm Trinh", Major, false, 2}, 4},
	{Star{"thien_phu", "Thiên Phủ", Major, true, 5}, 5},
	{Star{"thai_am", "Thái Âm", Major, true, 4}, 6},
	{Star{"tham_lang", "Tham Lang", Major, false, 2}, 7},
	{Star{"cu_mon", "Cự Môn", Major, false, 2}, 8},
	{Star{"thien_tuong", "Thiên Tướng", Major, true, 4}, 8},
	{Star{"thien_luong", "Thiên Lương", Major, true, 4}, 9},
	{Star{"that_sat", "Thất Sát", Major, false, 3}, 10},
	{Star{"pha_quan", "Phá Quân", Major, false, 3}, 11},
}

// minorStars are placed from the birth hour.
var minorStars = []offsetStar{
	{Star{"van_xuong", "Văn Xương", Minor, true, 3}, 1},
	{Star{"van_khuc", "Văn Khúc", Minor, true, 3}, 5},
	{Star{"ta_phu", "Tả Phù", Minor, true, 4}, 7},
	{Star{"huu_bat", "Hữu Bật", Minor, true, 4}, 11},
}

// maleficStars are placed from the lunar year.
var maleficStars = []offsetStar{
	{Star{"kinh_duong", "Kình Dương", Malefic, false, 3}, 0},
	{Star{"da_la", "Đà La", Malefic, false, 3}, 6},
	{Star{"hoa_tinh", "Hỏa Tinh", Malefic, false, 2}, 3},
	{Star{"linh_tinh", "Linh Tinh", Malefic, false, 2}, 9},
}

// Stars returns every star a chart can hold, in placement order.
func Stars() []Star {
	out := make([]Star, 0, len(majorStars)+len(minorStars)+len(maleficStars))
	for _, group := range [][]offsetStar{majorStars, minorStars, maleficStars} {
		for _, s := range group {
			out = append(out, s.Star)
		}
	}
	return out
}

// place adds s to p unless a star with the same id is already there.
// The first placement wins.
func place(p *Palace, s Star) bool {
	for _, have := range p.Stars {
		if have.ID == s.ID {
			return false
		}
	}
	p.Stars = append(p.Stars, s)
	return true
}

// placeGroup puts each star of group at (from + offset) mod 12 and returns
// the stars it placed.
func placeGroup(palaces *[PalaceCount]Palace, from int, group []offsetStar) []PlacedStar {
	placed := make([]PlacedStar, 0, len(group))
	for _, s := range group {
		pos := mod(from+s.offset, PalaceCount)
		if place(&palaces[pos], s.Star) {
			placed = append(placed, PlacedStar{Star: s.Star, Position: pos, Branch: palaces[pos].Branch})
		}
	}
	return placed
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}
