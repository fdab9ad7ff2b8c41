package almanac

import "github.com/tartampluch/go-amlich/internal/canchi"

// Quality grades a day label.
type Quality string

const (
	Good    Quality = "good"
	Neutral Quality = "neutral"
	Bad     Quality = "bad"
)

// Officer is one of the twelve day officers (Thập Nhị Trực).
type Officer struct {
	Index   int     `json:"index"`
	Name    string  `json:"name"`
	Quality Quality `json:"quality"`
}

// OfficerCycle is the fixed Kiến Trừ sequence.
var OfficerCycle = [12]Officer{
	{0, "Kiến", Neutral},
	{1, "Trừ", Good},
	{2, "Mãn", Neutral},
	{3, "Bình", Good},
	{4, "Định", Good},
	{5, "Chấp", Neutral},
	{6, "Phá", Bad},
	{7, "Nguy", Bad},
	{8, "Thành", Good},
	{9, "Thâu", Neutral},
	{10, "Khai", Good},
	{11, "Bế", Bad},
}

// OfficerFor returns the officer governing a lunar day.
func OfficerFor(lunarMonth, lunarDay int) Officer {
	return OfficerCycle[mod(lunarMonth+lunarDay-2, 12)]
}

// ZodiacStar is one of the twelve Hoàng đạo / Hắc đạo day spirits.
type ZodiacStar struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Lucky bool   `json:"lucky"`
	hours [6]canchi.Branch
}

// Six lucky-hour patterns, one per opposing branch pair (Tý/Ngọ, Sửu/Mùi, ...).
var (
	hoursTyNgo   = [6]canchi.Branch{0, 1, 3, 6, 8, 9}
	hoursSuuMui  = [6]canchi.Branch{2, 3, 5, 8, 10, 11}
	hoursDanThan = [6]canchi.Branch{0, 1, 4, 5, 7, 10}
	hoursMaoDau  = [6]canchi.Branch{0, 2, 3, 6, 7, 9}
	hoursThinTua = [6]canchi.Branch{2, 4, 5, 8, 9, 11}
	hoursTyHoi   = [6]canchi.Branch{1, 4, 6, 7, 10, 11}
)

// ZodiacCycle is the fixed sequence of day spirits.
var ZodiacCycle = [12]ZodiacStar{
	{0, "Thanh Long", true, hoursTyNgo},
	{1, "Minh Đường", true, hoursSuuMui},
	{2, "Thiên Hình", false, hoursDanThan},
	{3, "Chu Tước", false, hoursMaoDau},
	{4, "Kim Quỹ", true, hoursThinTua},
	{5, "Kim Đường", true, hoursTyHoi},
	{6, "Bạch Hổ", false, hoursTyNgo},
	{7, "Ngọc Đường", true, hoursSuuMui},
	{8, "Thiên Lao", false, hoursDanThan},
	{9, "Huyền Vũ", false, hoursMaoDau},
	{10, "Tư Mệnh", true, hoursThinTua},
	{11, "Câu Trần", false, hoursTyHoi},
}

// ZodiacFor returns the day spirit of a lunar day.
func ZodiacFor(lunarDay int) ZodiacStar {
	return ZodiacCycle[mod(lunarDay-1, 12)]
}

// LuckyHours returns the six auspicious two-hour blocks of a day spirit.
func LuckyHours(z ZodiacStar) []canchi.Branch {
	out := make([]canchi.Branch, len(z.hours))
	copy(out, z.hours[:])
	return out
}

// ConflictBranches returns the three branches at +3, +6 and +9 from the day
// branch; people born in those years should avoid major undertakings that day.
func ConflictBranches(day canchi.Branch) []canchi.Branch {
	return []canchi.Branch{day.Add(3), day.Add(6), day.Add(9)}
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}
