package almanac

import (
	"fmt"

	"github.com/tartampluch/go-amlich/internal/canchi"
)

// NapAmUnknown is returned alongside ErrInvariant when a pair has no entry.
const NapAmUnknown = "?"

// NapAm is the Five-Element "sound" of a Stem/Branch pair.
type NapAm struct {
	Name    string  `json:"name"`
	Element Element `json:"element"`
}

// napAmSequence lists the thirty sounds in cycle order; each covers two
// consecutive pairs (Giáp Tý and Ất Sửu share Hải Trung Kim, and so on).
var napAmSequence = [canchi.CycleLength / 2]NapAm{
	{"Hải Trung Kim", Metal},
	{"Lư Trung Hỏa", Fire},
	{"Đại Lâm Mộc", Wood},
	{"Lộ Bàng Thổ", Earth},
	{"Kiếm Phong Kim", Metal},
	{"Sơn Đầu Hỏa", Fire},
	{"Giản Hạ Thủy", Water},
	{"Thành Đầu Thổ", Earth},
	{"Bạch Lạp Kim", Metal},
	{"Dương Liễu Mộc", Wood},
	{"Tuyền Trung Thủy", Water},
	{"Ốc Thượng Thổ", Earth},
	{"Tích Lịch Hỏa", Fire},
	{"Tùng Bách Mộc", Wood},
	{"Trường Lưu Thủy", Water},
	{"Sa Trung Kim", Metal},
	{"Sơn Hạ Hỏa", Fire},
	{"Bình Địa Mộc", Wood},
	{"Bích Thượng Thổ", Earth},
	{"Kim Bạch Kim", Metal},
	{"Phú Đăng Hỏa", Fire},
	{"Thiên Hà Thủy", Water},
	{"Đại Trạch Thổ", Earth},
	{"Thoa Xuyến Kim", Metal},
	{"Tang Đố Mộc", Wood},
	{"Đại Khê Thủy", Water},
	{"Sa Trung Thổ", Earth},
	{"Thiên Thượng Hỏa", Fire},
	{"Thạch Lựu Mộc", Wood},
	{"Đại Hải Thủy", Water},
}

// napAmTable is keyed by pair and built once at init; it is never written afterwards.
var napAmTable = func() map[canchi.Pair]NapAm {
	t := make(map[canchi.Pair]NapAm, canchi.CycleLength)
	for i := 0; i < canchi.CycleLength; i++ {
		t[canchi.PairFromIndex(i)] = napAmSequence[i/2]
	}
	return t
}()

// LookupNapAm returns the sound of a pair. A pair outside the sixty-term
// cycle yields NapAmUnknown and an ErrInvariant error.
func LookupNapAm(p canchi.Pair) (NapAm, error) {
	n, ok := napAmTable[p]
	if !ok {
		return NapAm{Name: NapAmUnknown}, fmt.Errorf("%w: nap am for %d/%d", ErrInvariant, p.Stem, p.Branch)
	}
	return n, nil
}
