package almanac

import "github.com/tartampluch/go-amlich/internal/canchi"

// Element is one of the Five Elements (Ngũ Hành).
type Element string

const (
	Metal Element = "Kim"
	Wood  Element = "Mộc"
	Water Element = "Thủy"
	Fire  Element = "Hỏa"
	Earth Element = "Thổ"
)

// Elements lists the five elements in generation order.
var Elements = []Element{Wood, Fire, Earth, Metal, Water}

// generates maps each element to the one it produces (tương sinh).
var generates = map[Element]Element{
	Wood:  Fire,
	Fire:  Earth,
	Earth: Metal,
	Metal: Water,
	Water: Wood,
}

// destroys maps each element to the one it overcomes (tương khắc).
var destroys = map[Element]Element{
	Wood:  Earth,
	Earth: Water,
	Water: Fire,
	Fire:  Metal,
	Metal: Wood,
}

// Generates reports whether e produces other.
func (e Element) Generates(other Element) bool {
	return generates[e] == other
}

// Destroys reports whether e overcomes other.
func (e Element) Destroys(other Element) bool {
	return destroys[e] == other
}

// branchElements is indexed by branch: Tý Thủy, Sửu Thổ, Dần Mộc, ...
var branchElements = [canchi.BranchCount]Element{
	Water, Earth, Wood, Wood, Earth, Fire,
	Fire, Earth, Metal, Metal, Earth, Water,
}

// BranchElement returns the element of an earthly branch.
func BranchElement(b canchi.Branch) Element {
	return branchElements[mod(int(b), canchi.BranchCount)]
}
