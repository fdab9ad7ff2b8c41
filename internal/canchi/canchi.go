// Package canchi computes Heavenly Stem / Earthly Branch (Can Chi) identities
// for years, months, days and hours of the Vietnamese lunar calendar.
package canchi

import "time"

// Cycle lengths of the sexagesimal system.
const (
	StemCount   = 10
	BranchCount = 12
	CycleLength = 60
)

// Stem is one of the ten Heavenly Stems, indexed 0 (Giáp) to 9 (Quý).
type Stem int

// Branch is one of the twelve Earthly Branches, indexed 0 (Tý) to 11 (Hợi).
type Branch int

var stemNames = [StemCount]string{
	"Giáp", "Ất", "Bính", "Đinh", "Mậu", "Kỷ", "Canh", "Tân", "Nhâm", "Quý",
}

var branchNames = [BranchCount]string{
	"Tý", "Sửu", "Dần", "Mão", "Thìn", "Tỵ", "Ngọ", "Mùi", "Thân", "Dậu", "Tuất", "Hợi",
}

// String returns the Vietnamese label of the stem.
func (s Stem) String() string {
	return stemNames[mod(int(s), StemCount)]
}

// String returns the Vietnamese label of the branch.
func (b Branch) String() string {
	return branchNames[mod(int(b), BranchCount)]
}

// MarshalText renders the stem by name in JSON and other text encodings.
func (s Stem) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// MarshalText renders the branch by name in JSON and other text encodings.
func (b Branch) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Add moves the branch n steps around the twelve-branch ring.
func (b Branch) Add(n int) Branch {
	return Branch(mod(int(b)+n, BranchCount))
}

// IsYang reports whether the stem is of the yang polarity (even index).
func (s Stem) IsYang() bool {
	return mod(int(s), 2) == 0
}

// Pair is an ordered Stem/Branch combination, one of the sixty terms of the cycle.
type Pair struct {
	Stem   Stem   `json:"stem"`
	Branch Branch `json:"branch"`
}

// String renders the pair as "Stem Branch", e.g. "Giáp Thìn".
func (p Pair) String() string {
	return p.Stem.String() + " " + p.Branch.String()
}

// Index returns the position of the pair in the sixty-term cycle, or -1 when
// the stem and branch have different parity and therefore never combine.
func (p Pair) Index() int {
	s, b := mod(int(p.Stem), StemCount), mod(int(p.Branch), BranchCount)
	if s%2 != b%2 {
		return -1
	}
	// Solve i ≡ s (mod 10), i ≡ b (mod 12) by walking the stem residue class.
	for i := s; i < CycleLength; i += StemCount {
		if i%BranchCount == b {
			return i
		}
	}
	return -1
}

// Valid reports whether the pair belongs to the sixty-term cycle.
func (p Pair) Valid() bool {
	return p.Index() >= 0
}

// PairFromIndex returns the i-th pair of the cycle (i is taken modulo 60).
func PairFromIndex(i int) Pair {
	i = mod(i, CycleLength)
	return Pair{Stem: Stem(i % StemCount), Branch: Branch(i % BranchCount)}
}

// YearPair returns the Can Chi of a lunar year.
func YearPair(lunarYear int) Pair {
	return Pair{
		Stem:   Stem(mod(lunarYear-4, StemCount)),
		Branch: Branch(mod(lunarYear-4, BranchCount)),
	}
}

// MonthPair returns the Can Chi of a lunar month. Month 1 always carries the
// branch Dần; the stem follows from the year stem.
func MonthPair(lunarYear, lunarMonth int) Pair {
	yearStem := mod(lunarYear-4, StemCount)
	return Pair{
		Stem:   Stem(mod((yearStem%5)*2+2+(lunarMonth-1), StemCount)),
		Branch: Branch(mod(lunarMonth+1, BranchCount)),
	}
}

// DayPair returns the Can Chi of a Gregorian civil date. Only the calendar
// fields of t are used; its clock and location are ignored.
func DayPair(t time.Time) Pair {
	jd := JulianDayNumber(t.Year(), int(t.Month()), t.Day())
	return Pair{
		Stem:   Stem(mod(jd+9, StemCount)),
		Branch: Branch(mod(jd+1, BranchCount)),
	}
}

// HourPair returns the Can Chi of a two-hour block on a day with the given stem.
func HourPair(dayStem Stem, hour Branch) Pair {
	return Pair{
		Stem:   Stem(mod((int(dayStem)%5)*2+int(hour), StemCount)),
		Branch: Branch(mod(int(hour), BranchCount)),
	}
}

// HourBranch maps a clock hour (0-23) to its two-hour block. 23:00 and 00:00
// both fall in Tý.
func HourBranch(hour int) Branch {
	return Branch(mod((hour+1)/2, BranchCount))
}

// JulianDayNumber returns the Julian Day Number of a proleptic Gregorian date
// using the Fliegel–Van Flandern integer form.
func JulianDayNumber(year, month, day int) int {
	a := (14 - month) / 12
	y := year + 4800 - a
	m := month + 12*a - 3
	return day + (153*m+2)/5 + 365*y + y/4 - y/100 + y/400 - 32045
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}
