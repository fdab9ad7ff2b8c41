package lunar

import (
	"math"

	"github.com/tartampluch/go-amlich/internal/canchi"
)

// Astronomical helpers for the new-moon / major-solar-term computation.
// Day numbers are Julian Day Numbers; timeZone is the offset in hours east of UTC.

const (
	// synodicMonth is the mean length of a lunation in days.
	synodicMonth = 29.530588853
	// newMoonEpoch is the JD of the new moon of 1900-01-01 (k = 0).
	newMoonEpoch = 2415021.076998695
	// epochDay is the integer day number of newMoonEpoch.
	epochDay = 2415021
)

// newMoon returns the Julian date of the k-th new moon after the 1900 epoch.
func newMoon(k int) float64 {
	kf := float64(k)
	t := kf / 1236.85
	t2 := t * t
	t3 := t2 * t
	dr := math.Pi / 180

	jd1 := 2415020.75933 + 29.53058868*kf + 0.0001178*t2 - 0.000000155*t3
	jd1 += 0.00033 * math.Sin((166.56+132.87*t-0.009173*t2)*dr)

	m := 359.2242 + 29.10535608*kf - 0.0000333*t2 - 0.00000347*t3    // sun mean anomaly
	mpr := 306.0253 + 385.81691806*kf + 0.0107306*t2 + 0.00001236*t3 // moon mean anomaly
	f := 21.2964 + 390.67050646*kf - 0.0016528*t2 - 0.00000239*t3    // moon argument of latitude

	c1 := (0.1734-0.000393*t)*math.Sin(m*dr) + 0.0021*math.Sin(2*dr*m)
	c1 = c1 - 0.4068*math.Sin(mpr*dr) + 0.0161*math.Sin(dr*2*mpr)
	c1 = c1 - 0.0004*math.Sin(dr*3*mpr)
	c1 = c1 + 0.0104*math.Sin(dr*2*f) - 0.0051*math.Sin(dr*(m+mpr))
	c1 = c1 - 0.0074*math.Sin(dr*(m-mpr)) + 0.0004*math.Sin(dr*(2*f+m))
	c1 = c1 - 0.0004*math.Sin(dr*(2*f-m)) - 0.0006*math.Sin(dr*(2*f+mpr))
	c1 = c1 + 0.0010*math.Sin(dr*(2*f-mpr)) + 0.0005*math.Sin(dr*(2*mpr+m))

	var deltaT float64
	if t < -11 {
		deltaT = 0.001 + 0.000839*t + 0.0002261*t2 - 0.00000845*t3 - 0.000000081*t*t3
	} else {
		deltaT = -0.000278 + 0.000265*t + 0.000262*t2
	}
	return jd1 + c1 - deltaT
}

// sunLongitude returns the apparent solar longitude in radians, normalised to [0, 2π).
func sunLongitude(jdn float64) float64 {
	t := (jdn - 2451545.0) / 36525
	t2 := t * t
	dr := math.Pi / 180

	m := 357.52910 + 35999.05030*t - 0.0001559*t2 - 0.00000048*t*t2
	l0 := 280.46645 + 36000.76983*t + 0.0003032*t2
	dl := (1.914600 - 0.004817*t - 0.000014*t2) * math.Sin(dr*m)
	dl += (0.019993-0.000101*t)*math.Sin(dr*2*m) + 0.000290*math.Sin(dr*3*m)

	l := (l0 + dl) * dr
	return l - 2*math.Pi*math.Floor(l/(2*math.Pi))
}

// sunSector returns which of the 12 major-term sectors (0..11) the sun is in
// at local midnight starting day dayNumber.
func sunSector(dayNumber int, timeZone float64) int {
	return int(math.Floor(sunLongitude(float64(dayNumber)-0.5-timeZone/24) / math.Pi * 6))
}

// newMoonDay returns the local day number on which the k-th new moon falls.
func newMoonDay(k int, timeZone float64) int {
	return int(math.Floor(newMoon(k) + 0.5 + timeZone/24))
}

// month11Start returns the day number of the first day of lunar month 11
// (the month containing the winter solstice) of the given Gregorian year.
func month11Start(year int, timeZone float64) int {
	off := float64(canchi.JulianDayNumber(year, 12, 31) - epochDay)
	k := int(math.Floor(off / synodicMonth))
	nm := newMoonDay(k, timeZone)
	if sunSector(nm, timeZone) >= 9 {
		nm = newMoonDay(k-1, timeZone)
	}
	return nm
}

// leapMonthOffset returns the offset, counted from month 11, of the first
// month without a major solar term in a 13-month year starting at a11.
func leapMonthOffset(a11 int, timeZone float64) int {
	k := int(math.Floor((float64(a11)-newMoonEpoch)/synodicMonth + 0.5))
	i := 1
	arc := sunSector(newMoonDay(k+i, timeZone), timeZone)
	for {
		last := arc
		i++
		arc = sunSector(newMoonDay(k+i, timeZone), timeZone)
		if arc == last || i >= 14 {
			break
		}
	}
	return i - 1
}
