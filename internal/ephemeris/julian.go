package ephemeris

import (
	"math"
	"time"
)

const (
	// J2000 is the Julian Day of 2000-01-01 12:00 TT (treated as UT here)
	J2000 = 2451545.0

	// schlyterEpoch is JD of 1999-12-31 00:00 UT, day zero of the element polynomials
	schlyterEpoch = 2451543.5

	unixEpochJD = 2440587.5

	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi
)

// JulianDay converts an instant to a Julian Day number (UT)
func JulianDay(t time.Time) float64 {
	t = t.UTC()
	secs := float64(t.Unix()) + float64(t.Nanosecond())/1e9
	return secs/86400 + unixEpochJD
}

// JulianCenturies returns centuries since J2000
func JulianCenturies(jd float64) float64 {
	return (jd - J2000) / 36525
}

// Obliquity returns the mean obliquity of the ecliptic in degrees
func Obliquity(jd float64) float64 {
	return 23.4393 - 3.563e-7*(jd-schlyterEpoch)
}

// GMST returns Greenwich mean sidereal time in degrees [0,360)
func GMST(jd float64) float64 {
	t := JulianCenturies(jd)
	gmst := 280.46061837 +
		360.98564736629*(jd-J2000) +
		0.000387933*t*t -
		t*t*t/38710000
	return norm(gmst)
}

// LocalSiderealTime returns LST in degrees for an east-positive longitude
func LocalSiderealTime(jd, eastLongitude float64) float64 {
	return norm(GMST(jd) + eastLongitude)
}

// Ayanamsa returns the Lahiri precession offset (degrees) subtracted in sidereal mode
func Ayanamsa(jd float64) float64 {
	years := (jd - J2000) / 365.25
	return 23.853 + years*50.2388/3600
}

func norm(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

func sind(x float64) float64 { return math.Sin(x * deg2rad) }
func cosd(x float64) float64 { return math.Cos(x * deg2rad) }
