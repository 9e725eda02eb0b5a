package houses

import (
	"fmt"
	"math"

	"github.com/wonny/astrobet/internal/contracts"
)

const (
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi

	placidusMaxIter = 100
	placidusEpsilon = 1e-10
)

func sind(x float64) float64 { return math.Sin(x * deg2rad) }
func cosd(x float64) float64 { return math.Cos(x * deg2rad) }
func tand(x float64) float64 { return math.Tan(x * deg2rad) }

// midheaven is the ecliptic longitude culminating at RAMC
func midheaven(ramc, eps float64) float64 {
	return contracts.NormalizeDegrees(math.Atan2(sind(ramc), cosd(ramc)*cosd(eps)) * rad2deg)
}

// ascendant is the ecliptic longitude rising on the eastern horizon
func ascendant(ramc, eps, lat float64) float64 {
	y := cosd(ramc)
	x := -(sind(ramc)*cosd(eps) + tand(lat)*sind(eps))
	return contracts.NormalizeDegrees(math.Atan2(y, x) * rad2deg)
}

// eclipticFromRA returns the ecliptic longitude (latitude zero) whose right ascension is ra
func eclipticFromRA(ra, eps float64) float64 {
	return contracts.NormalizeDegrees(math.Atan2(sind(ra), cosd(ra)*cosd(eps)) * rad2deg)
}

// withOpposites fills cusps 4-9 from cusps 10-3
func withOpposites(c1, c2, c3, c10, c11, c12 float64) [12]float64 {
	var cusps [12]float64
	cusps[0], cusps[1], cusps[2] = c1, c2, c3
	cusps[9], cusps[10], cusps[11] = c10, c11, c12
	for i := 3; i < 9; i++ {
		cusps[i] = contracts.NormalizeDegrees(cusps[(i+6)%12] + 180)
	}
	return cusps
}

func equalCusps(asc float64) [12]float64 {
	var cusps [12]float64
	for i := range cusps {
		cusps[i] = contracts.NormalizeDegrees(asc + float64(i)*30)
	}
	return cusps
}

// porphyryCusps trisects each ecliptic quadrant between the angles
func porphyryCusps(asc, mc float64) [12]float64 {
	upper := contracts.NormalizeDegrees(asc - mc) // MC -> ASC
	lower := 180 - upper                          // ASC -> IC

	return withOpposites(
		asc,
		contracts.NormalizeDegrees(asc+lower/3),
		contracts.NormalizeDegrees(asc+2*lower/3),
		mc,
		contracts.NormalizeDegrees(mc+upper/3),
		contracts.NormalizeDegrees(mc+2*upper/3),
	)
}

// placidusCusps trisects each body's diurnal/nocturnal semi-arc in time.
// Cusps 11/12 sit at RAMC + SDA/3 and RAMC + 2·SDA/3; cusps 2/3 at
// RAMC + 180 − 2·NSA/3 and RAMC + 180 − NSA/3, where the semi-arcs depend on
// the cusp's own declination, hence the fixed-point iteration.
func placidusCusps(ramc, eps, lat, asc, mc float64) ([12]float64, error) {
	c11, err := placidusCusp(ramc, eps, lat, func(sda float64) float64 { return ramc + sda/3 })
	if err != nil {
		return [12]float64{}, err
	}
	c12, err := placidusCusp(ramc, eps, lat, func(sda float64) float64 { return ramc + 2*sda/3 })
	if err != nil {
		return [12]float64{}, err
	}
	c2, err := placidusCusp(ramc, eps, lat, func(sda float64) float64 { return ramc + 180 - 2*(180-sda)/3 })
	if err != nil {
		return [12]float64{}, err
	}
	c3, err := placidusCusp(ramc, eps, lat, func(sda float64) float64 { return ramc + 180 - (180-sda)/3 })
	if err != nil {
		return [12]float64{}, err
	}

	return withOpposites(asc, c2, c3, mc, c11, c12), nil
}

// placidusCusp iterates ra = target(SDA(δ(λ(ra)))) to a fixed point
func placidusCusp(ramc, eps, lat float64, target func(sda float64) float64) (float64, error) {
	ra := target(90)
	for iter := 0; iter < placidusMaxIter; iter++ {
		lon := eclipticFromRA(ra, eps)
		dec := math.Asin(sind(eps)*sind(lon)) * rad2deg

		x := tand(lat) * tand(dec)
		if x <= -1 || x >= 1 {
			return 0, fmt.Errorf("%w: point never crosses the horizon", contracts.ErrPolarLatitude)
		}
		sda := 90 + math.Asin(x)*rad2deg

		next := target(sda)
		if abs(contracts.SignedDelta(next-ra)) < placidusEpsilon {
			return eclipticFromRA(next, eps), nil
		}
		ra = next
	}
	return 0, fmt.Errorf("%w: placidus iteration did not converge", contracts.ErrPolarLatitude)
}
