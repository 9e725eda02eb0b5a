package ephemeris

import (
	"math"

	"github.com/wonny/astrobet/internal/contracts"
)

// orbit holds Keplerian elements at one instant. Angles in degrees.
type orbit struct {
	N float64 // longitude of ascending node
	i float64 // inclination
	w float64 // argument of perihelion
	a float64 // semi-major axis (AU; Earth radii for the Moon)
	e float64 // eccentricity
	M float64 // mean anomaly
}

// elementsAt evaluates the low-precision element polynomials at d days from schlyterEpoch
// ⭐ SSOT: 궤도 요소 상수는 여기서만
func elementsAt(b contracts.Body, d float64) orbit {
	switch b {
	case contracts.Sun:
		return orbit{0, 0, 282.9404 + 4.70935e-5*d, 1, 0.016709 - 1.151e-9*d, 356.0470 + 0.9856002585*d}
	case contracts.Moon:
		return orbit{125.1228 - 0.0529538083*d, 5.1454, 318.0634 + 0.1643573223*d, 60.2666, 0.054900, 115.3654 + 13.0649929509*d}
	case contracts.Mercury:
		return orbit{48.3313 + 3.24587e-5*d, 7.0047 + 5.00e-8*d, 29.1241 + 1.01444e-5*d, 0.387098, 0.205635 + 5.59e-10*d, 168.6562 + 4.0923344368*d}
	case contracts.Venus:
		return orbit{76.6799 + 2.46590e-5*d, 3.3946 + 2.75e-8*d, 54.8910 + 1.38374e-5*d, 0.723330, 0.006773 - 1.302e-9*d, 48.0052 + 1.6021302244*d}
	case contracts.Mars:
		return orbit{49.5574 + 2.11081e-5*d, 1.8497 - 1.78e-8*d, 286.5016 + 2.92961e-5*d, 1.523688, 0.093405 + 2.516e-9*d, 18.6021 + 0.5240207766*d}
	case contracts.Jupiter:
		return orbit{100.4542 + 2.76854e-5*d, 1.3030 - 1.557e-7*d, 273.8777 + 1.64505e-5*d, 5.20256, 0.048498 + 4.469e-9*d, 19.8950 + 0.0830853001*d}
	case contracts.Saturn:
		return orbit{113.6634 + 2.38980e-5*d, 2.4886 - 1.081e-7*d, 339.3939 + 2.97661e-5*d, 9.55475, 0.055546 - 9.499e-9*d, 316.9670 + 0.0334442282*d}
	case contracts.Uranus:
		return orbit{74.0005 + 1.3978e-5*d, 0.7733 + 1.9e-8*d, 96.6612 + 3.0565e-5*d, 19.18171 - 1.55e-8*d, 0.047318 + 7.45e-9*d, 142.5905 + 0.011725806*d}
	case contracts.Neptune:
		return orbit{131.7806 + 3.0173e-5*d, 1.7700 - 2.55e-7*d, 272.8461 - 6.027e-6*d, 30.05826 + 3.313e-8*d, 0.008606 + 2.15e-9*d, 260.2471 + 0.005995147*d}
	}
	return orbit{}
}

// eccentricAnomaly solves Kepler's equation M = E - e·sin(E), in degrees
func eccentricAnomaly(M, e float64) float64 {
	m := norm(M) * deg2rad
	E := m + e*math.Sin(m)*(1+e*math.Cos(m))
	for iter := 0; iter < 30; iter++ {
		delta := (E - e*math.Sin(E) - m) / (1 - e*math.Cos(E))
		E -= delta
		if math.Abs(delta) < 1e-12 {
			break
		}
	}
	return E * rad2deg
}

// eclipticXYZ returns rectangular ecliptic coordinates in the orbit's own frame
// (heliocentric for planets, geocentric for Sun and Moon).
func (o orbit) eclipticXYZ() (x, y, z float64) {
	E := eccentricAnomaly(o.M, o.e)
	xv := o.a * (cosd(E) - o.e)
	yv := o.a * math.Sqrt(1-o.e*o.e) * sind(E)

	v := math.Atan2(yv, xv) * rad2deg
	r := math.Hypot(xv, yv)

	vw := v + o.w
	x = r * (cosd(o.N)*cosd(vw) - sind(o.N)*sind(vw)*cosd(o.i))
	y = r * (sind(o.N)*cosd(vw) + cosd(o.N)*sind(vw)*cosd(o.i))
	z = r * sind(vw) * sind(o.i)
	return x, y, z
}

// moonPerturbation is the sum of the largest periodic longitude terms (degrees)
func moonPerturbation(sun, moon orbit) float64 {
	Ms, Mm := sun.M, moon.M
	Ls := Ms + sun.w
	Lm := Mm + moon.w + moon.N
	D := Lm - Ls
	F := Lm - moon.N

	return -1.274*sind(Mm-2*D) + // evection
		0.658*sind(2*D) + // variation
		-0.186*sind(Ms) + // yearly equation
		-0.059*sind(2*Mm-2*D) +
		-0.057*sind(Mm-2*D+Ms) +
		0.053*sind(Mm+2*D) +
		0.046*sind(2*D-Ms) +
		0.041*sind(Mm-Ms) +
		-0.035*sind(D) + // parallactic equation
		-0.031*sind(Mm+Ms) +
		-0.015*sind(2*F-2*D) +
		0.011*sind(Mm-4*D)
}

// gasGiantPerturbation returns the Jupiter/Saturn great-inequality and Uranus terms (degrees)
func gasGiantPerturbation(b contracts.Body, Mj, Ms, Mu float64) float64 {
	switch b {
	case contracts.Jupiter:
		return -0.332*sind(2*Mj-5*Ms-67.6) +
			-0.056*sind(2*Mj-2*Ms+21) +
			0.042*sind(3*Mj-5*Ms+21) +
			-0.036*sind(Mj-2*Ms) +
			0.022*cosd(Mj-Ms) +
			0.023*sind(2*Mj-3*Ms+52) +
			-0.016*sind(Mj-5*Ms-69)
	case contracts.Saturn:
		return 0.812*sind(2*Mj-5*Ms-67.6) +
			-0.229*cosd(2*Mj-4*Ms-2) +
			0.119*sind(Mj-2*Ms-3) +
			0.046*sind(2*Mj-6*Ms-69) +
			0.014*sind(Mj-3*Ms+32)
	case contracts.Uranus:
		return 0.040*sind(Ms-2*Mu+6) +
			0.035*sind(Ms-3*Mu+33) +
			-0.015*sind(Mj-Mu+20)
	}
	return 0
}

// geocentricLongitude returns the tropical (equinox of date) longitude of b at jd
func geocentricLongitude(b contracts.Body, jd float64) float64 {
	d := jd - schlyterEpoch
	sun := elementsAt(contracts.Sun, d)
	xs, ys, _ := sun.eclipticXYZ()

	switch b {
	case contracts.Sun:
		return norm(math.Atan2(ys, xs) * rad2deg)
	case contracts.Moon:
		moon := elementsAt(contracts.Moon, d)
		x, y, _ := moon.eclipticXYZ()
		return norm(math.Atan2(y, x)*rad2deg + moonPerturbation(sun, moon))
	}

	o := elementsAt(b, d)
	xh, yh, zh := o.eclipticXYZ()

	if b == contracts.Jupiter || b == contracts.Saturn || b == contracts.Uranus {
		lon := math.Atan2(yh, xh)*rad2deg + gasGiantPerturbation(b,
			elementsAt(contracts.Jupiter, d).M,
			elementsAt(contracts.Saturn, d).M,
			elementsAt(contracts.Uranus, d).M)
		lat := math.Atan2(zh, math.Hypot(xh, yh)) * rad2deg
		r := math.Sqrt(xh*xh + yh*yh + zh*zh)
		xh = r * cosd(lon) * cosd(lat)
		yh = r * sind(lon) * cosd(lat)
	}

	// heliocentric -> geocentric: Sun's geocentric vector equals Earth's heliocentric vector negated
	return norm(math.Atan2(yh+ys, xh+xs) * rad2deg)
}
