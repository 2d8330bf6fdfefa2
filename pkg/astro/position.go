// Package astro provides the solar-position arithmetic used by the solar
// radiation derivation: declination, equation of time, hour angle, and the
// eccentricity correction for Earth-Sun distance. Angles are degrees unless
// noted.
package astro

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// SolarConstant is the mean solar irradiance at the top of the atmosphere (W/m²).
const SolarConstant = 1367.0

func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func radToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }
func fixAngle(a float64) float64   { return a - 360.0*math.Floor(a/360.0) }

// Declination returns the solar declination angle for a day of year,
// using the 23.45° sinusoid peaking at the solstices.
func Declination(dayOfYear int) float64 {
	return 23.45 * math.Sin(degToRad(360.0*float64(284+dayOfYear)/365.0))
}

// Eccentricity returns the Earth-Sun distance correction factor for a day of
// year, scaling extraterrestrial radiation for the elliptical orbit.
func Eccentricity(dayOfYear int) float64 {
	return 1 + 0.033*math.Cos(degToRad(360.0*float64(dayOfYear)/365.0))
}

// EquationOfTime returns the difference between apparent and mean solar time
// in minutes at t, from the solar mean-longitude/anomaly series.
func EquationOfTime(t time.Time) float64 {
	jd := julian.TimeToJD(t.UTC())
	T := (jd - 2451545.0) / 36525.0 // Julian centuries since J2000.0

	L0 := fixAngle(280.46646 + T*(36000.76983+T*0.0003032)) // Mean longitude of the Sun
	M := fixAngle(357.52911 + T*(35999.05029-T*0.0001537))  // Mean anomaly of the Sun
	e := 0.016708634 - T*(0.000042037+T*0.0000001267)       // Orbital eccentricity
	eps0 := 23 + (26+(21.448-T*(46.815+T*(0.00059-T*0.001813)))/60)/60

	y := math.Tan(degToRad(eps0)/2) * math.Tan(degToRad(eps0)/2)
	return radToDeg(y*math.Sin(degToRad(2*L0))-
		2*e*math.Sin(degToRad(M))+
		4*e*y*math.Sin(degToRad(M))*math.Cos(degToRad(2*L0))-
		0.5*y*y*math.Sin(degToRad(4*L0))-
		1.25*e*e*math.Sin(degToRad(2*M))) * 4 // 4 min per degree
}

// HourAngle returns the solar hour angle for a local clock hour at the given
// longitude and timezone offset, with the equation-of-time refinement.
// Zero at solar noon, negative in the morning.
func HourAngle(t time.Time, longitude, tzOffsetHours float64) float64 {
	clockHour := float64(t.Hour()) + float64(t.Minute())/60.0 + float64(t.Second())/3600.0
	solarTime := clockHour + longitude/15.0 - tzOffsetHours + EquationOfTime(t)/60.0
	return 15.0 * (solarTime - 12.0)
}

// Elevation returns the solar elevation angle above the horizon for a
// latitude, declination and hour angle.
func Elevation(latitude, declination, hourAngle float64) float64 {
	latRad := degToRad(latitude)
	declRad := degToRad(declination)
	haRad := degToRad(hourAngle)

	sinElev := math.Sin(latRad)*math.Sin(declRad) +
		math.Cos(latRad)*math.Cos(declRad)*math.Cos(haRad)
	// Guard the inverse-trig domain against rounding at the extremes
	if sinElev > 1 {
		sinElev = 1
	} else if sinElev < -1 {
		sinElev = -1
	}
	return radToDeg(math.Asin(sinElev))
}

// SunsetHourAngle returns the hour angle at sunset for a latitude and
// declination. The cosine argument is clamped to [-1, 1] so polar day
// returns 180° (sun never sets) and polar night returns 0° (sun never
// rises) instead of a NaN from Acos.
func SunsetHourAngle(latitude, declination float64) float64 {
	cosH := -math.Tan(degToRad(latitude)) * math.Tan(degToRad(declination))
	if cosH < -1 {
		cosH = -1
	} else if cosH > 1 {
		cosH = 1
	}
	return radToDeg(math.Acos(cosH))
}
