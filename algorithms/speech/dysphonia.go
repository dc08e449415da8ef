package speech

import (
	"math"

	"github.com/RyanBlaney/sonido-voice/algorithms/common"
)

// Cepstral/Spectral Index of Dysphonia regression coefficients
//
// Reference: Awan, S.N. et al. (2016). "The Cepstral Spectral Index of
// Dysphonia (CSID) for connected speech"
const (
	csidIntercept = 154.59
	csidCPPS      = 10.39
	csidLHMean    = 1.08
	csidLHSD      = 3.71
)

// CSID estimates dysphonia severity from CPPS and the finite frames of the
// L/H ratio series. It is NaN when cpps is not finite or no frame is.
func CSID(cpps float64, lhSeries []float64) float64 {
	lhSeries = common.FiniteValues(lhSeries)
	if len(lhSeries) == 0 || !common.IsFinite(cpps) {
		return math.NaN()
	}

	lhMean := common.Mean(lhSeries)
	lhSD := common.StandardDeviation(lhSeries)

	return csidIntercept - csidCPPS*cpps - csidLHMean*lhMean - csidLHSD*lhSD
}
