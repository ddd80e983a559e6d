package features

// Offsets of each feature group inside a Vector. The order is fixed; the
// scorer addresses regions by these constants.
const (
	OffsetCentroid = 0
	OffsetRolloff  = OffsetCentroid + 2
	OffsetContrast = OffsetRolloff + 2
	OffsetTempo    = OffsetContrast + NumContrast
	OffsetMFCCMean = OffsetTempo + 1
	OffsetMFCCVar  = OffsetMFCCMean + NumMFCC
	OffsetChroma   = OffsetMFCCVar + NumMFCC
	OffsetZCR      = OffsetChroma + NumChroma

	VectorLength = OffsetZCR + 2
)

// Group sizes
const (
	NumContrast = 7 // six octave bands plus the residual band
	NumMFCC     = 13
	NumChroma   = 12
)

// Scorer regions, as half-open ranges into the vector
const (
	SpectralStart = OffsetCentroid
	SpectralEnd   = OffsetTempo
	RhythmIndex   = OffsetTempo
	MFCCStart     = OffsetMFCCMean
	MFCCEnd       = OffsetChroma
	ChromaStart   = OffsetChroma
	ChromaEnd     = OffsetZCR
)
