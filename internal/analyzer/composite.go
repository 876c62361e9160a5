package analyzer

// Calibration ranges for min-max normalization of the three score inputs.
const (
	slopWordsMin    = 2.1214882577844882
	slopWordsMax    = 43.924784489934034
	slopTrigramsMin = -0.027052241145113065
	slopTrigramsMax = 1.2293612202273094
	contrastMin     = -0.0323480255696472
	contrastMax     = 0.8881555162544392

	weightWords    = 0.60
	weightContrast = 0.25
	weightTrigrams = 0.15
)

// Normalize maps x from [lo, hi] onto [0, 1], clamping values outside the
// range. A degenerate range yields 0.
func Normalize(x, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	v := (x - lo) / (hi - lo)
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SlopScore combines the word score, trigram score and contrast rate into a
// single value in [0, 100].
func SlopScore(wordScore, trigramScore, contrastRate float64) float64 {
	words := Normalize(wordScore, slopWordsMin, slopWordsMax)
	trigrams := Normalize(trigramScore, slopTrigramsMin, slopTrigramsMax)
	contrast := Normalize(contrastRate, contrastMin, contrastMax)
	return 100 * (weightWords*words + weightContrast*contrast + weightTrigrams*trigrams)
}
