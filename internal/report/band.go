package report

import "strconv"

// Band is the colour tier a score falls into.
type Band string

const (
	BandGood    Band = "good"
	BandWarning Band = "warning"
	BandPoor    Band = "poor"
)

// BandFor maps a score to its band. 80 and above is good, 60 up to 80 is a
// warning, everything lower is poor.
func BandFor(score float64) Band {
	switch {
	case score >= 80:
		return BandGood
	case score >= 60:
		return BandWarning
	default:
		return BandPoor
	}
}

// TextClass returns the text colour class for the band.
func (b Band) TextClass() string {
	switch b {
	case BandGood:
		return "text-green-600"
	case BandWarning:
		return "text-yellow-600"
	default:
		return "text-red-600"
	}
}

// BgClass returns the background colour class for the band.
func (b Band) BgClass() string {
	switch b {
	case BandGood:
		return "bg-green-100"
	case BandWarning:
		return "bg-yellow-100"
	default:
		return "bg-red-100"
	}
}

// FormatNumber prints a number without a trailing ".0" for whole values.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
