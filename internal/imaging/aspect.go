package imaging

import "fmt"

// AspectRatio is one of the named output ratios offered to users.
type AspectRatio string

const (
	RatioSquare    AspectRatio = "1:1"
	RatioLandscape AspectRatio = "16:9"
	RatioPortrait  AspectRatio = "9:16"
)

var ratioValues = map[AspectRatio]float64{
	RatioSquare:    1,
	RatioLandscape: 16.0 / 9.0,
	RatioPortrait:  9.0 / 16.0,
}

// Value is width divided by height.
func (a AspectRatio) Value() float64 {
	return ratioValues[a]
}

func (a AspectRatio) Valid() bool {
	_, ok := ratioValues[a]
	return ok
}

func ParseAspectRatio(s string) (AspectRatio, error) {
	a := AspectRatio(s)
	if !a.Valid() {
		return "", fmt.Errorf("unsupported aspect ratio %q (want 1:1, 16:9 or 9:16)", s)
	}
	return a, nil
}
