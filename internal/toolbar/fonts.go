package toolbar

import "slices"

// FontSizes are the pixel sizes offered by the font size picker.
var FontSizes = []float64{8, 9, 10, 11, 12, 14, 16, 18, 20, 24, 28, 32, 36, 40, 48, 56, 64, 72}

// FontFamilies are the families offered by the font picker.
var FontFamilies = []string{
	"Arial",
	"Calibri",
	"Comic Sans MS",
	"Courier New",
	"Georgia",
	"Helvetica",
	"Impact",
	"Roboto",
	"Times New Roman",
	"Verdana",
}

// ValidFontSize accepts any size inside the picker's range, not only its stops.
func ValidFontSize(px float64) bool {
	return px >= FontSizes[0] && px <= FontSizes[len(FontSizes)-1]
}

func ValidFontFamily(family string) bool {
	return slices.Contains(FontFamilies, family)
}

var transforms = []string{"none", "uppercase", "lowercase", "capitalize"}
