package catalog

import (
	"github.com/antzucaro/matchr"
)

// RequiredCredits is the total credit requirement per department
// degree program.
var RequiredCredits = map[string]float64{
	"הנדסת חשמל":         160,
	"הנדסת תעשיה וניהול": 160,
	"מדעי המחשב":         120,
	"הנדסת תוכנה":        160,
	"הנדסה ביורפואית":    160,
	"הנדסה מכנית":        160,
	"מדעי הנתונים":       120,
}

// ResolveDepartment maps free-text department input to a known
// department name. Exact matches win, otherwise the closest name by
// Jaro-Winkler similarity is taken when it is similar enough to be an
// obvious typo or spacing variant.
func ResolveDepartment(input string) (string, bool) {
	if _, ok := RequiredCredits[input]; ok {
		return input, true
	}

	mostSimilar := ""
	var similarity float64
	for known := range RequiredCredits {
		sim := matchr.JaroWinkler(input, known, false)
		if sim > similarity {
			similarity = sim
			mostSimilar = known
		}
	}
	if similarity < 0.9 {
		return "", false
	}
	return mostSimilar, true
}
