package recipe

import (
	"math"
	"strconv"
	"strings"
)

const calorieDigits = 5

// FormatCalories renders v with five significant figures. Magnitudes of
// 1e5 and above, or below 1e-6, switch to exponent notation written as
// "1.2346e+5"; everything else uses fixed notation with trailing zeros kept,
// so 523.1 renders as "523.10".
func FormatCalories(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		v = 0 // drop negative zero
	}

	sci := strconv.FormatFloat(v, 'e', calorieDigits-1, 64)
	mantissa, expPart, _ := strings.Cut(sci, "e")
	exp, err := strconv.Atoi(expPart)
	if err != nil {
		return sci
	}

	if exp < -6 || exp >= calorieDigits {
		sign := "+"
		if exp < 0 {
			sign = "-"
			exp = -exp
		}
		return mantissa + "e" + sign + strconv.Itoa(exp)
	}
	return strconv.FormatFloat(v, 'f', calorieDigits-1-exp, 64)
}
