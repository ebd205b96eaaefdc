package dispatch

import "strconv"

func boolString(b bool) string { return strconv.FormatBool(b) }

// floatString keeps six decimal places, ~0.1m of coordinate precision.
func floatString(f float64) string { return strconv.FormatFloat(f, 'f', 6, 64) }
