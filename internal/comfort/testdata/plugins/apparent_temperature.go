package main

import "math"

// Definition describes Steadman's apparent temperature for shade.
func Definition() map[string]interface{} {
	return map[string]interface{}{
		"name": "apparent_temperature",
		"outputs": []interface{}{
			map[string]interface{}{"name": "apparent_temperature", "kind": "float64"},
		},
		"requires": []interface{}{"tdb", "v", "rh"},
		"bounds": map[string]interface{}{
			"v": []interface{}{0, 20},
		},
	}
}

// Compute returns the apparent temperature in degrees Celsius.
func Compute(tdb, tr, v, rh float64) ([]interface{}, error) {
	e := rh / 100 * 6.105 * math.Exp(17.27*tdb/(237.7+tdb))
	at := tdb + 0.33*e - 0.70*v - 4.00
	return []interface{}{math.Round(at*10) / 10}, nil
}
