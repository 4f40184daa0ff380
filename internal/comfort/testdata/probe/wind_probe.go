package main

import "errors"

func Definition() map[string]interface{} {
	return map[string]interface{}{
		"name": "wind_probe",
		"outputs": []interface{}{
			map[string]interface{}{"name": "probe_wind_speed", "kind": "float64"},
			map[string]interface{}{"name": "probe_band", "kind": "string"},
		},
		"requires": []interface{}{"v", "tdb"},
		"bounds": map[string]interface{}{
			"v": []interface{}{0.50001, 16.99999},
		},
	}
}

func Compute(tdb, tr, v, rh float64) ([]interface{}, error) {
	if tdb > 60 {
		return nil, errors.New("outside calibration")
	}
	band := "calm"
	if v >= 5 {
		band = "windy"
	}
	return []interface{}{v, band}, nil
}
