package main

func Definition() map[string]interface{} {
	return map[string]interface{}{
		"name": "heat_index",
		"outputs": []interface{}{
			map[string]interface{}{"name": "heat_index_alt", "kind": "float64"},
		},
		"requires": []interface{}{"tdb", "rh"},
	}
}

func Compute(tdb, tr, v, rh float64) ([]interface{}, error) {
	return []interface{}{tdb}, nil
}
