package main

func Definition() map[string]interface{} {
	return map[string]interface{}{
		"name": "bad_kind",
		"outputs": []interface{}{
			map[string]interface{}{"name": "value", "kind": "complex128"},
		},
	}
}

func Compute(tdb, tr, v, rh float64) ([]interface{}, error) {
	return []interface{}{0.0}, nil
}
