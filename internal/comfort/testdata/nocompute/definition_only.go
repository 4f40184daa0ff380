package main

func Definition() map[string]interface{} {
	return map[string]interface{}{
		"name": "definition_only",
		"outputs": []interface{}{
			map[string]interface{}{"name": "value", "kind": "float64"},
		},
	}
}
