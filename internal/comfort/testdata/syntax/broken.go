package main

func Definition() map[string]interface{} {
	return map[string]interface{}{"name": "broken"
}
