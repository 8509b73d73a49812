package main

import (
	"encoding/json"
	"os"
)

func printJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fatal("Error encoding JSON", err)
	}
}
