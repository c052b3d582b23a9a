package report

import (
	"encoding/json"
	"os"

	"example.com/canconv/internal/convert"
)

func SaveBatchJSON(rep convert.BatchResult, out string) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}

func LoadBatchJSON(path string) (convert.BatchResult, error) {
	var rep convert.BatchResult
	b, err := os.ReadFile(path)
	if err != nil {
		return rep, err
	}
	err = json.Unmarshal(b, &rep)
	return rep, err
}
