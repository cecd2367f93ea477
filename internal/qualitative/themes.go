package qualitative

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/civistat/embsurvey/internal/utils"
)

// themesDoc is the shape the externally produced synthesis must have. Only
// structure is checked; the theme contents are never interpreted.
type themesDoc struct {
	Themes []struct {
		Name   string   `json:"name"`
		Quotes []string `json:"quotes"`
	} `json:"themes"`
}

// ImportThemes validates the shape of an externally produced theme synthesis
// and copies it to dest alongside the other stage outputs. The file must hold
// a JSON object with a non-empty themes array where every theme is named.
func ImportThemes(src, dest string) error {
	raw, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading themes file: %w", err)
	}
	var doc themesDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("themes file is not valid JSON: %w", err)
	}
	if len(doc.Themes) == 0 {
		return fmt.Errorf("themes file %s has no themes array", src)
	}
	for i, th := range doc.Themes {
		if th.Name == "" {
			return fmt.Errorf("theme %d has no name", i)
		}
	}
	if err := utils.SafeWriteFile(dest, raw); err != nil {
		return fmt.Errorf("copying themes file: %w", err)
	}
	return nil
}
