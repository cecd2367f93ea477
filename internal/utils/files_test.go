package utils_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/civistat/embsurvey/internal/utils"
)

func TestSafeWriteFileLeavesNoTempBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	if err := utils.SafeWriteFile(path, []byte("data")); err != nil {
		t.Fatalf("SafeWriteFile: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "data" {
		t.Fatalf("read back = %q, %v", got, err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}
}

func TestWriteJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := utils.WriteJSONFile(path, map[string]int{"count": 3}); err != nil {
		t.Fatalf("WriteJSONFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var v map[string]int
	if err := json.Unmarshal(data, &v); err != nil || v["count"] != 3 {
		t.Errorf("round trip = %v, %v", v, err)
	}
}
