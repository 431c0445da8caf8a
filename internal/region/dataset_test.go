package region_test

import (
	"os"
	"path/filepath"
	"testing"

	"drivermon/internal/region"
)

func TestDefaultDatasetClassification(t *testing.T) {
	ds, err := region.DefaultDataset()
	if err != nil {
		t.Fatalf("DefaultDataset: %v", err)
	}
	tests := []struct {
		name     string
		lat, lon float64
		rhd      bool
	}{
		{"London", 51.5, -0.13, true},
		{"Dublin", 53.35, -6.26, true},
		{"Calais", 50.95, 1.85, false},
		{"Tokyo", 35.68, 139.69, true},
		{"Seoul", 37.57, 126.98, false},
		{"Busan", 35.18, 129.07, false},
		{"Sydney", -33.87, 151.21, true},
		{"Auckland", -36.85, 174.76, true},
		{"Delhi", 28.6, 77.2, true},
		{"Mumbai", 19.07, 72.88, true},
		{"Lhasa", 29.65, 91.1, false},
		{"Johannesburg", -26.2, 28.05, true},
		{"Nairobi", -1.29, 36.82, true},
		{"Bangkok", 13.75, 100.5, true},
		{"Jakarta", -6.2, 106.85, true},
		{"Manila", 14.6, 120.98, false},
		{"Hong Kong", 22.3, 114.17, true},
		{"San Francisco", 37.77, -122.42, false},
		{"Berlin", 52.52, 13.4, false},
		// Right-hand traffic next to left-hand traffic borders.
		{"Lubumbashi", -11.66, 27.48, false},
		{"Kolwezi", -10.71, 25.47, false},
		{"Kasenga", -10.37, 28.63, false},
		{"Kalemie", -5.94, 29.19, false},
		{"Kigali", -1.95, 30.06, false},
		{"Bujumbura", -3.38, 29.36, false},
		{"Juba", 4.85, 31.6, false},
		{"Kismayo", -0.36, 42.54, false},
		{"Luanda", -8.84, 13.23, false},
		{"Kabul", 34.53, 69.17, false},
		{"Kandahar", 31.61, 65.71, false},
		{"Zahedan", 29.5, 60.86, false},
		{"Yangon", 16.84, 96.17, false},
		{"Mandalay", 21.98, 96.08, false},
		{"Vientiane", 17.97, 102.6, false},
		{"Luang Prabang", 19.89, 102.13, false},
		{"Phnom Penh", 11.55, 104.92, false},
		// Left-hand traffic on the other side of those borders.
		{"Kitwe", -12.8, 28.21, true},
		{"Ndola", -12.97, 28.64, true},
		{"Mansa", -11.2, 28.89, true},
		{"Lusaka", -15.42, 28.28, true},
		{"Kigoma", -4.88, 29.63, true},
		{"Kampala", 0.35, 32.58, true},
		{"Lilongwe", -13.97, 33.79, true},
		{"Windhoek", -22.56, 17.08, true},
		{"Peshawar", 34.0, 71.57, true},
		{"Quetta", 30.18, 67.0, true},
		{"Kathmandu", 27.7, 85.32, true},
		{"Chiang Mai", 18.79, 98.98, true},
		{"Khon Kaen", 16.44, 102.83, true},
		{"Port Moresby", -9.44, 147.18, true},
	}
	classify := ds.Classifier()
	for _, tt := range tests {
		if got := classify(tt.lat, tt.lon); got != tt.rhd {
			t.Fatalf("%s: got rhd=%v, want %v", tt.name, got, tt.rhd)
		}
	}
}

func TestLoadDatasetFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	content := `
[[territory]]
name = "Test Square"
polygon = [[0.0, 0.0], [10.0, 0.0], [10.0, 10.0], [0.0, 10.0]]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	ds, err := region.LoadDataset(path)
	if err != nil {
		t.Fatalf("LoadDataset: %v", err)
	}
	if name, ok := ds.Lookup(5, 5); !ok || name != "Test Square" {
		t.Fatalf("expected Test Square, got %q ok=%v", name, ok)
	}
	if _, ok := ds.Lookup(-1, 5); ok {
		t.Fatal("point outside polygon matched")
	}
}

func TestParseDatasetRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"empty":        ``,
		"short":        "[[territory]]\nname = \"x\"\npolygon = [[0.0, 0.0], [1.0, 1.0]]\n",
		"bad vertex":   "[[territory]]\nname = \"x\"\npolygon = [[0.0], [1.0, 1.0], [2.0, 0.0]]\n",
		"out of range": "[[territory]]\nname = \"x\"\npolygon = [[0.0, 0.0], [1.0, 95.0], [2.0, 0.0]]\n",
		"unknown key":  "[[territory]]\nname = \"x\"\ncolour = \"red\"\npolygon = [[0.0, 0.0], [1.0, 1.0], [2.0, 0.0]]\n",
	}
	for name, content := range cases {
		if _, err := region.ParseDataset([]byte(content)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadDatasetMissingFile(t *testing.T) {
	if _, err := region.LoadDataset(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing dataset")
	}
}
