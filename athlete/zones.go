package athlete

import (
	"fmt"
	"math"

	"github.com/lucasjlepore/trainload"
)

// cogganBands are the classic seven power zones as percentages of FTP.
var cogganBands = []struct {
	name     string
	min, max float64
	color    string
}{
	{name: "Active Recovery", min: 0, max: 55, color: "#4a9eff"},
	{name: "Endurance", min: 55, max: 75, color: "#00c896"},
	{name: "Tempo", min: 75, max: 90, color: "#c8f000"},
	{name: "Threshold", min: 90, max: 105, color: "#ffb800"},
	{name: "VO2", min: 105, max: 120, color: "#ff7a00"},
	{name: "Anaerobic", min: 120, max: 150, color: "#ff3b3b"},
	{name: "Neuromuscular", min: 150, max: 1000, color: "#cc00ff"},
}

// ZonesFromFTP derives a seven-zone watt table from ftp. Bounds are rounded
// to whole watts. It returns nil for a non-positive ftp.
func ZonesFromFTP(ftp float64) []trainload.ZoneDef {
	if ftp <= 0 || math.IsNaN(ftp) || math.IsInf(ftp, 0) {
		return nil
	}
	out := make([]trainload.ZoneDef, 0, len(cogganBands))
	for i, b := range cogganBands {
		out = append(out, trainload.ZoneDef{
			ID:       fmt.Sprintf("z%d", i+1),
			Name:     b.name,
			MinWatts: math.Round(ftp * b.min / 100),
			MaxWatts: math.Round(ftp * b.max / 100),
			Color:    b.color,
		})
	}
	return out
}
