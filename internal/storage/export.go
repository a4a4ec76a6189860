package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/trackprop/internal/propagator"
)

type ExportData struct {
	ID         string       `json:"id"`
	Label      string       `json:"label"`
	Field      string       `json:"field"`
	Planes     int          `json:"planes"`
	Tracks     int          `json:"tracks"`
	Succeeded  int          `json:"succeeded"`
	Steps      int          `json:"steps"`
	Path       []float64    `json:"path"`
	Positions  [][3]float64 `json:"positions"`
	Directions [][3]float64 `json:"directions"`
	Surfaces   []int        `json:"surfaces"`
}

func buildExport(meta *RunMetadata, steps []propagator.StepRecord) ExportData {
	data := ExportData{
		ID:        meta.ID,
		Label:     meta.Label,
		Field:     meta.Field,
		Planes:    meta.Planes,
		Tracks:    meta.Tracks,
		Succeeded: meta.Succeeded,
		Steps:     len(steps),
	}
	for _, st := range steps {
		data.Path = append(data.Path, st.PathLength)
		data.Positions = append(data.Positions, [3]float64{st.Pos.X, st.Pos.Y, st.Pos.Z})
		data.Directions = append(data.Directions, [3]float64{st.Dir.X, st.Dir.Y, st.Dir.Z})
		data.Surfaces = append(data.Surfaces, st.SurfaceID)
	}
	return data
}

// ExportJSON writes one run as a single JSON document.
func ExportJSON(w io.Writer, meta *RunMetadata, steps []propagator.StepRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(buildExport(meta, steps))
}

// ExportJSONFile is ExportJSON to a file path.
func ExportJSONFile(path string, meta *RunMetadata, steps []propagator.StepRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportJSON(file, meta, steps)
}
