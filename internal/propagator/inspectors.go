package propagator

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// StepRecord is one accepted step as seen by the StepLogger.
type StepRecord struct {
	PathLength float64
	StepSize   float64
	Pos        r3.Vec
	Dir        r3.Vec
	// SurfaceID is set when the step landed on a surface, else -1.
	SurfaceID int
}

// StepLogger records every accepted step for later inspection or export.
type StepLogger struct {
	Records []StepRecord
}

func (l *StepLogger) Run(ps *State) error {
	rec := StepRecord{
		PathLength: ps.Stepping.PathLength,
		StepSize:   ps.Stepping.StepSize,
		Pos:        ps.Stepping.Track.Pos,
		Dir:        ps.Stepping.Track.Dir,
		SurfaceID:  -1,
	}
	if surf := ps.Nav.CurrentSurface(); surf != nil {
		rec.SurfaceID = int(surf.ID())
	}
	l.Records = append(l.Records, rec)
	return nil
}

func (l *StepLogger) String() string {
	var b strings.Builder
	for i, r := range l.Records {
		fmt.Fprintf(&b, "%4d  s=%9.4f  h=%9.2e  pos=(%8.3f %8.3f %8.3f)",
			i, r.PathLength, r.StepSize, r.Pos.X, r.Pos.Y, r.Pos.Z)
		if r.SurfaceID >= 0 {
			fmt.Fprintf(&b, "  surface=%d", r.SurfaceID)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
