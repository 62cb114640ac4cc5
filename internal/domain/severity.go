package domain

import "fmt"

// Severity is the ordinal vegetation-loss classification of a pixel or patch.
type Severity uint8

const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
)

var severityNames = [...]string{"NONE", "LOW", "MEDIUM", "HIGH"}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return fmt.Sprintf("Severity(%d)", uint8(s))
}

// MarshalText renders the severity label for JSON output.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a severity label.
func (s *Severity) UnmarshalText(text []byte) error {
	for i, name := range severityNames {
		if string(text) == name {
			*s = Severity(i)
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", text)
}

// Thresholds are the ascending drop-magnitude boundaries separating the
// severity levels. They are configuration inputs, not constants.
type Thresholds struct {
	Low    float64
	Medium float64
	High   float64
}

// Validate fails with ErrInvalidThresholds unless 0 < Low < Medium < High.
func (t Thresholds) Validate() error {
	if t.Low <= 0 || t.Low >= t.Medium || t.Medium >= t.High {
		return fmt.Errorf("%w: got %.3f/%.3f/%.3f", ErrInvalidThresholds, t.Low, t.Medium, t.High)
	}
	return nil
}

// SeverityGrid is a derived raster of severity labels sharing shape and
// alignment with its source change grid.
type SeverityGrid struct {
	GeoRef
	RowsN, ColsN int
	Labels       []Severity // row-major, len RowsN*ColsN
}

// Rows returns the raster height in pixels.
func (g SeverityGrid) Rows() int { return g.RowsN }

// Cols returns the raster width in pixels.
func (g SeverityGrid) Cols() int { return g.ColsN }

// At returns the label at (row, col).
func (g SeverityGrid) At(r, c int) Severity { return g.Labels[r*g.ColsN+c] }

// Classifier maps change magnitude to severity labels.
type Classifier struct {
	thresholds Thresholds
}

// NewClassifier builds a classifier, rejecting non-ascending thresholds.
func NewClassifier(t Thresholds) (Classifier, error) {
	if err := t.Validate(); err != nil {
		return Classifier{}, err
	}
	return Classifier{thresholds: t}, nil
}

// Thresholds returns the configured boundaries.
func (c Classifier) Thresholds() Thresholds { return c.thresholds }

// Classify labels each cell of the change grid by its drop magnitude.
// Purely elementwise; no cross-cell dependency.
func (c Classifier) Classify(change ChangeGrid) SeverityGrid {
	labels := make([]Severity, len(change.Data.Elements))
	for i, delta := range change.Data.Elements {
		labels[i] = c.classifyCell(delta)
	}
	return SeverityGrid{
		GeoRef: change.GeoRef,
		RowsN:  change.Rows(),
		ColsN:  change.Cols(),
		Labels: labels,
	}
}

func (c Classifier) classifyCell(delta float64) Severity {
	drop := -delta
	switch {
	case drop >= c.thresholds.High:
		return SeverityHigh
	case drop >= c.thresholds.Medium:
		return SeverityMedium
	case drop >= c.thresholds.Low:
		return SeverityLow
	default:
		return SeverityNone
	}
}
