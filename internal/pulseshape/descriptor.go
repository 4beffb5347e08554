package pulseshape

import (
	"fmt"
	"strings"
)

// Descriptor is the serialised form of a Shape as it appears in pulse-sequence files.
type Descriptor struct {
	Type       string    `yaml:"type" json:"type" msgpack:"type"`
	Resolution float64   `yaml:"resolution,omitempty" json:"resolution,omitempty" msgpack:"resolution,omitempty"`
	Lobes      float64   `yaml:"lobes,omitempty" json:"lobes,omitempty" msgpack:"lobes,omitempty"`
	Mu         float64   `yaml:"mu,omitempty" json:"mu,omitempty" msgpack:"mu,omitempty"`
	Sigma      float64   `yaml:"sigma,omitempty" json:"sigma,omitempty" msgpack:"sigma,omitempty"`
	Points     []float64 `yaml:"points,omitempty" json:"points,omitempty" msgpack:"points,omitempty"`
}

// Shape builds and validates the variant named by d.Type.
func (d Descriptor) Shape() (Shape, error) {
	var s Shape
	switch strings.ToLower(strings.TrimSpace(d.Type)) {
	case "rectangular", "rect", "":
		s = Rectangular{Res: d.Resolution}
	case "sinc":
		s = Sinc{Res: d.Resolution, Lobes: d.Lobes}
	case "gaussian", "gauss":
		s = Gaussian{Res: d.Resolution, Mu: d.Mu, Sigma: d.Sigma}
	case "custom":
		s = Custom{Res: d.Resolution, Points: append([]float64(nil), d.Points...)}
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownShape, d.Type)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Describe converts a Shape back into its descriptor.
func Describe(s Shape) Descriptor {
	switch v := s.(type) {
	case Rectangular:
		return Descriptor{Type: v.Name(), Resolution: v.Res}
	case Sinc:
		return Descriptor{Type: v.Name(), Resolution: v.Res, Lobes: v.Lobes}
	case Gaussian:
		return Descriptor{Type: v.Name(), Resolution: v.Res, Mu: v.Mu, Sigma: v.Sigma}
	case Custom:
		return Descriptor{Type: v.Name(), Resolution: v.Res, Points: append([]float64(nil), v.Points...)}
	default:
		return Descriptor{}
	}
}
