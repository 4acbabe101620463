package internal

import (
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// yamlValue is the framing of one lane: a type tag and its payload.
type yamlValue struct {
	Type  ValueKind `yaml:"type"`
	Value yaml.Node `yaml:"value,omitempty"`
}

func (lv LoopedValue) MarshalYAML() (any, error) {
	out := make([]map[string]any, len(lv))
	for i, v := range lv {
		if v == nil {
			v = None{}
		}

		lane := map[string]any{"type": v.Kind()}
		switch v := v.(type) {
		case Number:
			lane["value"] = float64(v)
		case Text:
			lane["value"] = string(v)
		case Bool:
			lane["value"] = bool(v)
		case Point2D:
			lane["value"] = []float64{v.X, v.Y}
		case Point3D:
			lane["value"] = []float64{v.X, v.Y, v.Z}
		case Color:
			lane["value"] = []float64{v.R, v.G, v.B, v.A}
		case AssetRef:
			lane["value"] = v.ID
		case Pulse:
			lane["value"] = v.Time
		case LayerRef:
			lane["value"] = v.Node.String()
		case None:
		}
		out[i] = lane
	}
	return out, nil
}

func (lv *LoopedValue) UnmarshalYAML(node *yaml.Node) error {
	var lanes []yamlValue
	if err := node.Decode(&lanes); err != nil {
		return err
	}

	values := make([]Value, len(lanes))
	for i, lane := range lanes {
		v, err := lane.decode()
		if err != nil {
			return fmt.Errorf("lane %d: %w", i, err)
		}
		values[i] = v
	}

	*lv = Loop(values...)
	return nil
}

func (lane yamlValue) decode() (Value, error) {
	switch lane.Type {
	case ValueNumber:
		var f float64
		err := lane.Value.Decode(&f)
		return Number(f), err
	case ValueText:
		var s string
		err := lane.Value.Decode(&s)
		return Text(s), err
	case ValueBool:
		var b bool
		err := lane.Value.Decode(&b)
		return Bool(b), err
	case ValuePoint2D:
		f, err := lane.floats(2)
		if err != nil {
			return nil, err
		}
		return Point2D{X: f[0], Y: f[1]}, nil
	case ValuePoint3D:
		f, err := lane.floats(3)
		if err != nil {
			return nil, err
		}
		return Point3D{X: f[0], Y: f[1], Z: f[2]}, nil
	case ValueColor:
		f, err := lane.floats(4)
		if err != nil {
			return nil, err
		}
		return Color{R: f[0], G: f[1], B: f[2], A: f[3]}, nil
	case ValueAsset:
		var s string
		err := lane.Value.Decode(&s)
		return AssetRef{ID: s}, err
	case ValuePulse:
		var f float64
		err := lane.Value.Decode(&f)
		return Pulse{Time: f}, err
	case ValueLayer:
		var s string
		if err := lane.Value.Decode(&s); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		return LayerRef{Node: id}, nil
	case ValueNone, "":
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown value type %q", lane.Type)
	}
}

func (lane yamlValue) floats(n int) ([]float64, error) {
	var f []float64
	if err := lane.Value.Decode(&f); err != nil {
		return nil, err
	}
	if len(f) != n {
		return nil, fmt.Errorf("%s takes %d components, got %d", lane.Type, n, len(f))
	}
	return f, nil
}
