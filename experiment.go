package nd2

import (
	"fmt"

	"github.com/mdouchement/nd2/clx"
)

// wrapperKeys lists the names whose single-entry objects are replaced by
// their value when a tree is unwrapped.
var wrapperKeys = map[string]bool{
	"":                   true,
	"i0000000000":        true,
	"SLxExperiment":      true,
	"SLxImageAttributes": true,
	"SLxImageTextInfo":   true,
}

// unwrap strips one-element arrays and single-key objects whose key is a
// wrapper key, until neither applies.
func unwrap(v clx.Value) clx.Value {
	for {
		switch t := v.(type) {
		case clx.Array:
			if len(t) != 1 {
				return v
			}
			v = t[0]
		case *clx.Object:
			keys := t.Keys()
			if len(keys) != 1 || !wrapperKeys[keys[0]] {
				return v
			}
			v, _ = t.Get(keys[0])
		default:
			return v
		}
	}
}

// A LoopKind classifies experiment loops.
type LoopKind int

const (
	LoopTime LoopKind = iota + 1
	LoopZStack
	LoopXYPosition
	LoopOther
)

func (k LoopKind) String() string {
	switch k {
	case LoopTime:
		return "time"
	case LoopZStack:
		return "z-stack"
	case LoopXYPosition:
		return "xy-position"
	case LoopOther:
		return "other"
	default:
		return fmt.Sprintf("LoopKind(%d)", int(k))
	}
}

func (k LoopKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Loop describes one acquisition loop. Loops are listed outer loop first.
type Loop struct {
	Kind LoopKind `json:"kind"`
	// Type is the raw loop type discriminant.
	Type         int `json:"type"`
	Count        int `json:"count"`
	NestingLevel int `json:"nesting_level"`

	Time      *TimeParams   `json:"time,omitempty"`
	Periods   []Period      `json:"periods,omitempty"`
	ZStack    *ZStackParams `json:"z_stack,omitempty"`
	Positions []Position    `json:"positions,omitempty"`
	// IsSettingZ reports whether positions carry a Z coordinate.
	IsSettingZ bool `json:"is_setting_z,omitempty"`
	// Params holds the undecoded parameters of other loop kinds.
	Params clx.Value `json:"params,omitempty"`
}

// Axis returns the acquisition axis the loop contributes to.
func (l Loop) Axis() (Axis, bool) {
	switch l.Kind {
	case LoopTime:
		return AxisTime, true
	case LoopZStack:
		return AxisZ, true
	case LoopXYPosition:
		return AxisPosition, true
	default:
		return "", false
	}
}

// TimeParams holds the timing of a time loop, in milliseconds.
type TimeParams struct {
	Start      float64     `json:"start_ms"`
	Period     float64     `json:"period_ms"`
	Duration   float64     `json:"duration_ms"`
	PeriodDiff *PeriodDiff `json:"period_diff,omitempty"`
}

// PeriodDiff holds the measured spread of a time loop period.
type PeriodDiff struct {
	Avg float64 `json:"avg"`
	Max float64 `json:"max"`
	Min float64 `json:"min"`
}

// Period is one phase of a non-equidistant time loop.
type Period struct {
	Count int `json:"count"`
	TimeParams
}

// ZStackParams describes a z-stack loop.
type ZStackParams struct {
	HomeIndex   int     `json:"home_index"`
	Step        float64 `json:"step_um"`
	BottomToTop bool    `json:"bottom_to_top"`
	DeviceName  string  `json:"device_name,omitempty"`
}

// Position is one stage position of an XY loop, in micrometers.
type Position struct {
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Z         float64  `json:"z"`
	PFSOffset *float64 `json:"pfs_offset,omitempty"`
	Name      string   `json:"name,omitempty"`
}

// normalizeExperiment turns the decoded experiment tree into its loop list.
func normalizeExperiment(root clx.Value) ([]Loop, error) {
	obj, ok := clx.AsObject(unwrap(root))
	if !ok {
		kind := "nil"
		if root != nil {
			kind = unwrap(root).Kind().String()
		}
		return nil, MetadataError(fmt.Sprintf("experiment root is %s, not an object", kind))
	}
	return walkExperiment(obj, nil), nil
}

// walkExperiment appends the loop described by obj, if any, then the loops
// nested under its ppNextLevelEx field.
func walkExperiment(obj *clx.Object, loops []Loop) []Loop {
	if l, ok := parseLoop(obj); ok && l.Count > 0 {
		loops = append(loops, l)
	}

	next, ok := obj.Get("ppNextLevelEx")
	if !ok {
		return loops
	}
	for _, item := range nextLevel(next) {
		inner, ok := clx.AsObject(unwrap(item))
		if !ok {
			continue
		}
		loops = walkExperiment(inner, loops)
	}
	return loops
}

// nextLevel lists the loops of a ppNextLevelEx field. It is either a list,
// a single loop object, or an object indexed by i0000000000 style names.
func nextLevel(v clx.Value) []clx.Value {
	switch t := v.(type) {
	case clx.Array:
		return t
	case *clx.Object:
		if isLoop(t) {
			return []clx.Value{t}
		}
		return clx.Elements(t)
	default:
		return nil
	}
}

func isLoop(obj *clx.Object) bool {
	return obj.Has("uiLoopType") || obj.Has("eType")
}

func parseLoop(obj *clx.Object) (Loop, bool) {
	typ, ok := obj.Uint("uiLoopType")
	if !ok {
		if typ, ok = obj.Uint("eType"); !ok {
			return Loop{}, false
		}
	}

	var rawParams clx.Value
	params := obj
	if v, ok := obj.Get("uLoopPars"); ok {
		rawParams = unwrap(v)
		if p, ok := clx.AsObject(rawParams); ok {
			params = p
		}
	}

	count, ok := params.Uint("uiCount")
	if !ok {
		count, _ = obj.Uint("uiCount")
	}
	nesting, _ := obj.Uint("uiNestingLevel")

	l := Loop{
		Type:         int(typ),
		Count:        int(count),
		NestingLevel: int(nesting),
	}

	switch typ {
	case ltTime:
		l.Kind = LoopTime
		l.Time = timeParams(params)
	case ltNETime:
		l.Kind = LoopTime
		l.Periods = periods(params)
		l.Count = 0
		for _, p := range l.Periods {
			l.Count += p.Count
		}
	case ltZStack:
		l.Kind = LoopZStack
		l.ZStack = zStackParams(params)
	case ltXYPosition:
		l.Kind = LoopXYPosition
		var masked bool
		l.IsSettingZ, l.Positions, masked = positions(obj, params)
		if masked || len(l.Positions) > 0 {
			l.Count = len(l.Positions)
		}
	default:
		l.Kind = LoopOther
		l.Params = rawParams
	}
	return l, true
}

func timeParams(params *clx.Object) *TimeParams {
	tp := &TimeParams{}
	tp.Start, _ = params.Float("dStart")
	tp.Period, _ = params.Float("dPeriod")
	tp.Duration, _ = params.Float("dDuration")

	if diff, ok := clx.AsObject(get(params, "pPeriodDiff")); ok {
		tp.PeriodDiff = &PeriodDiff{}
		tp.PeriodDiff.Avg, _ = diff.Float("dAvg")
		tp.PeriodDiff.Max, _ = diff.Float("dMax")
		tp.PeriodDiff.Min, _ = diff.Float("dMin")
	}
	return tp
}

func periods(params *clx.Object) []Period {
	valid := flags(get(params, "pPeriodValid"))

	var out []Period
	for i, item := range clx.Elements(get(params, "pPeriod")) {
		if len(valid) > 0 && (i >= len(valid) || !valid[i]) {
			continue
		}
		obj, ok := clx.AsObject(unwrap(item))
		if !ok {
			continue
		}
		count, _ := obj.Uint("uiCount")
		if count == 0 {
			continue
		}

		p := Period{Count: int(count), TimeParams: *timeParams(obj)}
		if p.Period == 0 {
			p.Period, _ = obj.Float("dAvgPeriodDiff")
		}
		out = append(out, p)
	}
	return out
}

func zStackParams(params *clx.Object) *ZStackParams {
	zp := &ZStackParams{}
	if home, ok := params.Uint("uiHomeIndex"); ok {
		zp.HomeIndex = int(home)
	} else if home, ok := params.Float("dZHome"); ok {
		zp.HomeIndex = int(home)
	}
	zp.Step, _ = params.Float("dZStep")

	if b, ok := params.Bool("bBottomToTop"); ok {
		zp.BottomToTop = b
	} else if typ, ok := params.Uint("iType"); ok {
		zp.BottomToTop = typ < 4
	}

	if s, ok := params.Text("wsZDevice"); ok {
		zp.DeviceName = s
	} else if s, ok := params.Text("pPeriod"); ok {
		zp.DeviceName = s
	}
	return zp
}

// positions reads the stage positions of an XY loop. When a validity mask is
// present, only the positions it flags as valid are kept and masked is true.
func positions(loop, params *clx.Object) (isSettingZ bool, out []Position, masked bool) {
	isSettingZ = firstBool(params, "bUseZ", "bIsSettingZ")
	if !isSettingZ {
		isSettingZ, _ = loop.Bool("bIsSettingZ")
	}

	var refX, refY float64
	if rel, _ := params.Bool("bRelativeXY"); rel {
		refX, _ = params.Float("dReferenceX")
		refY, _ = params.Float("dReferenceY")
	}

	validity, ok := params.Get("pItemValid")
	if !ok {
		validity, _ = loop.Get("pItemValid")
	}
	valid := flags(validity)

	points, ok := params.Get("Points")
	if !ok {
		if points, ok = params.Get("pPeriod"); !ok {
			points, _ = loop.Get("pPeriod")
		}
	}

	masked = len(valid) > 0
	for i, item := range clx.Elements(points) {
		if masked && (i >= len(valid) || !valid[i]) {
			continue
		}
		obj, ok := clx.AsObject(unwrap(item))
		if !ok {
			continue
		}

		x, _ := obj.Float("dPosX")
		y, _ := obj.Float("dPosY")
		pos := Position{X: refX + x, Y: refY + y}
		if isSettingZ {
			pos.Z, _ = obj.Float("dPosZ")
		}
		if pfs, ok := obj.Float("dPFSOffset"); ok && pfs >= 0 {
			pos.PFSOffset = &pfs
		}
		for _, name := range []string{"dPosName", "pPosName", "wszName"} {
			if s, ok := obj.Text(name); ok {
				pos.Name = s
				break
			}
		}
		out = append(out, pos)
	}
	return isSettingZ, out, masked
}

// flags decodes a validity mask stored as an object, an array or raw bytes.
// Entries that are not boolean-like count as valid.
func flags(v clx.Value) []bool {
	if b, ok := v.(clx.Bytes); ok {
		out := make([]bool, len(b))
		for i := range b {
			out[i] = b[i] != 0
		}
		return out
	}

	elements := clx.Elements(v)
	if elements == nil {
		return nil
	}
	out := make([]bool, len(elements))
	for i, e := range elements {
		b, ok := clx.AsBool(e)
		out[i] = b || !ok
	}
	return out
}

func firstBool(obj *clx.Object, names ...string) bool {
	for _, name := range names {
		if b, ok := obj.Bool(name); ok {
			return b
		}
	}
	return false
}

func get(obj *clx.Object, name string) clx.Value {
	v, _ := obj.Get(name)
	return v
}
