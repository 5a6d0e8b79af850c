package nd2

// Axis names an acquisition dimension.
type Axis string

const (
	AxisPosition Axis = "P"
	AxisTime     Axis = "T"
	AxisChannel  Axis = "C"
	AxisZ        Axis = "Z"
	AxisY        Axis = "Y"
	AxisX        Axis = "X"

	axisSequence Axis = "sequence"
)

// defaultAxisOrder is used when the experiment declares no loop.
var defaultAxisOrder = []Axis{AxisPosition, AxisTime, AxisZ}

// Coords addresses one 2D plane.
type Coords struct {
	P, T, C, Z int
}

func (c Coords) at(a Axis) int {
	switch a {
	case AxisPosition:
		return c.P
	case AxisTime:
		return c.T
	case AxisChannel:
		return c.C
	case AxisZ:
		return c.Z
	}
	return 0
}

func (c *Coords) set(a Axis, v int) {
	switch a {
	case AxisPosition:
		c.P = v
	case AxisTime:
		c.T = v
	case AxisChannel:
		c.C = v
	case AxisZ:
		c.Z = v
	}
}

// Sizes holds the extent of every axis.
type Sizes struct {
	P int `json:"P"`
	T int `json:"T"`
	C int `json:"C"`
	Z int `json:"Z"`
	Y int `json:"Y"`
	X int `json:"X"`
}

// Of returns the extent of axis a.
func (s Sizes) Of(a Axis) int {
	switch a {
	case AxisPosition:
		return s.P
	case AxisTime:
		return s.T
	case AxisChannel:
		return s.C
	case AxisZ:
		return s.Z
	case AxisY:
		return s.Y
	case AxisX:
		return s.X
	}
	return 0
}

func (s *Sizes) set(a Axis, v int) {
	switch a {
	case AxisPosition:
		s.P = v
	case AxisTime:
		s.T = v
	case AxisChannel:
		s.C = v
	case AxisZ:
		s.Z = v
	}
}

// layout maps frame coordinates to sequence indices.
type layout struct {
	order   []Axis // ravel order, outermost first
	sizes   Sizes
	channel bool // whether AxisChannel takes part in the ravel
}

func newLayout(a *Attributes, loops []Loop) *layout {
	l := &layout{
		sizes: Sizes{P: 1, T: 1, Z: 1, C: a.Channels(), Y: a.Height, X: a.FrameWidth()},
	}

	expProduct := 1
	seen := map[Axis]bool{}
	for _, loop := range loops {
		axis, ok := loop.Axis()
		if !ok {
			continue
		}
		expProduct *= loop.Count
		if !seen[axis] {
			seen[axis] = true
			l.order = append(l.order, axis)
			l.sizes.set(axis, loop.Count)
			continue
		}
		l.sizes.set(axis, l.sizes.Of(axis)*loop.Count)
	}

	l.channel = expProduct*a.ComponentCount <= a.SequenceCount

	if len(l.order) == 0 {
		l.order = append(l.order, defaultAxisOrder...)
		perFrame := 1
		if l.channel && l.sizes.C > 0 {
			perFrame = l.sizes.C
		}
		if t := a.SequenceCount / perFrame; t > 0 {
			l.sizes.T = t
		}
	}

	if l.channel {
		l.order = append(l.order, AxisChannel)
	}
	return l
}

// check validates every coordinate against its extent.
func (l *layout) check(c Coords) error {
	for _, a := range []Axis{AxisPosition, AxisTime, AxisChannel, AxisZ} {
		if v, n := c.at(a), l.sizes.Of(a); v < 0 || v >= n {
			return &BoundsError{Axis: a, Index: v, Size: n}
		}
	}
	return nil
}

// ravel returns the row-major index of c over axes.
func (l *layout) ravel(c Coords, axes []Axis) int {
	idx := 0
	for _, a := range axes {
		idx = idx*l.sizes.Of(a) + c.at(a)
	}
	return idx
}

func (l *layout) seqIndex(c Coords) (int, error) {
	if err := l.check(c); err != nil {
		return 0, err
	}
	return l.ravel(c, l.order), nil
}

// frameIndex ravels c over the non-channel axes.
func (l *layout) frameIndex(c Coords) (int, error) {
	if err := l.check(c); err != nil {
		return 0, err
	}
	axes := make([]Axis, 0, len(l.order))
	for _, a := range l.order {
		if a != AxisChannel {
			axes = append(axes, a)
		}
	}
	return l.ravel(c, axes), nil
}

// count returns the number of sequence indices addressed by the layout.
func (l *layout) count() int {
	n := 1
	for _, a := range l.order {
		n *= l.sizes.Of(a)
	}
	return n
}

func (l *layout) unravel(seq int) (Coords, error) {
	if n := l.count(); seq < 0 || seq >= n {
		return Coords{}, &BoundsError{Axis: axisSequence, Index: seq, Size: n}
	}

	var c Coords
	for i := len(l.order) - 1; i >= 0; i-- {
		n := l.sizes.Of(l.order[i])
		c.set(l.order[i], seq%n)
		seq /= n
	}
	return c, nil
}
