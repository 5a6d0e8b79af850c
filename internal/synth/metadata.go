package synth

import "fmt"

// Attributes describes the image attributes chunk.
type Attributes struct {
	Width, Height  int
	Components     int
	Channels       int
	Bits           int
	SequenceCount  int
	Compression    string
	WidthBytesOnly bool
}

// Encode returns the TLV payload of the ImageAttributesLV! chunk.
func (a Attributes) Encode() []byte {
	bits := a.Bits
	if bits == 0 {
		bits = 16
	}
	children := [][]byte{
		UInt32("uiWidthBytes", uint32(a.Width*a.Components*bits/8)),
		UInt32("uiHeight", uint32(a.Height)),
		UInt32("uiComp", uint32(a.Components)),
		UInt32("uiBpcInMemory", uint32(bits)),
		UInt32("uiBpcSignificant", uint32(bits)),
		UInt32("uiSequenceCount", uint32(a.SequenceCount)),
		UInt32("uiTileWidth", uint32(a.Width)),
		UInt32("uiTileHeight", uint32(a.Height)),
		Int32("ePixelType", 1),
	}
	if !a.WidthBytesOnly {
		children = append(children, UInt32("uiWidth", uint32(a.Width)))
	}
	if a.Channels > 0 {
		children = append(children, UInt32("uiChannelCount", uint32(a.Channels)))
	}
	if a.Compression != "" {
		children = append(children,
			String("eCompression", a.Compression),
			Double("dCompressionParam", 0),
		)
	}
	return Level("SLxImageAttributes", children...)
}

// Index returns the name of the i-th element of an indexed container.
func Index(i int) string {
	return fmt.Sprintf("i%010d", i)
}

// Point encodes one XY stage position.
func Point(i int, x, y, z float64) []byte {
	return Level(Index(i),
		Double("dPosX", x),
		Double("dPosY", y),
		Double("dPosZ", z),
		Double("dPFSOffset", -1),
		String("dPosName", fmt.Sprintf("#%d", i+1)),
	)
}

// XYLoop encodes an experiment made of a single XY position loop. valid
// holds one flag byte per point.
func XYLoop(points [][3]float64, valid []byte) []byte {
	encoded := make([][]byte, len(points))
	for i, p := range points {
		encoded[i] = Point(i, p[0], p[1], p[2])
	}
	return Level("SLxExperiment",
		UInt32("uiLoopType", 2),
		UInt32("uiNestingLevel", 0),
		Level("uLoopPars",
			UInt32("uiCount", uint32(len(points))),
			Bool("bUseZ", true),
			Level("Points", encoded...),
		),
		ByteArray("pItemValid", valid),
	)
}

// TimeLoop encodes a time loop object with its parameters.
func TimeLoop(name string, count int, start, period, duration float64, next ...[]byte) []byte {
	children := [][]byte{
		UInt32("uiLoopType", 1),
		Level("uLoopPars",
			UInt32("uiCount", uint32(count)),
			Double("dStart", start),
			Double("dPeriod", period),
			Double("dDuration", duration),
		),
	}
	if len(next) > 0 {
		children = append(children, Level("ppNextLevelEx", next...))
	}
	return Level(name, children...)
}

// ZLoop encodes a z-stack loop object.
func ZLoop(name string, count int, step float64, next ...[]byte) []byte {
	children := [][]byte{
		UInt32("uiLoopType", 4),
		Level("uLoopPars",
			UInt32("uiCount", uint32(count)),
			Double("dZStep", step),
			UInt32("uiHomeIndex", uint32(count/2)),
			Bool("bBottomToTop", true),
			String("wsZDevice", "Ti ZDrive"),
		),
	}
	if len(next) > 0 {
		children = append(children, Level("ppNextLevelEx", next...))
	}
	return Level(name, children...)
}
