package nd2

const (
	chunkMagic = 0x0ABECEDA
	jp2Magic   = 0x0C000000

	fileSignature     = "ND2 FILE SIGNATURE CHUNK NAME01!"
	filemapSignature  = "ND2 FILEMAP SIGNATURE NAME 0001!"
	chunkmapSignature = "ND2 CHUNK MAP SIGNATURE 0000001!"

	chunkHeaderSize = 16
	fileHeaderSize  = 112
	trailerSize     = 40

	// Version digits inside the 64-byte payload of the file header ("Ver3.0").
	versionMajorOffset = chunkHeaderSize + 32 + 3
	versionMinorOffset = chunkHeaderSize + 32 + 5

	// Image chunks start with an 8-byte acquisition timestamp.
	frameTimestampSize = 8
)

// Chunk names of version 3 files.
const (
	ChunkAttributes = "ImageAttributesLV!"
	ChunkTextInfo   = "ImageTextInfoLV!"
	ChunkExperiment = "ImageMetadataLV!"
)

// Chunk names of version 2 files.
const (
	ChunkAttributesV2 = "ImageAttributes!"
	ChunkTextInfoV2   = "ImageTextInfo!"
	ChunkExperimentV2 = "ImageMetadata!"
)

const imageDataChunk = "ImageDataSeq|%d!"

// Loop types.
const (
	ltUnknown        = 0
	ltTime           = 1
	ltXYPosition     = 2
	ltXYDiscrete     = 3
	ltZStack         = 4
	ltPolar          = 5
	ltSpectral       = 6
	ltCustom         = 7
	ltNETime         = 8
	ltManualTime     = 9
	ltZStackAccurate = 10
)

// Compression types.
const (
	cNone     = "none"
	cLossless = "lossless"
	cLossy    = "lossy"
)

// Pixel data types.
const (
	pxUnsigned = "unsigned"
	pxFloat    = "float"
)
