package conf

// HeaderLength - Length of the header at the start of every store file
const HeaderLength int64 = 64

// HeaderMagic - Magic bytes at offset 0 of every store file - 3 bytes
const HeaderMagic string = "IST"

// FormatVersion - Store file format version at offset 3 - 1 byte
const FormatVersion uint8 = 1

// VersionOffset - Header offset to the format version - 1 byte
const VersionOffset int64 = 3

// WidthOffset - Header offset to the cell width - 1 byte
const WidthOffset int64 = 4

// ParamCountOffset - Header offset to the number of params in use - 1 byte
const ParamCountOffset int64 = 5

// SizeOffset - Header offset to the logical size in cells - 8 bytes
const SizeOffset int64 = 8

// ChecksumOffset - Header offset to the xxhash64 checksum of the rest of the header - 8 bytes
const ChecksumOffset int64 = 24

// ParamsOffset - Header offset to the four int64 params - 32 bytes
const ParamsOffset int64 = 32

// MaxParams - Number of int64 params a store can persist
const MaxParams int = 4

// DefaultFillFactor - Fill factor used to size slot tables when none is given
const DefaultFillFactor float64 = 0.75

// FillFactorScale - Fill factors are persisted as integer millionths
const FillFactorScale float64 = 1_000_000

// DefaultReindexSize - Designed capacity of a newly created index
const DefaultReindexSize int64 = 16

// DefaultSegmentBytes - Size of pooled segments backing RAM stores
const DefaultSegmentBytes int = 1 << 16

// DefaultPoolDepth - Number of idle segments of each kind the pool keeps
const DefaultPoolDepth int = 64

// DefaultHandles - Number of file handles a disk store keeps open
const DefaultHandles int = 1

// HashBits - Number of significant bits in a key hash
const HashBits uint = 48

// HashMask - Mask keeping the significant bits of a key hash
const HashMask uint64 = 1<<HashBits - 1

// HashCacheWidth - Cell width of the hash cache, enough for HashBits
const HashCacheWidth int = 6

// EndsInitialWidth - Initial cell width of the record end offset table
const EndsInitialWidth int = 4

// ScalarWidth - Cell width of scalar key stores
const ScalarWidth int = 8

// DefaultVectorWidth - Element width of vector key stores when none is given
const DefaultVectorWidth int = 8

// Slot table params, indexes into the params of the slot table store
const (
	ParamSlots       int = 0
	ParamReindexSize int = 1
	ParamFillFactor  int = 2
	ParamShape       int = 3
)

// Key shapes as persisted in ParamShape
const (
	ShapeBytes   int64 = 1
	ShapeScalars int64 = 2
	ShapeVectors int64 = 3
)

// Growth thresholds in bytes
const (
	GrowDoubleBelow  int64 = 16 << 20
	GrowHalfBelow    int64 = 64 << 20
	GrowQuarterBelow int64 = 256 << 20
)

// DumpMagic - Magic bytes starting an export stream
const DumpMagic string = "ISD1"

// File name suffixes of the sibling files making up an index
const (
	EndsSuffix  string = ".ends"
	HashSuffix  string = ".hash"
	SlotsSuffix string = ".slots"
	ChainSuffix string = ".chain"
)

// DiskBlockBytes - Disk store files grow in multiples of this many bytes
const DiskBlockBytes int64 = 4096
