package model

// Header - Represents the store file header data
type Header struct {
	Version    uint8
	Width      int
	ParamCount int
	Size       int64
	Params     [4]int64
}

// IndexParameters - Represents the sizing of a hash index
//   - Slots is the number of cells in the slot table
//   - ReindexSize is the number of keys the index holds before it grows
//   - FillFactor is the fill factor the slot table was sized with
//   - CellWidth is the byte width of slot and chain cells
type IndexParameters struct {
	Slots       int64
	ReindexSize int64
	FillFactor  float64
	CellWidth   int
}

// Stat - Statistics on the usage and distribution over slots
//   - Keys is the number of keys stored
//   - Slots is the number of slots in the slot table
//   - UsedSlots is the number of slots holding at least one key
//   - LongestChain is the length of the longest chain
//   - ChainDistribution is, per chain length, the number of slots having a chain of that length
type Stat struct {
	Keys              int64
	Slots             int64
	UsedSlots         int64
	LongestChain      int64
	ChainDistribution []int64
}

// StoreStat - Size figures of a single backing store
type StoreStat struct {
	Name     string
	Width    int
	Size     int64
	Capacity int64
}
