package stree

import "os"

import "go.uber.org/zap"


// StreeOpts initialize the Stree
type StreeOpts struct {
	// Filepath: the path to the directory holding the memory mapped file. Empty selects heap storage.
	Filepath string
	// FileName: the name of the memory mapped file
	FileName string
	// CompactOffsetLimit: the storage offset past which node allocations promote to the large layout. Defaults to the widest offset a compact reference can express.
	CompactOffsetLimit *uint64
	// Logger: structured logger for lifecycle events. Defaults to a nop logger.
	Logger *zap.SugaredLogger
}

// streeNode is a node of the in-memory suffix tree.
//	Each node owns exactly one incoming edge label over the text, except the root which has none.
type streeNode struct {
	// start: inclusive start of the edge label in the text
	start int
	// end: exclusive end of the edge label, or boundlessEnd while the edge still extends to the construction frontier
	end int
	// depthFromRoot: cumulative edge length from the root to the START of this node's edge
	depthFromRoot int
	// suffixLink: Ukkonen suffix link, nil for leaves and for the root
	suffixLink *streeNode
	// children: child entries ordered ascending by first edge symbol
	children []childEntry
	// leafCount: number of leaves in this subtree, computed at finalization
	leafCount int
}

// childEntry pairs a child's first edge symbol with the child node.
type childEntry struct {
	key int32
	node *streeNode
}

// memTree is the in-memory tree produced by the online builder.
type memTree struct {
	// root: the root node, owner of the whole structure
	root *streeNode
	// deepest: the internal node of greatest total depth, tracked during construction for the longest repeated substring
	deepest *streeNode
	// text: the indexed text
	text *Text
}

// persistentTree reads a materialized tree directly from storage.
type persistentTree struct {
	// storage: the byte addressable store holding the tree
	storage Storage
	// io: layout dispatching codec over the storage
	io *nodeIO
	// text: the indexed text, reloaded from the text region on load
	text *Text
	// version: the header format version, Version4 or Version5
	version uint32
	// rootOffset: byte offset of the root node record
	rootOffset uint64
	// textOffset: byte offset of the text region
	textOffset uint64
	// deepestOffset: byte offset of the deepest internal node
	deepestOffset uint64
	// transitionOffset: first byte belonging to the large zone, 0 when the tree is pure compact
	transitionOffset uint64
	// jumpTableStart: byte offset of the first jump table entry
	jumpTableStart uint64
	// jumpTableEnd: byte offset one past the last jump table entry
	jumpTableEnd uint64
}

// Stree is a generalized suffix tree over a 16 bit code unit text.
//	One of mem or pst is populated depending on how the tree was built or loaded.
type Stree struct {
	// text: the indexed text
	text *Text
	// mem: the in-memory tree, nil for persistent trees
	mem *memTree
	// pst: the persistent tree, nil for in-memory trees
	pst *persistentTree
	// opened: flag indicating the tree has not been closed
	opened bool
	// nodeCount: total nodes including the root
	nodeCount int
	// leafCount: total leaves, always N + 1 after finalization
	leafCount int
	// maxDepth: total depth of the deepest internal node, the length of the longest repeated substring
	maxDepth int
	// logger: structured logger for lifecycle events
	logger *zap.SugaredLogger
}

// ExactMatchAnchor is one right-maximal exact match between the text and a query.
type ExactMatchAnchor struct {
	// PosInText: start position of the match in the indexed text
	PosInText int
	// PosInQuery: start position of the match in the query
	PosInQuery int
	// Length: match length in code units
	Length int
}

// CommonSubstring is the single result form of the longest common substring search.
type CommonSubstring struct {
	// Substring: the longest common substring
	Substring string
	// PosInText: one start position of the substring in the indexed text
	PosInText int
	// PosInOther: start position of the substring in the other string
	PosInOther int
}

// AllCommonSubstrings is the all-ties result form of the longest common substring search.
type AllCommonSubstrings struct {
	// Substring: the longest common substring
	Substring string
	// PosInText: every start position of the substring in the indexed text
	PosInText []int
	// PosInOther: every start position of a longest match in the other string
	PosInOther []int
}

// TreeNodeInfo describes one node during a pre-order traversal.
type TreeNodeInfo struct {
	// EdgeStart: inclusive start of the incoming edge label
	EdgeStart int
	// EdgeEnd: exclusive end of the incoming edge label
	EdgeEnd int
	// DepthFromRoot: cumulative edge length from the root to the start of the edge
	DepthFromRoot int
	// LeafCount: leaves in the subtree rooted here
	LeafCount int
	// ChildKeys: first edge symbols of the children, ascending
	ChildKeys []int32
	// IsLeaf: true when the node has no children
	IsLeaf bool
}

// TreeVisitor receives nodes in pre-order, siblings ascending by first edge symbol.
//	Returning an error aborts the traversal and propagates to the caller.
type TreeVisitor = func(info *TreeNodeInfo) error

// DefaultPageSize is the default page size set by the underlying OS. Usually will be 4KiB
var DefaultPageSize = os.Getpagesize()

const (
	// 4 byte ASCII magic at offset 0 of a persistent file
	Magic = "STRE"
	// Version4 marks a pure compact layout file
	Version4 = uint32(4)
	// Version5 marks a hybrid compact and large layout file
	Version5 = uint32(5)
	// Index of Magic in the serialized header
	HeaderMagicIdx = 0
	// Index of Version in the serialized header
	HeaderVersionIdx = 4
	// Index of the informational storage size in the serialized header
	HeaderStorageSizeIdx = 8
	// Index of the root node offset in the serialized header
	HeaderRootOffsetIdx = 16
	// Index of the text region offset in the serialized header
	HeaderTextOffsetIdx = 24
	// Index of the text length in the serialized header
	HeaderTextLengthIdx = 32
	// Index of the deepest internal node offset in the serialized header
	HeaderDeepestIdx = 40
	// Index of the transition offset in the serialized header, reserved in Version4
	HeaderTransitionIdx = 48
	// Index of the jump table start offset in the serialized header, reserved in Version4
	HeaderJumpStartIdx = 56
	// Index of the jump table end offset in the serialized header, reserved in Version4
	HeaderJumpEndIdx = 64
	// Total serialized header size, also the offset of the root node
	HeaderSize = 72
)

const (
	// Index of edge start in a compact node
	CNodeStartIdx = 0
	// Index of edge end in a compact node
	CNodeEndIdx = 4
	// Index of depth from root in a compact node
	CNodeDepthIdx = 8
	// Index of the suffix link reference in a compact node
	CNodeSuffixLinkIdx = 12
	// Index of the child array reference in a compact node
	CNodeChildArrayIdx = 16
	// Index of the leaf count in a compact node
	CNodeLeafCountIdx = 20
	// Index of the flags word in a compact node
	CNodeFlagsIdx = 24
	// Total compact node record size
	CompactNodeSize = 28
	// Index of edge start in a large node
	LNodeStartIdx = 0
	// Index of edge end in a large node
	LNodeEndIdx = 8
	// Index of depth from root in a large node
	LNodeDepthIdx = 16
	// Index of the leaf count in a large node
	LNodeLeafCountIdx = 20
	// Index of the suffix link reference in a large node
	LNodeSuffixLinkIdx = 24
	// Index of the child array reference in a large node
	LNodeChildArrayIdx = 32
	// Index of the flags word in a large node
	LNodeFlagsIdx = 40
	// Total large node record size including the reserved tail word
	LargeNodeSize = 48
	// Size of one compact child array entry, u32 key and u32 reference
	CompactChildEntrySize = 8
	// Size of one large child array entry, u32 key and u64 reference
	LargeChildEntrySize = 12
	// Size of the count prefix on a child array
	ChildArrayCountSize = 4
	// Size of one jump table entry
	JumpEntrySize = 8
	// High bit tag marking a compact reference as a jump table index
	JumpRefTag = uint32(0x80000000)
	// Flag bit marking a leaf record
	FlagLeaf = uint32(1)
	// Edge end marker for an edge extending to the construction frontier, compact layout
	Boundless32 = uint32(0xFFFFFFFF)
	// Edge end marker for an edge extending to the construction frontier, large layout
	Boundless64 = uint64(0xFFFFFFFFFFFFFFFF)
	// Null reference in either persistent layout
	NullRef = uint64(0)
	// Offset of the root node on initialization
	InitRootOffset = uint64(HeaderSize)
	// Widest offset a compact reference can express directly, also the default compact offset limit
	MaxCompactOffsetLimit = uint64(0x7FFFFFFF)
	// 1 GB MaxResize
	MaxResize = 1000000000
)

// boundlessEnd marks an in-memory edge that extends to the construction frontier.
const boundlessEnd = int(-1)

/*
	Offsets explained:

	Header:
		0 Magic - 4 bytes
		4 Version - 4 bytes
		8 StorageSize - 8 bytes
		16 RootOffset - 8 bytes
		24 TextOffset - 8 bytes
		32 TextLength - 8 bytes
		40 DeepestOffset - 8 bytes
		48 TransitionOffset - 8 bytes (reserved in v4)
		56 JumpTableStart - 8 bytes (reserved in v4)
		64 JumpTableEnd - 8 bytes (reserved in v4)

	Node (Compact, 28 bytes):
		0 Start - 4 bytes
		4 End - 4 bytes, 0xFFFFFFFF while boundless
		8 DepthFromRoot - 4 bytes
		12 SuffixLinkRef - 4 bytes, high bit tags a jump table index
		16 ChildArrayRef - 4 bytes, high bit tags a jump table index, 0 for leaves
		20 LeafCount - 4 bytes
		24 Flags - 4 bytes

	Node (Large, 48 bytes):
		0 Start - 8 bytes
		8 End - 8 bytes, all ones while boundless
		16 DepthFromRoot - 4 bytes
		20 LeafCount - 4 bytes
		24 SuffixLinkRef - 8 bytes
		32 ChildArrayRef - 8 bytes, 0 for leaves
		40 Flags - 4 bytes
		44 Reserved - 4 bytes

	Child array:
		0 Count - 4 bytes
		4 Entries -->
			compact: 4 byte key then 4 byte reference per entry
			large: 4 byte key then 8 byte reference per entry
		keys store symbol + 1 so the sentinel sorts first at key 0

	A child array is formatted per its OWNING node's layout, not per its own
	offset. After promotion a compact node may reallocate its array past the
	transition offset; the array stays compact formatted and the node's
	ChildArrayRef becomes a jump table index.
*/
