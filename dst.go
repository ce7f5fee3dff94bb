package dst

// Word is the storage unit of a container buffer. It must be a fixed-size,
// bitwise-copyable integer so the garbage collector never scans buffer contents.
type Word interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Buffer is the backing storage of a container.
//
// Words returns the current contents; the same slice serves as the shared and
// the exclusive view. Views alias the same memory until Grow succeeds.
type Buffer[W Word] interface {
	Words() []W
	// Grow ensures capacity for at least minWords words. Fixed storage fails
	// with a capacity error and leaves the contents untouched. Growable storage
	// preserves every existing word, possibly at a new address.
	Grow(minWords int) error
}

// Span describes one stored element, as laid out in a container buffer.
type Span struct {
	Kind   string // codec kind
	Offset int    // first word, descriptor included
	Words  int    // total words, descriptor included
	Meta   int    // descriptor words
	Size   int    // payload bytes
}
