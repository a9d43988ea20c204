package events

// View is a reference to a contiguous sequence of histogram bin values.
// Assigning or passing a View is a shallow Go slice-header copy, exactly
// like the C++ non-owning view it ports; Copy is the only allocating
// operation, and Equal always compares the referenced contents rather
// than slice identity.
type View struct {
	data []uint64
}

// NewView wraps data without copying it. The caller must not mutate data
// afterward unless that mutation is intended to be visible through every
// outstanding View.
func NewView(data []uint64) View { return View{data: data} }

// Len returns the number of bins in the view.
func (v View) Len() int { return len(v.data) }

// At returns the bin value at index i.
func (v View) At(i int) uint64 { return v.data[i] }

// Data exposes the underlying slice. Callers that need an owned copy must
// call Copy first.
func (v View) Data() []uint64 { return v.data }

// Copy allocates a new backing array and returns a View over it, the
// deep-copy half of the view's copy-on-copy contract.
func (v View) Copy() View {
	if v.data == nil {
		return View{}
	}
	cp := make([]uint64, len(v.data))
	copy(cp, v.data)
	return View{data: cp}
}

// Equal reports whether two views reference equal content (not whether
// they share a backing array).
func (v View) Equal(o View) bool {
	if len(v.data) != len(o.data) {
		return false
	}
	for i := range v.data {
		if v.data[i] != o.data[i] {
			return false
		}
	}
	return true
}

// IsZero reports whether the view has no backing data at all, as opposed
// to referencing a zero-length slice.
func (v View) IsZero() bool { return v.data == nil }
