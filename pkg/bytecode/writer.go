package bytecode

// Writer accumulates big-endian encoded bytes, the classfile wire order.
type Writer struct {
	buf []byte
}

// U1 appends one unsigned byte.
func (w *Writer) U1(v int) {
	w.buf = append(w.buf, byte(v))
}

// U2 appends an unsigned two-byte value.
func (w *Writer) U2(v int) {
	w.buf = append(w.buf, byte(v>>8), byte(v))
}

// U4 appends an unsigned four-byte value.
func (w *Writer) U4(v uint32) {
	w.buf = append(w.buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// S4 appends a signed four-byte value.
func (w *Writer) S4(v int) {
	w.U4(uint32(int32(v)))
}

// Raw appends bytes verbatim.
func (w *Writer) Raw(b []byte) {
	w.buf = append(w.buf, b...)
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}
