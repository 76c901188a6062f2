package alloc

const bitsPerByte = 8

// occupancy is a bitmap with one bit per unit, high when the unit is inside
// an allocated block.
type occupancy struct {
	bytes []byte
	units int
}

func newOccupancy(units int) occupancy {
	return occupancy{
		bytes: make([]byte, (units+bitsPerByte-1)/bitsPerByte),
		units: units,
	}
}

func (o occupancy) test(unit int) bool {
	return o.bytes[unit/bitsPerByte]&(0b1000_0000>>uint(unit%bitsPerByte)) != 0
}

func (o occupancy) set(unit int) {
	o.bytes[unit/bitsPerByte] |= 0b1000_0000 >> uint(unit%bitsPerByte)
}

func (o occupancy) clear(unit int) {
	o.bytes[unit/bitsPerByte] &^= 0b1000_0000 >> uint(unit%bitsPerByte)
}

func (o occupancy) markRange(start, size int) {
	for u := start; u < start+size; u++ {
		o.set(u)
	}
}

func (o occupancy) clearRange(start, size int) {
	for u := start; u < start+size; u++ {
		o.clear(u)
	}
}

// reset clears every bit and then marks the prefix [0, used).
func (o occupancy) reset(used int) {
	clear(o.bytes)
	o.markRange(0, used)
}

// count returns the number of high bits.
func (o occupancy) count() int {
	n := 0
	for u := 0; u < o.units; u++ {
		if o.test(u) {
			n++
		}
	}
	return n
}
