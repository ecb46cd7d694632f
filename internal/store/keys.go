package store

import "encoding/binary"

// Index keys are built so that bytewise bucket order equals the sort
// order the index promises. Dates are big-endian with the sign bit
// flipped so negative values order before the 0 "undated" sentinel.
// A 0x00 separator and the record id make non-unique keys distinct.

func encodeDate(dst []byte, date int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(date)^(1<<63))
	return append(dst, b[:]...)
}

func dateKey(date int64, id string) []byte {
	k := make([]byte, 0, 9+len(id))
	k = encodeDate(k, date)
	k = append(k, 0x00)
	return append(k, id...)
}

func titleKey(lower, id string) []byte {
	k := make([]byte, 0, len(lower)+1+len(id))
	k = append(k, lower...)
	k = append(k, 0x00)
	return append(k, id...)
}

func ratingDateKey(rating int, date int64, id string) []byte {
	k := make([]byte, 0, 10+len(id))
	k = append(k, byte(rating))
	k = encodeDate(k, date)
	k = append(k, 0x00)
	return append(k, id...)
}
