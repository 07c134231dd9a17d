package binmatrix

import "unsafe"

// Element is the set of fixed-width types a Store can hold.
//
// The width of T is the element width of the backing file: 1 byte for
// int8/uint8 (character matrices), 4 bytes for int32/float32, 8 bytes for
// int64/float64.
type Element interface {
	~int8 | ~uint8 | ~int16 | ~uint16 |
		~int32 | ~uint32 | ~int64 | ~uint64 |
		~float32 | ~float64
}

// WidthOf returns the element width of T in bytes.
func WidthOf[T Element]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// encode copies the in-memory representation of v into dst.
// dst must be at least WidthOf[T]() bytes long.
func encode[T Element](dst []byte, v T) {
	copy(dst, unsafe.Slice((*byte)(unsafe.Pointer(&v)), unsafe.Sizeof(v)))
}

// decode reinterprets the leading bytes of src as a T using the platform's
// native byte order.
func decode[T Element](src []byte) T {
	var v T
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&v)), unsafe.Sizeof(v)), src)
	return v
}

// decodeInto decodes len(dst) consecutive elements from src.
func decodeInto[T Element](dst []T, src []byte, width int) {
	for i := range dst {
		dst[i] = decode[T](src[i*width:])
	}
}

// encodeFrom encodes src into dst, one element per width bytes.
func encodeFrom[T Element](dst []byte, src []T, width int) {
	for i, v := range src {
		encode(dst[i*width:], v)
	}
}
