// Package conv provides checked integer arithmetic and conversions.
//
// Matrix shapes come from callers and file lengths come from disk, so the
// products rows*cols*width and the chunk counts derived from them are
// computed with overflow checks instead of plain multiplication.
package conv
