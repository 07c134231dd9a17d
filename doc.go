// Package binmatrix stores a dense matrix of fixed-width numbers in a flat
// binary file and gives random access to single elements and selections of
// elements without loading the matrix into memory.
//
// # File Format
//
// A matrix file has no header. It holds rows*cols elements of one type in
// the platform's native byte order, so its length is exactly
// rows*cols*WidthOf[T]() bytes. The shape is supplied by the caller on every
// open; two shapes with the same element count read the same bytes
// differently, and nothing in the file can tell them apart.
//
// # Quick Start
//
//	s, _ := binmatrix.Open[float64]("m.bin", 6, 6)
//	defer s.Close()
//
//	_ = s.Set(1, 6, 2.2)       // one-based (row, col)
//	v, _ := s.At(1, 6)         // 2.2
//	w, _ := s.Read(5)          // zero-based linear index
//
// A missing file is created at the required length on Open. An existing file
// of any other length is rejected with ErrDimensionMismatch and left as it
// was.
//
// # Indexing
//
// Read and Write take a zero-based linear index in [0, rows*cols).
// At and Set take a one-based (row, col) pair that is reduced to a linear
// index according to the store's Layout. The default, LayoutRowCount,
// computes (row-1)*rows + (col-1), which is what existing files expect.
// Every entry point checks bounds before any I/O; a rejected call returns an
// error matching ErrOutOfRange and leaves the file unchanged.
//
// # Bulk Access
//
//	vals, _ := s.ReadMany([]int{1, 3, 2})          // one-based linear indices
//	g, _ := s.ReadGrid([]int{2, 1}, []int{1, 1, 3}) // 2x3 grid, any order
//	_ = s.WriteGrid([]int{1, 2}, []int{1}, g2)      // g2 must be 2x1
//
// Adjacent positions are coalesced into one positioned read or write.
// Bulk writes are not atomic: an I/O error part way through leaves the
// elements before it written.
//
// # Concurrency
//
// All I/O is positioned (ReadAt/WriteAt), so a Store has no shared cursor and
// concurrent readers are safe. Writers to the same element are not
// coordinated.
//
// # Views
//
// OpenView maps an existing file read-only. A View has the same read methods
// as a Store and never creates or grows a file.
package binmatrix
