package binmatrix_test

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/hupe1980/binmatrix"
)

func Example() {
	dir, err := os.MkdirTemp("", "binmatrix-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	s, err := binmatrix.Open[float64](filepath.Join(dir, "m.bin"), 6, 6)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	_ = s.Set(1, 1, 1.1)
	_ = s.Set(1, 6, 2.2)
	_ = s.Set(2, 1, 3.3)
	_ = s.Set(6, 6, 99.99)

	v, _ := s.At(6, 6)
	fmt.Println(v)
	// Output: 99.99
}

func ExampleStore_ReadMany() {
	dir, err := os.MkdirTemp("", "binmatrix-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	s, err := binmatrix.Open[float64](filepath.Join(dir, "m.bin"), 2, 2)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	values, _ := binmatrix.GridFrom(2, 2, []float64{1.1, 2.2, 3.3, 4.4})
	if err := s.WriteGrid([]int{1, 2}, []int{1, 2}, values); err != nil {
		log.Fatal(err)
	}

	got, _ := s.ReadMany([]int{1, 3, 2})
	fmt.Println(got)
	// Output: [1.1 3.3 2.2]
}

func ExampleStore_ReadGrid() {
	dir, err := os.MkdirTemp("", "binmatrix-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	s, err := binmatrix.Open[int32](filepath.Join(dir, "m.bin"), 3, 3)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	for r := 1; r <= 3; r++ {
		for c := 1; c <= 3; c++ {
			_ = s.Set(r, c, int32(10*r+c))
		}
	}

	g, _ := s.ReadGrid([]int{3, 1}, []int{2, 2})
	for a := 0; a < 2; a++ {
		row, _ := g.Row(a)
		fmt.Println(row)
	}
	// Output:
	// [32 32]
	// [12 12]
}
