package merkle

import (
	"fmt"
	"testing"
)

// BenchmarkMakeTree benchmarks tree construction with various sizes
func BenchmarkMakeTree(b *testing.B) {
	sizes := []int{10, 100, 1000, 10000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("Leaves_%d", size), func(b *testing.B) {
			leaves := makeLeaves(size)
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				_, _ = MakeTree(leaves, nil)
			}
		})
	}
}

// BenchmarkGetProof benchmarks single-leaf proof generation
func BenchmarkGetProof(b *testing.B) {
	sizes := []int{10, 100, 1000, 10000}

	for _, size := range sizes {
		tree, _ := MakeTree(makeLeaves(size), nil)
		firstLeaf := len(tree) - size

		b.Run(fmt.Sprintf("Leaves_%d", size), func(b *testing.B) {
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				_, _ = GetProof(tree, firstLeaf+i%size)
			}
		})
	}
}

// BenchmarkProcessProof benchmarks proof verification
func BenchmarkProcessProof(b *testing.B) {
	sizes := []int{10, 100, 1000, 10000}

	for _, size := range sizes {
		tree, _ := MakeTree(makeLeaves(size), nil)
		leafIndex := len(tree) - size
		proof, _ := GetProof(tree, leafIndex)

		b.Run(fmt.Sprintf("Leaves_%d", size), func(b *testing.B) {
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				_ = ProcessProof(tree[leafIndex], proof, nil)
			}
		})
	}
}

// BenchmarkGetMultiProof benchmarks multiproof generation over a quarter of
// the leaves
func BenchmarkGetMultiProof(b *testing.B) {
	sizes := []int{16, 256, 4096}

	for _, size := range sizes {
		tree, _ := MakeTree(makeLeaves(size), nil)
		firstLeaf := len(tree) - size
		indices := make([]int, 0, size/4)
		for i := 0; i < size; i += 4 {
			indices = append(indices, firstLeaf+i)
		}

		b.Run(fmt.Sprintf("Leaves_%d", size), func(b *testing.B) {
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				_, _ = GetMultiProof(tree, indices, nil)
			}
		})
	}
}
