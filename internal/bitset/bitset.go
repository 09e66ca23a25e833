// Package bitset is a fixed-size validity mask, one bit per bar.
package bitset

type Set []uint64

func New(n int) Set {
	return make(Set, (n+63)/64)
}

func (s Set) IsSet(i int) bool {
	return (s[i>>6] & (uint64(1) << uint(i&63))) != 0
}

func (s Set) Set(i int) {
	s[i>>6] |= (uint64(1) << uint(i&63))
}

// Count returns the number of set bits below n.
func (s Set) Count(n int) int {
	c := 0
	for i := 0; i < n; i++ {
		if s.IsSet(i) {
			c++
		}
	}
	return c
}
