package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "tomates fraiches", Normalize("  Tomates   Fraîches "))
	assert.Equal(t, "creme brulee", Normalize("Crème brûlée"))
	assert.Equal(t, "", Normalize("   "))

	// Normalizing twice changes nothing
	once := Normalize("Œufs à la coque")
	assert.Equal(t, once, Normalize(once))
}

func TestScore(t *testing.T) {
	t.Run("exact match", func(t *testing.T) {
		assert.Equal(t, 1.0, Score("tomate", "tomate"))
	})

	t.Run("substring of longer name", func(t *testing.T) {
		assert.Equal(t, 0.8, Score("tomate", "tomates fraiches"))
		assert.Equal(t, 0.8, Score("lait de coco", "lait"))
	})

	t.Run("short substrings are not matched", func(t *testing.T) {
		// "oe" is inside "boeuf" but too short to count as a substring hit
		assert.Less(t, Score("oe", "boeuf"), 0.5)
	})

	t.Run("word containment floor", func(t *testing.T) {
		// not a substring, but every word of the smaller set is present
		s := Score("fraiche creme", "creme fraiche epaisse")
		assert.Equal(t, 0.7, s)
	})

	t.Run("partial word overlap", func(t *testing.T) {
		// one of three words in common, no containment
		s := Score("sauce tomate maison", "sauce soja salee")
		assert.InDelta(t, 1.0/3.0, s, 1e-9)
	})

	t.Run("disjoint names", func(t *testing.T) {
		assert.Equal(t, 0.0, Score("farine", "poulet"))
	})
}

func TestMatcherBest(t *testing.T) {
	foods := []string{"Tomate", "Poulet", "Crème fraîche", "Lait"}
	m := NewMatcher(foods)

	t.Run("accent and plural tolerant", func(t *testing.T) {
		idx, score := m.Best("tomates fraîches")
		assert.Equal(t, 0, idx)
		assert.GreaterOrEqual(t, score, 0.7)
	})

	t.Run("exact name", func(t *testing.T) {
		idx, score := m.Best("Poulet")
		assert.Equal(t, 1, idx)
		assert.Equal(t, 1.0, score)
	})

	t.Run("below threshold", func(t *testing.T) {
		idx, _ := m.Best("curcuma")
		assert.Equal(t, -1, idx)
	})

	t.Run("first seen wins ties", func(t *testing.T) {
		dup := NewMatcher([]string{"sel fin", "sel fin"})
		idx, score := dup.Best("sel fin")
		assert.Equal(t, 0, idx)
		assert.Equal(t, 1.0, score)
	})

	t.Run("deterministic", func(t *testing.T) {
		i1, s1 := m.Best("lait de coco")
		i2, s2 := m.Best("lait de coco")
		assert.Equal(t, i1, i2)
		assert.Equal(t, s1, s2)
	})
}
