package collection

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncMap(t *testing.T) {
	m := NewSyncMap[string, int]()
	m.Put("a", 1)
	assert.True(t, m.PutIfAbsent("b", 2))
	assert.False(t, m.PutIfAbsent("b", 3))

	v, ok := m.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, m.Len())

	values := m.Values()
	sort.Ints(values)
	assert.Equal(t, []int{1, 2}, values)

	m.Range(func(key string, value int) bool {
		m.Delete(key)
		return true
	})
	assert.Equal(t, 0, m.Len())
	assert.False(t, m.Delete("a"))
}
