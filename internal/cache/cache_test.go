package cache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/horiacristescu/nub/internal/tree"
)

func TestGetOrParseCachesResult(t *testing.T) {
	t.Parallel()
	c, err := New(4)
	require.NoError(t, err)

	key := Key{Path: "a.go", ModTime: time.Now(), Format: "text"}
	var calls int32
	fn := func() (*tree.Node, error) {
		atomic.AddInt32(&calls, 1)
		return &tree.Node{Name: "a"}, nil
	}

	n1, err := c.GetOrParse(key, fn)
	require.NoError(t, err)
	n2, err := c.GetOrParse(key, fn)
	require.NoError(t, err)

	require.Same(t, n1, n2)
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestGetOrParseCollapsesConcurrentMisses(t *testing.T) {
	t.Parallel()
	c, err := New(4)
	require.NoError(t, err)

	key := Key{Path: "b.go", ModTime: time.Now(), Format: "text"}
	start := make(chan struct{})
	var calls int32
	fn := func() (*tree.Node, error) {
		<-start
		atomic.AddInt32(&calls, 1)
		return &tree.Node{Name: "b"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.GetOrParse(key, fn)
		}()
	}
	close(start)
	wg.Wait()

	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestInvalidateDropsEntry(t *testing.T) {
	t.Parallel()
	c, err := New(4)
	require.NoError(t, err)

	key := Key{Path: "c.go", ModTime: time.Now(), Format: "text"}
	_, err = c.GetOrParse(key, func() (*tree.Node, error) { return &tree.Node{Name: "c"}, nil })
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	c.Invalidate(key)
	require.Equal(t, 0, c.Len())
}

func TestDifferentModTimesAreDifferentKeys(t *testing.T) {
	t.Parallel()
	c, err := New(4)
	require.NoError(t, err)

	t1 := time.Now()
	t2 := t1.Add(time.Second)
	k1 := Key{Path: "d.go", ModTime: t1, Format: "text"}
	k2 := Key{Path: "d.go", ModTime: t2, Format: "text"}

	_, err = c.GetOrParse(k1, func() (*tree.Node, error) { return &tree.Node{Name: "v1"}, nil })
	require.NoError(t, err)
	_, err = c.GetOrParse(k2, func() (*tree.Node, error) { return &tree.Node{Name: "v2"}, nil })
	require.NoError(t, err)

	require.Equal(t, 2, c.Len())
}
