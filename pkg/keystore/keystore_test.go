package keystore_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorumsig/tecdsa/pkg/keyid"
	"github.com/quorumsig/tecdsa/pkg/keystore"
)

func testID(b byte) keyid.KeyID {
	var id keyid.KeyID
	id[0] = b
	return id
}

func TestInsertAndGet(t *testing.T) {
	store := keystore.NewInMemory()

	_, ok := store.Get(testID(1))
	assert.False(t, ok)

	require.NoError(t, store.Insert(testID(1), []byte("secret")))
	value, ok := store.Get(testID(1))
	require.True(t, ok)
	assert.Equal(t, []byte("secret"), value)

	// Returned slices are copies.
	value[0] = 'X'
	again, ok := store.Get(testID(1))
	require.True(t, ok)
	assert.Equal(t, []byte("secret"), again)
}

func TestInsertIdempotentAndConflicting(t *testing.T) {
	store := keystore.NewInMemory()
	require.NoError(t, store.Insert(testID(1), []byte("secret")))

	assert.NoError(t, store.Insert(testID(1), []byte("secret")))
	assert.ErrorIs(t, store.Insert(testID(1), []byte("other")), keystore.ErrKeyExists)
	assert.Equal(t, 1, store.Len())
}

func TestConcurrentAccess(t *testing.T) {
	store := keystore.NewInMemory()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := testID(byte(i % 4))
			_ = store.Insert(id, []byte{byte(i % 4)})
			_, _ = store.Get(id)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 4, store.Len())
}
