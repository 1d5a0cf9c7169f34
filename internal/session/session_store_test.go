package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePutGet(t *testing.T) {
	store := NewStore()

	store.Put("conv_1", map[string]interface{}{
		"name":  "John Doe",
		"email": "john@example.com",
	})

	ctx, ok := store.Get("conv_1")
	require.True(t, ok)
	assert.Equal(t, "conv_1", ctx.ConversationID)
	assert.Equal(t, "John Doe", ctx.Fields["name"])
	assert.Equal(t, "john@example.com", ctx.Fields["email"])
	assert.False(t, ctx.StoredAt.IsZero())
}

func TestStoreGetMissing(t *testing.T) {
	store := NewStore()

	_, ok := store.Get("unknown")
	assert.False(t, ok)
}

func TestStoreLastWriteWins(t *testing.T) {
	store := NewStore()

	store.Put("conv_1", map[string]interface{}{"email": "old@example.com"})
	store.Put("conv_1", map[string]interface{}{"email": "new@example.com"})

	ctx, ok := store.Get("conv_1")
	require.True(t, ok)
	assert.Equal(t, "new@example.com", ctx.Fields["email"])
	assert.Equal(t, 1, store.Len())
}

func TestStoreReturnsCopies(t *testing.T) {
	store := NewStore()

	fields := map[string]interface{}{"name": "Jane"}
	store.Put("conv_1", fields)

	// Mutating the caller's map must not affect stored state.
	fields["name"] = "changed"
	ctx, _ := store.Get("conv_1")
	assert.Equal(t, "Jane", ctx.Fields["name"])

	// Mutating a returned copy must not affect stored state either.
	ctx.Fields["name"] = "changed again"
	fresh, _ := store.Get("conv_1")
	assert.Equal(t, "Jane", fresh.Fields["name"])
}

func TestStoreRemove(t *testing.T) {
	store := NewStore()

	store.Put("conv_1", map[string]interface{}{"name": "John"})
	store.Remove("conv_1")

	_, ok := store.Get("conv_1")
	assert.False(t, ok)

	// Removing an absent session is a no-op.
	store.Remove("conv_1")
}

func TestStoreList(t *testing.T) {
	store := NewStore()

	store.Put("conv_1", map[string]interface{}{"name": "A"})
	store.Put("conv_2", map[string]interface{}{"name": "B"})

	all := store.List()
	assert.Len(t, all, 2)
	assert.Equal(t, "A", all["conv_1"].Fields["name"])
	assert.Equal(t, "B", all["conv_2"].Fields["name"])
}
