package madj

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndexEntry(t *testing.T) {
	t.Run("layout", func(t *testing.T) {
		entry := IndexEntry{Size: 1, Offset: 2}
		buf, err := entry.Marshal()
		require.NoError(t, err)

		expected := []byte{
			0, 0, 1, // Size.
			0, 0, 0, 0, 2, // Offset.
		}
		require.Equal(t, expected, buf)
	})

	t.Run("maxValues", func(t *testing.T) {
		entry := IndexEntry{
			Size:   16777215,
			Offset: 1099511627775,
		}
		buf, err := entry.Marshal()
		require.NoError(t, err)
		require.Equal(t, bytes.Repeat([]byte{0xff}, 8), buf)

		var decoded IndexEntry
		require.NoError(t, decoded.Unmarshal(buf))
		require.Equal(t, entry, decoded)
	})

	t.Run("sizeOverflow", func(t *testing.T) {
		entry := IndexEntry{Size: 16777216}
		_, err := entry.Marshal()
		require.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("offsetOverflow", func(t *testing.T) {
		entry := IndexEntry{Offset: 1099511627776}
		_, err := entry.Marshal()
		require.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("short", func(t *testing.T) {
		var entry IndexEntry
		err := entry.Unmarshal([]byte{0, 0, 1})
		require.ErrorIs(t, err, ErrTruncated)
	})
}

func TestUnmarshalIndex(t *testing.T) {
	buf := bytes.NewReader([]byte{
		0, 0, 3, 0, 0, 0, 0, 0, // Entry 1.
		0, 0, 4, 0, 0, 0, 0, 3, // Entry 2.
	})

	index, err := unmarshalIndex(buf, 2)
	require.NoError(t, err)

	expected := []IndexEntry{
		{Size: 3, Offset: 0},
		{Size: 4, Offset: 3},
	}
	require.Equal(t, expected, index)
}

func TestUnmarshalIndexTruncated(t *testing.T) {
	buf := bytes.NewReader([]byte{0, 0, 3, 0})

	// Bogus count must fail instead of exhausting memory.
	_, err := unmarshalIndex(buf, 1<<40)
	require.ErrorIs(t, err, ErrTruncated)
}
