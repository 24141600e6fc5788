package exporter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepstats/pkg/contracts/domain"
)

func TestWriteView(t *testing.T) {
	columns := []string{"name", "hr", "avg"}
	rows := []domain.Row{
		{"name": "Ruth", "hr": "54", "avg": ".376"},
		{"name": "Gehrig", "hr": "47"}, // missing avg
	}

	t.Run("writes headers and rows in column order", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteView(&buf, columns, rows, WriteOptions{}))

		assert.Equal(t, "name,hr,avg\nRuth,54,.376\nGehrig,47,\n", buf.String())
	})

	t.Run("BOM prefix", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteView(&buf, columns, nil, WriteOptions{BOMPrefix: true}))

		out := buf.Bytes()
		require.True(t, len(out) >= 3)
		assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, out[:3])
		assert.Equal(t, "name,hr,avg\n", string(out[3:]))
	})

	t.Run("quotes values with commas", func(t *testing.T) {
		var buf bytes.Buffer
		err := WriteView(&buf, []string{"name"}, []domain.Row{{"name": "Griffey, Jr."}}, WriteOptions{})
		require.NoError(t, err)

		assert.Equal(t, "name\n\"Griffey, Jr.\"\n", buf.String())
	})

	t.Run("empty view writes only headers", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteView(&buf, columns, nil, WriteOptions{}))
		assert.Equal(t, "name,hr,avg\n", buf.String())
	})
}

func TestWriteViewFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reports", "view.csv")

	err := WriteViewFile(path, []string{"name"}, []domain.Row{{"name": "Mays"}}, WriteOptions{})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "name\nMays\n", string(data))
}
