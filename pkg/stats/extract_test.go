package stats

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	t.Run("plain row", func(t *testing.T) {
		obs, ok, err := ParseLine("PlayerOne 7.5 2 1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, Observation{Name: "PlayerOne", Appearances: 1, Goals: 2, Assists: 1, Rating: 7.5}, obs)
	})

	t.Run("noise only", func(t *testing.T) {
		_, ok, err := ParseLine("### noise ###")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("leading and trailing noise", func(t *testing.T) {
		obs, ok, err := ParseLine("  Mbappe 9.8 3 2  extra tokens")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Mbappe", obs.Name)
		assert.Equal(t, 9.8, obs.Rating)
		assert.Equal(t, 3, obs.Goals)
		assert.Equal(t, 2, obs.Assists)
	})

	t.Run("icon glued to name", func(t *testing.T) {
		obs, ok, err := ParseLine("©|Vini.Jr 8.1 0 2")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Vini.Jr", obs.Name)
	})

	t.Run("name characters", func(t *testing.T) {
		obs, ok, _ := ParseLine("de_la-Cruz.10 6.0 0 0")
		require.True(t, ok)
		assert.Equal(t, "de_la-Cruz.10", obs.Name)
	})

	t.Run("low ratings accepted", func(t *testing.T) {
		obs, ok, _ := ParseLine("Keeper 0.0 0 0")
		require.True(t, ok)
		assert.Equal(t, 0.0, obs.Rating)

		obs, ok, _ = ParseLine("Sub 3.4 0 0")
		require.True(t, ok)
		assert.Equal(t, 3.4, obs.Rating)
	})

	t.Run("rating needs exactly one decimal", func(t *testing.T) {
		for _, line := range []string{"Foo 7.55 2 1", "Foo 7 2 1", "Foo 10.0 2 1", "Foo .5 2 1"} {
			_, ok, err := ParseLine(line)
			assert.NoError(t, err, line)
			assert.False(t, ok, line)
		}
	})

	t.Run("goals must be a whole field", func(t *testing.T) {
		_, ok, _ := ParseLine("Foo 7.5 2x 1")
		assert.False(t, ok)
	})

	t.Run("assists keep leading digits", func(t *testing.T) {
		obs, ok, _ := ParseLine("Foo 7.5 2 1%")
		require.True(t, ok)
		assert.Equal(t, 1, obs.Assists)
	})

	t.Run("multi digit counts", func(t *testing.T) {
		obs, ok, _ := ParseLine("Haaland 9.9 12 07")
		require.True(t, ok)
		assert.Equal(t, 12, obs.Goals)
		assert.Equal(t, 7, obs.Assists)
	})

	t.Run("first window wins", func(t *testing.T) {
		obs, ok, _ := ParseLine("A 7.0 1 0 B 8.0 2 1")
		require.True(t, ok)
		assert.Equal(t, "A", obs.Name)
		assert.Equal(t, 1, obs.Goals)
	})

	t.Run("window found past a leading number column", func(t *testing.T) {
		obs, ok, _ := ParseLine("9 ST Lewa 7.2 1 0")
		require.True(t, ok)
		assert.Equal(t, "Lewa", obs.Name)
	})

	t.Run("tabs and repeated spaces separate", func(t *testing.T) {
		obs, ok, _ := ParseLine("Pedri\t\t8.4   0\t1")
		require.True(t, ok)
		assert.Equal(t, "Pedri", obs.Name)
		assert.Equal(t, 1, obs.Assists)
	})

	t.Run("numeric overflow drops the line", func(t *testing.T) {
		_, ok, err := ParseLine("Foo 7.5 99999999999999999999999 1")
		assert.False(t, ok)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformedRow))
	})

	t.Run("name with a space keeps only the last part", func(t *testing.T) {
		obs, ok, _ := ParseLine("Van Dijk 7.1 0 0")
		require.True(t, ok)
		assert.Equal(t, "Dijk", obs.Name)
	})
}

func TestExtract(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Extract(nil))
		assert.Empty(t, Extract([]string{}))
	})

	t.Run("keeps order and skips non matching lines", func(t *testing.T) {
		lines := []string{
			"RESUMEN DEL PARTIDO",
			"Alpha 7.5 2 1",
			"",
			"Jugador Calif. Goles Asist.",
			"Beta 6.9 0 1",
			"Alpha 8.0 1 0",
		}
		got := Extract(lines)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"Alpha", "Beta", "Alpha"}, []string{got[0].Name, got[1].Name, got[2].Name})
		for _, o := range got {
			assert.Equal(t, 1, o.Appearances)
		}
	})
}

func TestScanReport(t *testing.T) {
	rep := Scan([]string{
		"Alpha 7.5 2 1",
		"nothing here",
		"Beta 7.5 123456789012345678901234567890 0",
	})
	require.Len(t, rep.Observations, 1)
	assert.Equal(t, 1, rep.Unmatched)
	require.Len(t, rep.Malformed, 1)
	assert.Equal(t, 2, rep.Malformed[0].Index)
}

func TestObservationValidate(t *testing.T) {
	good := Observation{Name: "A", Appearances: 1, Rating: 9.9}
	require.NoError(t, good.Validate())

	bad := []Observation{
		{Name: "", Appearances: 1},
		{Name: "a b", Appearances: 1},
		{Name: "A", Appearances: 0},
		{Name: "A", Appearances: 1, Goals: -1},
		{Name: "A", Appearances: 1, Rating: 10},
	}
	for _, o := range bad {
		assert.Error(t, o.Validate(), "%+v", o)
	}
}
