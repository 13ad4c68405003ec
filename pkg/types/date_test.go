package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDateAndAddDays(t *testing.T) {
	d, err := ParseDate("2024-01-31")
	require.NoError(t, err)
	require.Equal(t, "2024-03-01", d.AddDays(30).String())
	require.Equal(t, "2024-02-29", d.AddDays(29).String())
	require.Equal(t, "2025-01-30", d.AddDays(365).String())
}

func TestParseDateAcceptsTimestamps(t *testing.T) {
	d, err := ParseDate("2024-05-06 13:45:00")
	require.NoError(t, err)
	require.Equal(t, Date{Year: 2024, Month: time.May, Day: 6}, d)

	_, err = ParseDate("06/05/2024")
	require.Error(t, err)
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2023-12-31"))
	require.Equal(t, "2023-12-31", d.String())

	require.NoError(t, d.Scan([]byte("2022-02-01")))
	require.Equal(t, "2022-02-01", d.String())

	require.NoError(t, d.Scan(time.Date(2021, 7, 4, 23, 0, 0, 0, time.UTC)))
	require.Equal(t, "2021-07-04", d.String())

	require.Error(t, d.Scan(42))
}

func TestNullDateRoundTrip(t *testing.T) {
	var n NullDate
	require.NoError(t, n.Scan(nil))
	require.False(t, n.Valid)
	v, err := n.Value()
	require.NoError(t, err)
	require.Nil(t, v)

	require.NoError(t, n.Scan("2024-06-01"))
	require.True(t, n.Valid)
	require.Equal(t, "2024-06-01", n.Ptr().String())

	raw, err := json.Marshal(struct {
		Due NullDate `json:"due"`
	}{})
	require.NoError(t, err)
	require.JSONEq(t, `{"due":null}`, string(raw))

	var decoded struct {
		Due NullDate `json:"due"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"due":"2024-07-15"}`), &decoded))
	require.True(t, decoded.Due.Valid)
	require.Equal(t, "2024-07-15", decoded.Due.Date.String())
}

func TestDateOrdering(t *testing.T) {
	a := Date{Year: 2024, Month: time.March, Day: 1}
	b := a.AddDays(1)
	require.True(t, a.Before(b))
	require.True(t, b.After(a))
	require.False(t, a.Before(a))
}
