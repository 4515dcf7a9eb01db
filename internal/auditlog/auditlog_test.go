package auditlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var ts = time.Date(2026, 5, 14, 21, 30, 5, 0, time.UTC)

func TestEncode_SingleChange(t *testing.T) {
	line := Encode(ts, []Change{{Field: "Status", Old: "Unpaid", New: "Paid"}})
	assert.Equal(t, "[2026-05-14 21:30:05] Status: Unpaid -> Paid", line)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	changes := []Change{
		{Field: "Status", Old: "Unpaid", New: "Paid"},
		{Field: "Paid", Old: "0", New: "500"},
	}
	line := Encode(ts, changes)

	entry, err := Decode(line)
	assert.NoError(t, err)
	assert.True(t, entry.Timestamp.Equal(ts))
	assert.Equal(t, changes, entry.Changes)
}

func TestDecode_AllFourFields(t *testing.T) {
	line := "[2026-05-14 21:30:05] Status: Partial -> Paid, Paid: 250 -> 500, Shipping: Pending -> Shipped, Ref: - -> GCASH-123"
	entry, err := Decode(line)
	assert.NoError(t, err)
	assert.Len(t, entry.Changes, 4)
	assert.Equal(t, Change{Field: "Shipping", Old: "Pending", New: "Shipped"}, entry.Changes[2])
	assert.Equal(t, Change{Field: "Ref", Old: "-", New: "GCASH-123"}, entry.Changes[3])
}

func TestDecode_ValueWithPlainComma(t *testing.T) {
	// A comma is only a delimiter in front of a known field name.
	line := Encode(ts, []Change{{Field: "Ref", Old: "-", New: "bank, branch 7"}})
	entry, err := Decode(line)
	assert.NoError(t, err)
	assert.Len(t, entry.Changes, 1)
	assert.Equal(t, "bank, branch 7", entry.Changes[0].New)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode("no timestamp here")
	assert.Error(t, err)

	_, err = Decode("[2026-05-14 21:30:05] Mystery: a -> b")
	assert.Error(t, err)
}

func TestDiff(t *testing.T) {
	changes := Diff("Unpaid", "Paid", 0, 500, "Pending", "Pending", "", "REF-1")
	assert.Equal(t, []Change{
		{Field: "Status", Old: "Unpaid", New: "Paid"},
		{Field: "Paid", Old: "0", New: "500"},
		{Field: "Ref", Old: "-", New: "REF-1"},
	}, changes)

	assert.Empty(t, Diff("Paid", "Paid", 500, 500, "Shipped", "Shipped", "r", "r"))
}
