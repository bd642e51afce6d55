package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint_HashIsStable(t *testing.T) {
	fp := Fingerprint{
		UserAgent: "Mozilla/5.0",
		Platform:  "MacIntel",
		Language:  "en-US",
	}

	assert.Equal(t, fp.Hash(), fp.Hash())
	assert.Len(t, fp.Hash(), 64)
}

func TestFingerprint_HashDiffersPerComponent(t *testing.T) {
	base := Fingerprint{UserAgent: "ua", Platform: "p", Language: "l"}

	tests := []struct {
		name  string
		other Fingerprint
	}{
		{"different user agent", Fingerprint{UserAgent: "ua2", Platform: "p", Language: "l"}},
		{"different platform", Fingerprint{UserAgent: "ua", Platform: "p2", Language: "l"}},
		{"different language", Fingerprint{UserAgent: "ua", Platform: "p", Language: "l2"}},
		{"shifted separator", Fingerprint{UserAgent: "ua|p", Platform: "", Language: "l"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base.Hash(), tt.other.Hash())
		})
	}
}

func TestNewDevice(t *testing.T) {
	fp := Fingerprint{UserAgent: "Mozilla/5.0", Platform: "Win32", Language: "en-GB"}

	d, err := NewDevice(42, fp)
	require.NoError(t, err)

	assert.Equal(t, fp.Hash(), d.DeviceID)
	assert.Equal(t, uint(42), d.UserID)
	assert.Equal(t, "Win32", d.Name)
	assert.True(t, d.IsActive)
}

func TestNewDevice_Validation(t *testing.T) {
	_, err := NewDevice(0, Fingerprint{UserAgent: "ua"})
	assert.Error(t, err)

	_, err = NewDevice(1, Fingerprint{})
	assert.Error(t, err)
}

func TestDevice_RenameAndDeactivate(t *testing.T) {
	d, err := NewDevice(1, Fingerprint{UserAgent: "ua", Platform: "p", Language: "l"})
	require.NoError(t, err)

	require.NoError(t, d.Rename("Work laptop"))
	assert.Equal(t, "Work laptop", d.Name)
	assert.Error(t, d.Rename(""))

	d.Deactivate()
	assert.False(t, d.IsActive)
}
