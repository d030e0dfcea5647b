package gstin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"finguard/internal/gstin"
)

func TestValid(t *testing.T) {
	assert.True(t, gstin.Valid("27AABCU9603R1ZM"))
	assert.True(t, gstin.Valid("29AABCT1332L1ZZ"))
	assert.False(t, gstin.Valid("27AABCU9603R1YM"))
	assert.False(t, gstin.Valid("27aabcu9603r1zm"))
	assert.False(t, gstin.Valid(""))
	assert.False(t, gstin.Valid("27AABCU9603R1Z"))
}

func TestPAN(t *testing.T) {
	assert.Equal(t, "AABCU9603R", gstin.PAN("27AABCU9603R1ZM"))
	assert.True(t, gstin.HasPAN("27AABCU9603R1ZM"))
	assert.False(t, gstin.HasPAN("270000000000000"))
	assert.Equal(t, "", gstin.PAN("27AB"))
}

func TestPANHolderIsIndividual(t *testing.T) {
	assert.True(t, gstin.PANHolderIsIndividual("ABCPK1234L"))
	assert.True(t, gstin.PANHolderIsIndividual("ABCHK1234L"))
	assert.False(t, gstin.PANHolderIsIndividual("AABCU9603R"))
	assert.False(t, gstin.PANHolderIsIndividual("AB"))
}

func TestStateName(t *testing.T) {
	assert.Equal(t, "Maharashtra", gstin.StateName("27"))
	assert.Equal(t, "Ladakh", gstin.StateName("38"))
	assert.Equal(t, "State-99", gstin.StateName("99"))
}

func TestStateMatches(t *testing.T) {
	assert.True(t, gstin.StateMatches("27", "Maharashtra"))
	assert.True(t, gstin.StateMatches("27", "mh"))
	assert.True(t, gstin.StateMatches("36", "TG"))
	assert.True(t, gstin.StateMatches("21", "ODISHA"))
	assert.True(t, gstin.StateMatches("29", "Bengaluru, Karnataka"))
	assert.False(t, gstin.StateMatches("27", "Karnataka"))
	assert.False(t, gstin.StateMatches("27", ""))
}
