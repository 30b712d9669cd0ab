package cpu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSector(t *testing.T) {
	assert := assert.New(t)

	raw := uint32(0x1234F680)

	table := [](struct {
		sector Sector
		get    int32
		size   int
		set    uint32
	}){
		{SECTOR_FULL, 0x1234F680, 4, 0x00000001},
		{SECTOR_LOW, -128, 1, 0x1234F601},
		{SECTOR_HIGH, -10, 1, 0x12340180},
		{SECTOR_WORD, -2432, 2, 0x12340001},
	}

	for _, entry := range table {
		assert.Equal(entry.get, entry.sector.Get(raw), entry.sector)
		assert.Equal(entry.size, entry.sector.Size(), entry.sector)
		assert.Equal(entry.set, entry.sector.Set(raw, 1), entry.sector)
	}
}

func TestParseRegister(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		reg    Register
		sector Sector
		ok     bool
	}){
		{"EAX", REG_EAX, SECTOR_FULL, true},
		{"efx", REG_EFX, SECTOR_FULL, true},
		{"AL", REG_EAX, SECTOR_LOW, true},
		{"bh", REG_EBX, SECTOR_HIGH, true},
		{"CX", REG_ECX, SECTOR_WORD, true},
		{"ds", REG_DS, SECTOR_FULL, true},
		{"SP", REG_SP, SECTOR_FULL, true},
		{"GX", 0, 0, false},
		{"AB", 0, 0, false},
		{"R9", 0, 0, false},
	}

	for _, entry := range table {
		reg, sector, ok := ParseRegister(entry.name)
		assert.Equal(entry.ok, ok, entry.name)
		if entry.ok {
			assert.Equal(entry.reg, reg, entry.name)
			assert.Equal(entry.sector, sector, entry.name)
			assert.Equal(strings.ToUpper(entry.name), SubRegisterName(reg, sector), entry.name)
		}
	}

	assert.Equal("R9", Register(9).String())
}

func TestRegisterFile_SetCC(t *testing.T) {
	assert := assert.New(t)

	var rf RegisterFile
	rf[REG_CC] = 0x1

	rf.SetCC(0)
	assert.Equal(CC_Z|0x1, rf[REG_CC])

	rf.SetCC(-5)
	assert.Equal(CC_N|0x1, rf[REG_CC])

	rf.SetCC(5)
	assert.Equal(uint32(0x1), rf[REG_CC])
}

func TestSector_String(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("full", SECTOR_FULL.String())
	assert.Equal("word", SECTOR_WORD.String())
	assert.Equal("Sector(9)", Sector(9).String())
}
