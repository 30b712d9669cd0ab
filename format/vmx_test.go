package format

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/mvx/cpu"
)

func TestImage_WriteTo(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		image    Image
		expected []byte
	}{
		{
			image:    Image{Version: 1, Code: []byte{0x0F}},
			expected: []byte("VMX25\x01\x00\x01\x0F"),
		},
		{
			image: Image{
				Version:   2,
				Code:      []byte{0x0F},
				Const:     []byte("hi\x00"),
				DataSize:  0x10,
				ExtraSize: 0x20,
				StackSize: 0x30,
				Entry:     0,
			},
			expected: []byte("VMX25\x02" +
				"\x00\x03\x00\x01\x00\x10\x00\x20\x00\x30\x00\x00" +
				"\x0Fhi\x00"),
		},
	}

	for n, entry := range table {
		var buff bytes.Buffer
		size, err := entry.image.WriteTo(&buff)
		assert.NoError(err, n)
		assert.Equal(int64(len(entry.expected)), size, n)
		assert.Equal(entry.expected, buff.Bytes(), n)

		img, err := ReadImage(&buff)
		assert.NoError(err, n)
		assert.Empty(cmp.Diff(&entry.image, img), n)
	}

	_, err := (&Image{Version: 3}).WriteTo(&bytes.Buffer{})
	assert.ErrorIs(err, ErrImageVersion)
}

func TestReadImage_Errors(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		data string
		err  error
	}{
		{"VMY25\x01\x00\x01\x0F", ErrImageIdent},
		{"VMX25\x03\x00\x01\x0F", ErrImageVersion},
	}

	for n, entry := range table {
		img, err := ReadImage(strings.NewReader(entry.data))
		assert.ErrorIs(err, entry.err, n)
		assert.Nil(img, n)
	}

	_, err := ReadImage(strings.NewReader("VMX25\x01\x00\x04\x0F"))
	assert.Error(err)

	_, err = ReadImageFile("/nonexistent/file.vmx")
	assert.Error(err)
}

func TestNewImage(t *testing.T) {
	assert := assert.New(t)

	source := strings.Join([]string{
		".const MSG \"hi\"",
		".stack 64",
		"        STOP",
		"_start: MOV EAX, MSG",
		"        STOP",
	}, "\n")

	asm := &cpu.Assembler{}
	prog, err := asm.Parse(strings.NewReader(source))
	require.NoError(t, err)

	img, err := NewImage(prog)
	require.NoError(t, err)

	expected := &Image{
		Version:   cpu.VERSION_2,
		Code:      []byte{0x0F, 0x90, 0x00, 0x00, 0x0A, 0x0F},
		Const:     []byte("hi\x00"),
		DataSize:  cpu.DATA_SIZE_DEFAULT,
		StackSize: 64,
		Entry:     1,
	}
	assert.Empty(cmp.Diff(expected, img))
}

func TestImage_LoadV1(t *testing.T) {
	assert := assert.New(t)

	img := &Image{Version: cpu.VERSION_1, Code: []byte{0x0F}}

	cp := cpu.NewCpu(1)
	err := img.Load(cp, nil)
	require.NoError(t, err)

	assert.Equal(cpu.VERSION_1, cp.Version)
	assert.Equal(cpu.Segment{Base: 0, Size: 1}, cp.Segment[0])
	assert.Equal(cpu.Segment{Base: 1, Size: 1023}, cp.Segment[1])
	assert.Equal(uint32(0), cp.Register[cpu.REG_CS])
	assert.Equal(uint32(0x10000), cp.Register[cpu.REG_DS])
	assert.Equal(uint32(0), cp.Register[cpu.REG_IP])

	err = cp.Run()
	assert.NoError(err)
	assert.Equal(cpu.STATE_HALTED, cp.State)
	assert.Nil(cp.Fault)

	// Code that fills memory leaves no room for data.
	img = &Image{Version: cpu.VERSION_1, Code: make([]byte, 1024)}
	err = img.Load(cpu.NewCpu(1), nil)
	assert.ErrorIs(err, cpu.ErrInsufficientMemory)

	img = &Image{Version: cpu.VERSION_1}
	err = img.Load(cpu.NewCpu(1), nil)
	assert.ErrorIs(err, ErrCodeSize)
}

func TestImage_LoadV2(t *testing.T) {
	assert := assert.New(t)

	img := &Image{
		Version:   cpu.VERSION_2,
		Code:      []byte{0x0F},
		StackSize: 16,
	}

	cp := cpu.NewCpu(1)
	err := img.Load(cp, []string{"ab", "c"})
	require.NoError(t, err)

	absent := uint32(cpu.SELECTOR_ABSENT)

	assert.Equal(uint32(0), cp.Register[cpu.REG_PS])
	assert.Equal(absent, cp.Register[cpu.REG_KS])
	assert.Equal(uint32(0x10000), cp.Register[cpu.REG_CS])
	assert.Equal(absent, cp.Register[cpu.REG_DS])
	assert.Equal(absent, cp.Register[cpu.REG_ES])
	assert.Equal(uint32(0x20000), cp.Register[cpu.REG_SS])
	assert.Equal(uint32(0x10000), cp.Register[cpu.REG_IP])
	assert.Equal(uint32(0x20004), cp.Register[cpu.REG_SP])

	segments := cpu.SegmentTable{
		{Base: 0, Size: 13},
		{Base: 13, Size: 1},
		{Base: 14, Size: 16},
	}
	assert.Empty(cmp.Diff(segments, cp.Segment))

	params := []byte("ab\x00c\x00\x00\x00\x00\x00\x00\x00\x00\x03")
	assert.Equal(params, []byte(cp.Memory[0:13]))
	assert.Equal(byte(0x0F), cp.Memory[13])

	frame := []byte{
		0xFF, 0xFF, 0xFF, 0xFF,
		0x00, 0x00, 0x00, 0x02,
		0x00, 0x00, 0x00, 0x05,
	}
	assert.Equal(frame, []byte(cp.Memory[18:30]))

	ret, err := cp.Pop()
	assert.NoError(err)
	assert.Equal(int32(-1), ret)
}

func TestImage_LoadV2_NoParams(t *testing.T) {
	assert := assert.New(t)

	img := &Image{
		Version:   cpu.VERSION_2,
		Code:      []byte{0x0F, 0x0F},
		Const:     []byte("k\x00"),
		DataSize:  4,
		ExtraSize: 8,
		StackSize: 12,
		Entry:     1,
	}

	cp := cpu.NewCpu(1)
	err := img.Load(cp, nil)
	require.NoError(t, err)

	assert.Equal(uint32(cpu.SELECTOR_ABSENT), cp.Register[cpu.REG_PS])
	assert.Equal(uint32(0x00000), cp.Register[cpu.REG_KS])
	assert.Equal(uint32(0x10000), cp.Register[cpu.REG_CS])
	assert.Equal(uint32(0x20000), cp.Register[cpu.REG_DS])
	assert.Equal(uint32(0x30000), cp.Register[cpu.REG_ES])
	assert.Equal(uint32(0x40000), cp.Register[cpu.REG_SS])
	assert.Equal(uint32(0x10001), cp.Register[cpu.REG_IP])
	assert.Equal(uint32(0x40000), cp.Register[cpu.REG_SP])

	frame := []byte{
		0xFF, 0xFF, 0xFF, 0xFF,
		0x00, 0x00, 0x00, 0x00,
		0xFF, 0xFF, 0xFF, 0xFF,
	}
	ss := cp.Segment[4]
	assert.Equal(cpu.Segment{Base: 16, Size: 12}, ss)
	assert.Equal(frame, []byte(cp.Memory[ss.Base:ss.End()]))
}

func TestImage_LoadV2_Errors(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		image  Image
		params []string
		err    error
	}{
		{Image{Version: 2, Code: []byte{0x0F}, Entry: 1}, nil, ErrEntryPoint},
		{Image{Version: 2}, nil, ErrEntryPoint},
		{Image{Version: 2, Code: []byte{0x0F}, DataSize: 2048}, nil, cpu.ErrInsufficientMemory},
		{Image{Version: 2, Code: []byte{0x0F}, DataSize: 1000, StackSize: 1000}, nil, cpu.ErrInsufficientMemory},
		{Image{Version: 2, Code: []byte{0x0F}}, []string{strings.Repeat("x", 0x10000)}, ErrParamSize},
		{Image{Version: 7, Code: []byte{0x0F}}, nil, ErrImageVersion},
	}

	for n, entry := range table {
		err := entry.image.Load(cpu.NewCpu(1), entry.params)
		assert.ErrorIs(err, entry.err, n)
	}
}

func TestLoadProgram(t *testing.T) {
	assert := assert.New(t)

	cp := cpu.NewCpu(1)
	img, err := LoadProgram(strings.NewReader("VMX25\x01\x00\x01\x0F"), cp, nil)
	require.NoError(t, err)
	assert.Equal("v1 code=1 const=0 data=0 extra=0 stack=0 entry=0000", img.String())

	img, err = LoadProgram(strings.NewReader("VMX25\x01\x04\x00\x0F"), cp, nil)
	assert.Error(err)
	assert.Nil(img)
}
