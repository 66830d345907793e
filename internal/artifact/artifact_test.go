package artifact

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tsnc-lang/tsnc/internal/bytecode"
	"github.com/tsnc-lang/tsnc/internal/runtime"
)

func sampleChunk() *bytecode.Chunk {
	chunk := &bytecode.Chunk{}
	chunk.AddConstant(float64(42))
	chunk.AddConstant("hello")
	chunk.AddConstant(true)
	chunk.Constants = append(chunk.Constants, nil, &runtime.BigInt{Value: 99})
	chunk.AddName("console")
	chunk.AddName("main.ts::x")
	chunk.FunctionProtos = append(chunk.FunctionProtos, &bytecode.FunctionProto{
		Name:      "<module main.ts>",
		NumLocals: 2,
		Code: []bytecode.Instruction{
			{Op: bytecode.OpLoadConst, A: 0, Line: 1},
			{Op: bytecode.OpStoreGlobal, A: 1, Line: 1},
			{Op: bytecode.OpLoadUndefined, Line: 2},
			{Op: bytecode.OpReturn, Line: 2},
		},
	})
	chunk.FunctionProtos = append(chunk.FunctionProtos, &bytecode.FunctionProto{
		Name:   "helper",
		Params: 2,
		Kind:   bytecode.FuncAsync,
		Upvalues: []bytecode.UpvalueDesc{
			{FromParentLocal: true, Index: 1},
			{FromParentLocal: false, Index: 0},
		},
	})
	chunk.ClassProtos = append(chunk.ClassProtos, &bytecode.ClassProto{
		Name:      "Point",
		CtorProto: 1,
		Methods:   []bytecode.ClassMemberProto{{Name: "dist", ProtoIndex: 1}},
		Fields:    []bytecode.ClassFieldProto{{Name: "x", InitProto: -1}, {Name: "secret", Private: true, InitProto: 1}},
	})
	return chunk
}

func TestWriteReadRoundTrip(t *testing.T) {
	art := New(sampleChunk(), "main.ts", []string{"builtin:events", "main.ts"}, map[string]int{"main.ts": 0})

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, art))
	back, err := Read(&buf)
	require.NoError(t, err)

	require.Equal(t, art.Descriptor.BuildID, back.Descriptor.BuildID)
	require.Equal(t, "main.ts", back.Descriptor.EntryPath)
	require.Equal(t, []string{"builtin:events", "main.ts"}, back.Descriptor.ModulePaths)
	require.Equal(t, 0, back.Descriptor.ProtoIndex["main.ts"])

	require.Equal(t, len(art.Chunk.Constants), len(back.Chunk.Constants))
	require.Equal(t, float64(42), back.Chunk.Constants[0])
	require.Equal(t, "hello", back.Chunk.Constants[1])
	require.Equal(t, true, back.Chunk.Constants[2])
	require.Nil(t, back.Chunk.Constants[3])
	require.Equal(t, int64(99), back.Chunk.Constants[4].(*runtime.BigInt).Value)

	require.Equal(t, art.Chunk.Names, back.Chunk.Names)
	require.Equal(t, art.Chunk.FunctionProtos[0].Code, back.Chunk.FunctionProtos[0].Code)
	require.Equal(t, bytecode.FuncAsync, back.Chunk.FunctionProtos[1].Kind)
	require.Equal(t, art.Chunk.FunctionProtos[1].Upvalues, back.Chunk.FunctionProtos[1].Upvalues)

	cp := back.Chunk.ClassProtos[0]
	require.Equal(t, "Point", cp.Name)
	require.Equal(t, 1, cp.CtorProto)
	require.Equal(t, "dist", cp.Methods[0].Name)
	require.True(t, cp.Fields[1].Private)
	require.Equal(t, -1, cp.Fields[0].InitProto)
}

func TestManifestFields(t *testing.T) {
	art := New(sampleChunk(), "main.ts", []string{"main.ts"}, map[string]int{"main.ts": 0})
	require.Equal(t, "tsnc-artifact", art.ManifestField("format").String())
	require.Equal(t, "main.ts", art.ManifestField("entry").String())
	require.Equal(t, int64(2), art.ManifestField("counts.functions").Int())
	require.Equal(t, art.Descriptor.BuildID, art.ManifestField("buildId").String())
}

func TestBadMagicRejected(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("NOPE....")))
	require.Error(t, err)
}

func TestReferenceRewriterRemapsNames(t *testing.T) {
	chunk := sampleChunk()
	rw := ParseReferenceTable(`
# implementation-detail remaps
console = host/console
missing = host/missing
`)
	rewritten := rw.Rewrite(chunk)
	require.Equal(t, []string{"console -> host/console"}, rewritten)
	require.Equal(t, "host/console", chunk.Names[0])
	require.Equal(t, "main.ts::x", chunk.Names[1])
}
