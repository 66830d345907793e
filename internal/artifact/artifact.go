// Package artifact packages a compiled program — bytecode, symbol
// table, entry-point descriptor, and a human-readable manifest — into a
// self-contained loadable binary (spec §4.9, §6 "Persisted artifact
// layout"). The container is a sectioned binary stream: a magic tag
// and format version, the JSON manifest, the descriptor, then the
// chunk (constants, names, function and class prototypes).
package artifact

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/tsnc-lang/tsnc/internal/bytecode"
	"github.com/tsnc-lang/tsnc/internal/runtime"
)

var magic = [4]byte{'T', 'S', 'N', 'C'}

const formatVersion = 1

// Descriptor records how the loader re-enters the program: the entry
// module, every module's top-level prototype, and a build id for cache
// invalidation.
type Descriptor struct {
	BuildID     string
	EntryPath   string
	ModulePaths []string
	ProtoIndex  map[string]int
}

// Artifact is a packaged program.
type Artifact struct {
	Chunk      *bytecode.Chunk
	Descriptor Descriptor
	// Manifest is the embedded pretty-printed JSON summary.
	Manifest []byte
}

// New assembles an artifact for chunk, stamping a fresh build UUID and
// building the manifest.
func New(chunk *bytecode.Chunk, entryPath string, modulePaths []string, protoIndex map[string]int) *Artifact {
	desc := Descriptor{
		BuildID:     uuid.NewString(),
		EntryPath:   entryPath,
		ModulePaths: modulePaths,
		ProtoIndex:  protoIndex,
	}
	return &Artifact{Chunk: chunk, Descriptor: desc, Manifest: buildManifest(chunk, desc)}
}

// buildManifest writes the summary JSON field-at-a-time and prettifies
// it for human inspection (`tsnc inspect`).
func buildManifest(chunk *bytecode.Chunk, desc Descriptor) []byte {
	doc := "{}"
	doc, _ = sjson.Set(doc, "format", "tsnc-artifact")
	doc, _ = sjson.Set(doc, "version", formatVersion)
	doc, _ = sjson.Set(doc, "buildId", desc.BuildID)
	doc, _ = sjson.Set(doc, "entry", desc.EntryPath)
	doc, _ = sjson.Set(doc, "modules", desc.ModulePaths)
	doc, _ = sjson.Set(doc, "counts.constants", len(chunk.Constants))
	doc, _ = sjson.Set(doc, "counts.names", len(chunk.Names))
	doc, _ = sjson.Set(doc, "counts.functions", len(chunk.FunctionProtos))
	doc, _ = sjson.Set(doc, "counts.classes", len(chunk.ClassProtos))
	return pretty.Pretty([]byte(doc))
}

// ManifestField reads a manifest value by gjson path, for tests and the
// CLI's inspect verb.
func (a *Artifact) ManifestField(path string) gjson.Result {
	return gjson.GetBytes(a.Manifest, path)
}

// Write serializes the artifact to w.
func Write(w io.Writer, a *Artifact) error {
	bw := &binWriter{w: w}
	bw.raw(magic[:])
	bw.u32(formatVersion)
	bw.bytes(a.Manifest)
	bw.str(a.Descriptor.BuildID)
	bw.str(a.Descriptor.EntryPath)
	bw.u32(uint32(len(a.Descriptor.ModulePaths)))
	for _, p := range a.Descriptor.ModulePaths {
		bw.str(p)
		bw.u32(uint32(a.Descriptor.ProtoIndex[p]))
	}
	writeChunk(bw, a.Chunk)
	if bw.err != nil {
		return pkgerrors.Wrap(bw.err, "writing artifact")
	}
	return nil
}

// Read parses an artifact back from r.
func Read(r io.Reader) (*Artifact, error) {
	br := &binReader{r: r}
	var m [4]byte
	br.raw(m[:])
	if br.err == nil && m != magic {
		return nil, pkgerrors.New("not a tsnc artifact (bad magic)")
	}
	if v := br.u32(); br.err == nil && v != formatVersion {
		return nil, pkgerrors.Errorf("unsupported artifact version %d", v)
	}
	a := &Artifact{Chunk: &bytecode.Chunk{}}
	a.Manifest = br.bytes()
	a.Descriptor.BuildID = br.str()
	a.Descriptor.EntryPath = br.str()
	moduleCount := int(br.u32())
	a.Descriptor.ProtoIndex = map[string]int{}
	for i := 0; i < moduleCount; i++ {
		p := br.str()
		a.Descriptor.ModulePaths = append(a.Descriptor.ModulePaths, p)
		a.Descriptor.ProtoIndex[p] = int(br.u32())
	}
	readChunk(br, a.Chunk)
	if br.err != nil {
		return nil, pkgerrors.Wrap(br.err, "reading artifact")
	}
	return a, nil
}

// Constant value tags.
const (
	tagUndefined byte = iota
	tagNull
	tagBool
	tagNumber
	tagString
	tagBigInt
)

func writeChunk(bw *binWriter, chunk *bytecode.Chunk) {
	bw.u32(uint32(len(chunk.Constants)))
	for _, c := range chunk.Constants {
		switch v := c.(type) {
		case nil:
			bw.b(tagNull)
		case bool:
			bw.b(tagBool)
			if v {
				bw.b(1)
			} else {
				bw.b(0)
			}
		case float64:
			bw.b(tagNumber)
			bw.u64(math.Float64bits(v))
		case string:
			bw.b(tagString)
			bw.str(v)
		case *runtime.BigInt:
			bw.b(tagBigInt)
			bw.u64(uint64(v.Value))
		default:
			bw.b(tagUndefined)
		}
	}
	bw.u32(uint32(len(chunk.Names)))
	for _, n := range chunk.Names {
		bw.str(n)
	}
	bw.u32(uint32(len(chunk.FunctionProtos)))
	for _, proto := range chunk.FunctionProtos {
		writeProto(bw, proto)
	}
	bw.u32(uint32(len(chunk.ClassProtos)))
	for _, cp := range chunk.ClassProtos {
		writeClassProto(bw, cp)
	}
}

func readChunk(br *binReader, chunk *bytecode.Chunk) {
	constCount := int(br.u32())
	for i := 0; i < constCount; i++ {
		switch br.b() {
		case tagNull:
			chunk.Constants = append(chunk.Constants, nil)
		case tagBool:
			chunk.Constants = append(chunk.Constants, br.b() == 1)
		case tagNumber:
			chunk.Constants = append(chunk.Constants, math.Float64frombits(br.u64()))
		case tagString:
			chunk.Constants = append(chunk.Constants, br.str())
		case tagBigInt:
			chunk.Constants = append(chunk.Constants, &runtime.BigInt{Value: int64(br.u64())})
		default:
			chunk.Constants = append(chunk.Constants, runtime.Undefined)
		}
	}
	nameCount := int(br.u32())
	for i := 0; i < nameCount; i++ {
		chunk.Names = append(chunk.Names, br.str())
	}
	protoCount := int(br.u32())
	for i := 0; i < protoCount; i++ {
		chunk.FunctionProtos = append(chunk.FunctionProtos, readProto(br))
	}
	classCount := int(br.u32())
	for i := 0; i < classCount; i++ {
		chunk.ClassProtos = append(chunk.ClassProtos, readClassProto(br))
	}
}

func writeProto(bw *binWriter, proto *bytecode.FunctionProto) {
	bw.str(proto.Name)
	bw.u32(uint32(proto.Params))
	bw.u32(uint32(proto.NumLocals))
	bw.b(byte(proto.Kind))
	bw.bool(proto.IsVariadic)
	bw.bool(proto.IsMethod)
	bw.u32(uint32(len(proto.Upvalues)))
	for _, up := range proto.Upvalues {
		bw.bool(up.FromParentLocal)
		bw.u32(uint32(up.Index))
	}
	bw.u32(uint32(len(proto.Code)))
	for _, instr := range proto.Code {
		bw.b(byte(instr.Op))
		bw.i32(int32(instr.A))
		bw.i32(int32(instr.B))
		bw.u32(uint32(instr.Line))
	}
}

func readProto(br *binReader) *bytecode.FunctionProto {
	proto := &bytecode.FunctionProto{}
	proto.Name = br.str()
	proto.Params = int(br.u32())
	proto.NumLocals = int(br.u32())
	proto.Kind = bytecode.FuncKind(br.b())
	proto.IsVariadic = br.bool()
	proto.IsMethod = br.bool()
	upCount := int(br.u32())
	for i := 0; i < upCount; i++ {
		up := bytecode.UpvalueDesc{FromParentLocal: br.bool()}
		up.Index = int(br.u32())
		proto.Upvalues = append(proto.Upvalues, up)
	}
	codeCount := int(br.u32())
	for i := 0; i < codeCount; i++ {
		instr := bytecode.Instruction{Op: bytecode.OpCode(br.b())}
		instr.A = int(br.i32())
		instr.B = int(br.i32())
		instr.Line = int(br.u32())
		proto.Code = append(proto.Code, instr)
	}
	return proto
}

func writeClassProto(bw *binWriter, cp *bytecode.ClassProto) {
	bw.str(cp.Name)
	bw.bool(cp.HasSuper)
	bw.i32(int32(cp.CtorProto))
	writeMembers := func(members []bytecode.ClassMemberProto) {
		bw.u32(uint32(len(members)))
		for _, m := range members {
			bw.str(m.Name)
			bw.bool(m.Private)
			bw.u32(uint32(m.ProtoIndex))
		}
	}
	writeMembers(cp.Methods)
	writeMembers(cp.Getters)
	writeMembers(cp.Setters)
	writeMembers(cp.StaticMethods)
	writeMembers(cp.StaticGetters)
	writeMembers(cp.StaticSetters)
	bw.u32(uint32(len(cp.Fields)))
	for _, fld := range cp.Fields {
		bw.str(fld.Name)
		bw.bool(fld.Private)
		bw.bool(fld.Static)
		bw.i32(int32(fld.InitProto))
	}
}

func readClassProto(br *binReader) *bytecode.ClassProto {
	cp := &bytecode.ClassProto{}
	cp.Name = br.str()
	cp.HasSuper = br.bool()
	cp.CtorProto = int(br.i32())
	readMembers := func() []bytecode.ClassMemberProto {
		count := int(br.u32())
		var out []bytecode.ClassMemberProto
		for i := 0; i < count; i++ {
			m := bytecode.ClassMemberProto{Name: br.str()}
			m.Private = br.bool()
			m.ProtoIndex = int(br.u32())
			out = append(out, m)
		}
		return out
	}
	cp.Methods = readMembers()
	cp.Getters = readMembers()
	cp.Setters = readMembers()
	cp.StaticMethods = readMembers()
	cp.StaticGetters = readMembers()
	cp.StaticSetters = readMembers()
	fieldCount := int(br.u32())
	for i := 0; i < fieldCount; i++ {
		fld := bytecode.ClassFieldProto{Name: br.str()}
		fld.Private = br.bool()
		fld.Static = br.bool()
		fld.InitProto = int(br.i32())
		cp.Fields = append(cp.Fields, fld)
	}
	return cp
}

type binWriter struct {
	w   io.Writer
	err error
}

func (bw *binWriter) raw(p []byte) {
	if bw.err != nil {
		return
	}
	_, bw.err = bw.w.Write(p)
}

func (bw *binWriter) b(v byte) { bw.raw([]byte{v}) }
func (bw *binWriter) u32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	bw.raw(buf[:])
}
func (bw *binWriter) i32(v int32) { bw.u32(uint32(v)) }
func (bw *binWriter) u64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	bw.raw(buf[:])
}
func (bw *binWriter) bool(v bool) {
	if v {
		bw.b(1)
		return
	}
	bw.b(0)
}
func (bw *binWriter) str(s string) { bw.bytes([]byte(s)) }
func (bw *binWriter) bytes(p []byte) {
	bw.u32(uint32(len(p)))
	bw.raw(p)
}

type binReader struct {
	r   io.Reader
	err error
}

func (br *binReader) raw(p []byte) {
	if br.err != nil {
		return
	}
	_, br.err = io.ReadFull(br.r, p)
}

func (br *binReader) b() byte {
	var buf [1]byte
	br.raw(buf[:])
	return buf[0]
}

func (br *binReader) u32() uint32 {
	var buf [4]byte
	br.raw(buf[:])
	return binary.LittleEndian.Uint32(buf[:])
}

func (br *binReader) i32() int32 { return int32(br.u32()) }

func (br *binReader) u64() uint64 {
	var buf [8]byte
	br.raw(buf[:])
	return binary.LittleEndian.Uint64(buf[:])
}

func (br *binReader) bool() bool { return br.b() == 1 }

func (br *binReader) str() string { return string(br.bytes()) }

func (br *binReader) bytes() []byte {
	n := br.u32()
	if br.err != nil || n == 0 {
		return nil
	}
	p := make([]byte, n)
	br.raw(p)
	return p
}
