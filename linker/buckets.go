package linker

import (
	"regexp"

	"github.com/wippyai/ccvm-link/ir"
)

// Bucket is a named category of the final layout.
type Bucket uint8

const (
	BucketRegisters Bucket = iota
	BucketRodata
	BucketData
	BucketBSS
	BucketStack
	BucketHeap
	BucketEntry
	BucketText
	BucketInit
	BucketFini
	BucketPredefined
	BucketRemoved
)

func (b Bucket) String() string {
	switch b {
	case BucketRegisters:
		return "registers"
	case BucketRodata:
		return "rodata"
	case BucketData:
		return "data"
	case BucketBSS:
		return "bss"
	case BucketStack:
		return "stack"
	case BucketHeap:
		return "heap"
	case BucketEntry:
		return "entry"
	case BucketText:
		return "text"
	case BucketInit:
		return "init"
	case BucketFini:
		return "fini"
	case BucketPredefined:
		return "predefined"
	case BucketRemoved:
		return "removed"
	}
	return "unknown"
}

// aligned reports whether symbols in the bucket sort by address alignment.
func (b Bucket) aligned() bool {
	return b == BucketData || b == BucketBSS || b == BucketRodata
}

// root reports whether every symbol in the bucket is live at startup.
func (b Bucket) root() bool {
	switch b {
	case BucketRegisters, BucketEntry, BucketInit, BucketFini:
		return true
	}
	return false
}

// bucketPatterns is tried in order; the first match wins. rodata precedes
// data so that .data.*.ro lands in rodata.
var bucketPatterns = []struct {
	bucket  Bucket
	pattern *regexp.Regexp
}{
	{BucketRegisters, regexp.MustCompile(`^\.ccvm\.registers(\..*)?$`)},
	{BucketRodata, regexp.MustCompile(`^\.(rodata(\..*)?|data(\..*)?\.ro)$`)},
	{BucketData, regexp.MustCompile(`^\.data(\..*)?$`)},
	{BucketBSS, regexp.MustCompile(`^\.(bss|common)(\..*)?$`)},
	{BucketStack, regexp.MustCompile(`^\.ccvm\.stack(\..*)?$`)},
	{BucketHeap, regexp.MustCompile(`^\.ccvm\.heap(\..*)?$`)},
	{BucketEntry, regexp.MustCompile(`^\.ccvm\.entry(\..*)?$`)},
	{BucketText, regexp.MustCompile(`^\.text(\..*)?$`)},
	{BucketInit, regexp.MustCompile(`^\.init_array(\..*)?$`)},
	{BucketFini, regexp.MustCompile(`^\.fini_array(\..*)?$`)},
	{BucketPredefined, regexp.MustCompile(`^` + regexp.QuoteMeta(ir.PredefinedSection) + `$`)},
	{BucketRemoved, regexp.MustCompile(`^.*$`)},
}

// BucketOf returns the bucket a section name is assigned to.
func BucketOf(section string) Bucket {
	for _, p := range bucketPatterns {
		if p.pattern.MatchString(section) {
			return p.bucket
		}
	}
	return BucketRemoved
}

// assignBuckets sorts every data and function symbol into a bucket. Import
// symbols become callable {HOST; RETURN} stubs in the text bucket.
func (o *organizer) assignBuckets() {
	tab := o.prog.Symbols
	for _, id := range tab.IDs() {
		switch sym := tab.Get(id).(type) {
		case *ir.ImportSymbol:
			stub := importStub(sym)
			tab.Replace(id, stub)
			o.add(BucketText, id, &stub.Object)
		case *ir.DataSymbol:
			o.add(BucketOf(sym.Section.Name), id, &sym.Object)
		case *ir.FunctionSymbol:
			o.add(BucketOf(sym.Section.Name), id, &sym.Object)
		}
	}
}

func (o *organizer) add(b Bucket, id ir.SymbolID, obj *ir.Object) {
	o.buckets[b] = append(o.buckets[b], id)
	o.bucketOf[id] = b
	if !obj.Section.Synthetic() {
		o.anchored++
	}
}

// importStub wraps a host function in a function symbol that performs the
// host call and returns.
func importStub(imp *ir.ImportSymbol) *ir.FunctionSymbol {
	fn := ir.NewFunctionSymbol(imp.Name, imp.Section, 0, 2*ir.InstructionSize)
	fn.Indexes = imp.Indexes
	fn.IR = []ir.Instruction{ir.Host(imp.ImportIndex), ir.Return()}
	return fn
}

// sizeRegion returns the largest size among a stack or heap bucket and then
// collapses every member to a zero-size, empty symbol at the region start.
func (o *organizer) sizeRegion(b Bucket) uint32 {
	var size uint32
	for _, id := range o.buckets[b] {
		obj, _ := o.prog.Symbols.Object(id)
		size = max(size, obj.Size)
	}
	for _, id := range o.buckets[b] {
		obj, _ := o.prog.Symbols.Object(id)
		obj.Size = 0
		obj.Addr = 0
		obj.IR = nil
	}
	return size
}
