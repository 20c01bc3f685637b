package builtins

import (
	"os"
	"testing"

	"github.com/turingcompl33t/tpl/internal/arena"
	"github.com/turingcompl33t/tpl/internal/ast"
	"github.com/turingcompl33t/tpl/internal/bytecode"
	"github.com/turingcompl33t/tpl/internal/ident"
	"github.com/turingcompl33t/tpl/internal/parser"
	"github.com/turingcompl33t/tpl/internal/reporter"
	"github.com/turingcompl33t/tpl/internal/sema"
	"github.com/turingcompl33t/tpl/internal/types"
	"github.com/turingcompl33t/tpl/internal/vm"
)

func compile(t *testing.T, src string) *bytecode.Module {
	t.Helper()
	a := arena.New()
	fac := ast.NewNodeFactory(0)
	ids := ident.New(a.NewRegion("idents"))
	rep := reporter.New("test.tpl")
	p := parser.New("test.tpl", src, fac, ids, rep)
	file := p.Parse()
	if rep.HasErrors() {
		t.Fatalf("parse errors: %s", rep.RenderAll())
	}
	ctx := types.NewContext()
	an := sema.New(ctx, fac, rep)
	an.Analyze(file)
	if rep.HasErrors() {
		t.Fatalf("sema errors: %s", rep.RenderAll())
	}
	return bytecode.Generate(ctx, an, file)
}

func TestSQLArithmeticAndComparison(t *testing.T) {
	mod := compile(t, `fun f(a: int32, b: int32) -> bool {
		var x: Integer = a
		var y: Integer = b
		return x + y > x
	}`)
	m := vm.New(mod, NewRegistry())
	got, err := m.Call("f", vm.Int32(3), vm.Int32(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Bool() {
		t.Fatalf("expected 3+5 > 3 to be true")
	}
}

func TestSQLDivisionByZeroIsRuntimeError(t *testing.T) {
	mod := compile(t, `fun div(a: Integer, b: Integer) -> Integer {
		return a / b
	}`)
	m := vm.New(mod, NewRegistry())
	_, err := m.Call("div", vm.Boxed(Integer{Value: 10}), vm.Boxed(Integer{Value: 0}))
	if err == nil {
		t.Fatalf("expected a runtime error for division by zero")
	}
	rerr, ok := err.(*vm.RuntimeError)
	if !ok {
		t.Fatalf("expected *vm.RuntimeError, got %T", err)
	}
	if rerr.Func != "sqlDiv" {
		t.Fatalf("expected sqlDiv, got %q", rerr.Func)
	}
}

func TestSQLArithmeticNullPropagation(t *testing.T) {
	mod := compile(t, `fun f(a: Integer, b: Integer) -> Integer {
		return a + b
	}`)
	m := vm.New(mod, NewRegistry())
	got, err := m.Call("f", vm.Boxed(Integer{Null: true}), vm.Boxed(Integer{Value: 1}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sum, ok := got.Boxed.(Integer)
	if !ok || !sum.Null {
		t.Fatalf("expected a null Integer result, got %#v", got.Boxed)
	}
}

func TestHashBuiltinAgreesAcrossEqualValues(t *testing.T) {
	mod := compile(t, `fun h(n: int32) -> uint64 { return @hash(n) }`)
	m := vm.New(mod, NewRegistry())
	first, err := m.Call("h", vm.Int32(42))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := m.Call("h", vm.Int32(42))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Uint64() != second.Uint64() {
		t.Fatalf("expected @hash(42) to be stable, got %d and %d", first.Uint64(), second.Uint64())
	}
	other, err := m.Call("h", vm.Int32(43))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other.Uint64() == first.Uint64() {
		t.Fatalf("expected @hash(43) to differ from @hash(42)")
	}
}

func TestConcatNullPropagation(t *testing.T) {
	mod := compile(t, `fun f(a: StringVal, b: StringVal) -> StringVal {
		return @concat(a, b)
	}`)
	m := vm.New(mod, NewRegistry())
	got, err := m.Call("f", vm.Boxed(StringVal{Value: "ab"}), vm.Boxed(StringVal{Value: "cd"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, ok := got.Boxed.(StringVal)
	if !ok || s.Null || s.Value != "abcd" {
		t.Fatalf("expected \"abcd\", got %#v", got.Boxed)
	}
	got, err = m.Call("f", vm.Boxed(StringVal{Null: true}), vm.Boxed(StringVal{Value: "cd"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, ok = got.Boxed.(StringVal)
	if !ok || !s.Null {
		t.Fatalf("expected a null StringVal, got %#v", got.Boxed)
	}
}

func TestDateRoundTrip(t *testing.T) {
	mod := compile(t, `fun f(y: int32, mo: int32, d: int32) -> Integer {
		return @extractYear(@dateToSql(y, mo, d))
	}`)
	m := vm.New(mod, NewRegistry())
	got, err := m.Call("f", vm.Int32(2024), vm.Int32(3), vm.Int32(14))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	year, ok := got.Boxed.(Integer)
	if !ok || year.Null || year.Value != 2024 {
		t.Fatalf("expected year 2024, got %#v", got.Boxed)
	}
}

func TestTableScanSumsIntegerColumn(t *testing.T) {
	mod := compile(t, `fun sumColumn(ec: *ExecutionContext) -> Integer {
		var it: TableVectorIterator
		var total: Integer = 0
		@tableIterInit(&it, ec, "t")
		for row in it {
			var v: Integer = @vpiGetInteger(row, 0)
			total = total + v
		}
		@tableIterClose(&it)
		return total
	}`)
	ec := NewExecutionContext()
	ec.AddTable(&Table{
		Name:    "t",
		Columns: []string{"n"},
		Rows: [][]any{
			{Integer{Value: 1}},
			{Integer{Value: 2}},
			{Integer{Value: 3}},
		},
	})
	m := vm.New(mod, NewRegistry())
	got, err := m.Call("sumColumn", vm.Boxed(ec))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	total, ok := got.Boxed.(Integer)
	if !ok || total.Null || total.Value != 6 {
		t.Fatalf("expected total 6, got %#v", got.Boxed)
	}
}

func TestAggregationHashTableInsertThenLookup(t *testing.T) {
	mod := compile(t, `fun run(pool: *MemoryPool) -> bool {
		var aht: AggregationHashTable
		@aggHTInit(&aht, pool, 8)
		var miss: *uint8 = @aggHTLookup(&aht, 7)
		if (miss == nil) {
			var slot: *uint8 = @aggHTInsert(&aht, 7)
		}
		var hit: *uint8 = @aggHTLookup(&aht, 7)
		return hit != nil
	}`)
	pool := NewMemoryPool(arena.New())
	m := vm.New(mod, NewRegistry())
	got, err := m.Call("run", vm.Boxed(pool))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Bool() {
		t.Fatalf("expected a hit after insert")
	}
}

func TestJoinHashTableForInWalksAllEntries(t *testing.T) {
	mod := compile(t, `fun build(pool: *MemoryPool) -> int32 {
		var jht: JoinHashTable
		@joinHTInit(&jht, pool, 8)
		var a: *uint8 = @joinHTInsert(&jht, 1)
		var b: *uint8 = @joinHTInsert(&jht, 1)
		var c: *uint8 = @joinHTInsert(&jht, 2)
		@joinHTBuild(&jht)
		var count: int32 = 0
		for entry in jht {
			count = count + 1
		}
		return count
	}`)
	pool := NewMemoryPool(arena.New())
	m := vm.New(mod, NewRegistry())
	got, err := m.Call("build", vm.Boxed(pool))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int32() != 3 {
		t.Fatalf("expected 3 entries visited, got %d", got.Int32())
	}
}

func TestSorterIteratorHasRowsAfterSort(t *testing.T) {
	mod := compile(t, `fun fill(pool: *MemoryPool) -> bool {
		var s: Sorter
		@sorterInit(&s, pool, 8)
		var a: *uint8 = @sorterInsert(&s)
		var b: *uint8 = @sorterInsert(&s)
		@sorterSort(&s)
		var it: SorterIterator
		@sorterIterInit(&it, &s)
		return @sorterIterHasNext(&it)
	}`)
	pool := NewMemoryPool(arena.New())
	m := vm.New(mod, NewRegistry())
	got, err := m.Call("fill", vm.Boxed(pool))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Bool() {
		t.Fatalf("expected at least one row after sorting")
	}
}

func TestCSVReaderReadsFields(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "rows-*.csv")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	if _, err := f.WriteString("1,hello\n2,world\n"); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	f.Close()

	mod := compile(t, `fun readFirstField(path: string) -> StringVal {
		var r: CSVReader
		@csvReaderInit(&r, path)
		@csvReaderAdvance(&r)
		var field: StringVal = @csvReaderGetField(&r, 1)
		@csvReaderClose(&r)
		return field
	}`)
	m := vm.New(mod, NewRegistry())
	got, err := m.Call("readFirstField", vm.Boxed(f.Name()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, ok := got.Boxed.(StringVal)
	if !ok || s.Null || s.Value != "hello" {
		t.Fatalf("expected \"hello\", got %#v", got.Boxed)
	}
}

func TestCountAggregatorExcludesNulls(t *testing.T) {
	mod := compile(t, `fun run(a: Integer, b: Integer, c: Integer) -> Integer {
		var agg: Count
		@countInit(&agg)
		@countAdvance(&agg, a)
		@countAdvance(&agg, b)
		@countAdvance(&agg, c)
		return @countResult(&agg)
	}`)
	m := vm.New(mod, NewRegistry())
	got, err := m.Call("run",
		vm.Boxed(Integer{Value: 1}),
		vm.Boxed(Integer{Null: true}),
		vm.Boxed(Integer{Value: 3}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, ok := got.Boxed.(Integer)
	if !ok || res.Null || res.Value != 2 {
		t.Fatalf("expected count 2 (null excluded), got %#v", got.Boxed)
	}
}

func TestAvgAggregatorMergesPartials(t *testing.T) {
	mod := compile(t, `fun run(a: Real, b: Real, c: Real) -> Real {
		var left: Avg
		var right: Avg
		@avgInit(&left)
		@avgInit(&right)
		@avgAdvance(&left, a)
		@avgAdvance(&left, b)
		@avgAdvance(&right, c)
		@avgMerge(&left, &right)
		return @avgResult(&left)
	}`)
	m := vm.New(mod, NewRegistry())
	got, err := m.Call("run",
		vm.Boxed(Real{Value: 2}),
		vm.Boxed(Real{Value: 4}),
		vm.Boxed(Real{Value: 9}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, ok := got.Boxed.(Real)
	if !ok || res.Null || res.Value != 5 {
		t.Fatalf("expected avg 5, got %#v", got.Boxed)
	}
}

func TestAHTIteratorWalksAllGroups(t *testing.T) {
	mod := compile(t, `fun run(pool: *MemoryPool) -> int32 {
		var aht: AggregationHashTable
		@aggHTInit(&aht, pool, 8)
		var g1: *uint8 = @aggHTInsert(&aht, 1)
		var g2: *uint8 = @aggHTInsert(&aht, 2)
		var g3: *uint8 = @aggHTInsert(&aht, 3)
		var it: AHTIterator
		@ahtIterInit(&it, &aht)
		var count: int32 = 0
		for (; @ahtIterHasNext(&it); ) {
			var row: *uint8 = @ahtIterGetRow(&it)
			@ahtIterNext(&it)
			count = count + 1
		}
		return count
	}`)
	pool := NewMemoryPool(arena.New())
	m := vm.New(mod, NewRegistry())
	got, err := m.Call("run", vm.Boxed(pool))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int32() != 3 {
		t.Fatalf("expected 3 groups visited, got %d", got.Int32())
	}
}

func TestAHTOverflowIteratorDegeneratesToSinglePartition(t *testing.T) {
	mod := compile(t, `fun run(pool: *MemoryPool) -> int32 {
		var aht: AggregationHashTable
		@aggHTInit(&aht, pool, 8)
		var g1: *uint8 = @aggHTInsert(&aht, 1)
		var g2: *uint8 = @aggHTInsert(&aht, 2)
		var it: AHTOverflowPartitionIterator
		@ahtOverflowIterInit(&it, &aht)
		var count: int32 = 0
		for (; @ahtOverflowIterHasNext(&it); ) {
			var row: *uint8 = @ahtOverflowIterGetRow(&it)
			@ahtOverflowIterNext(&it)
			count = count + 1
		}
		return count
	}`)
	pool := NewMemoryPool(arena.New())
	m := vm.New(mod, NewRegistry())
	got, err := m.Call("run", vm.Boxed(pool))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int32() != 2 {
		t.Fatalf("expected 2 rows visited in the sole partition, got %d", got.Int32())
	}
}

func TestJoinProbeIteratesAllMatchingBuildRows(t *testing.T) {
	mod := compile(t, `fun probe(pool: *MemoryPool) -> int32 {
		var jht: JoinHashTable
		@joinHTInit(&jht, pool, 8)
		var a: *uint8 = @joinHTInsert(&jht, 1)
		var b: *uint8 = @joinHTInsert(&jht, 1)
		var c: *uint8 = @joinHTInsert(&jht, 2)
		@joinHTBuild(&jht)
		var it: JoinProbeIterator
		@joinHTLookup(&it, &jht, 1)
		var count: int32 = 0
		for (; @joinProbeHasNext(&it); ) {
			var row: *uint8 = @joinProbeGetRow(&it)
			@joinProbeNext(&it)
			count = count + 1
		}
		return count
	}`)
	pool := NewMemoryPool(arena.New())
	m := vm.New(mod, NewRegistry())
	got, err := m.Call("probe", vm.Boxed(pool))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int32() != 2 {
		t.Fatalf("expected 2 build-side rows matching hash 1, got %d", got.Int32())
	}
}

func TestJoinProbeMissYieldsNoRows(t *testing.T) {
	mod := compile(t, `fun probe(pool: *MemoryPool) -> bool {
		var jht: JoinHashTable
		@joinHTInit(&jht, pool, 8)
		var a: *uint8 = @joinHTInsert(&jht, 1)
		@joinHTBuild(&jht)
		var it: JoinProbeIterator
		@joinHTLookup(&it, &jht, 99)
		return @joinProbeHasNext(&it)
	}`)
	pool := NewMemoryPool(arena.New())
	m := vm.New(mod, NewRegistry())
	got, err := m.Call("probe", vm.Boxed(pool))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Bool() {
		t.Fatalf("expected no matching rows for an unused hash")
	}
}

func TestFilterManagerAndsClausesAcrossColumns(t *testing.T) {
	mod := compile(t, `fun run(ec: *ExecutionContext) -> int64 {
		var it: TableVectorIterator
		var total: int64 = 0
		@tableIterInit(&it, ec, "t")
		@tableIterAdvance(&it)
		var vpi: *VectorProjectionIterator = @tableIterGetVPI(&it)
		var fm: FilterManager
		@filterMgrInit(&fm)
		var minN: Integer = 1
		var maxR: Real = 5.0
		@filterMgrInsertIntClause(&fm, 0, 4, minN)
		@filterMgrInsertRealClause(&fm, 1, 2, maxR)
		var tids: TupleIdList
		@filterMgrRunFilters(&tids, &fm, vpi)
		total = @tidListSize(&tids)
		@tableIterClose(&it)
		return total
	}`)
	ec := NewExecutionContext()
	ec.AddTable(&Table{
		Name:    "t",
		Columns: []string{"n", "r"},
		Rows: [][]any{
			{Integer{Value: 1}, Real{Value: 1.0}}, // n <= 1, dropped
			{Integer{Value: 2}, Real{Value: 4.0}}, // n > 1, r < 5: kept
			{Integer{Value: 3}, Real{Value: 6.0}}, // n > 1, r >= 5: dropped
			{Integer{Value: 5}, Real{Value: 0.5}}, // n > 1, r < 5: kept
		},
	})
	m := vm.New(mod, NewRegistry())
	got, err := m.Call("run", vm.Boxed(ec))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int64() != 2 {
		t.Fatalf("expected 2 surviving rows, got %d", got.Int64())
	}
}

func TestVectorFilterExecutorSelectsMatchingRows(t *testing.T) {
	mod := compile(t, `fun run(ec: *ExecutionContext) -> int64 {
		var it: TableVectorIterator
		@tableIterInit(&it, ec, "t")
		@tableIterAdvance(&it)
		var vpi: *VectorProjectionIterator = @tableIterGetVPI(&it)
		var vfe: VectorFilterExecutor
		@vfeInit(&vfe, vpi)
		var minN: Integer = 1
		@vfeSelectInt(&vfe, 0, 4, minN)
		var tids: *TupleIdList = @vfeGetTupleIdList(&vfe)
		var total: int64 = @tidListSize(tids)
		@tableIterClose(&it)
		return total
	}`)
	ec := NewExecutionContext()
	ec.AddTable(&Table{
		Name:    "t",
		Columns: []string{"n"},
		Rows: [][]any{
			{Integer{Value: 1}},
			{Integer{Value: 2}},
			{Integer{Value: 3}},
		},
	})
	m := vm.New(mod, NewRegistry())
	got, err := m.Call("run", vm.Boxed(ec))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int64() != 2 {
		t.Fatalf("expected 2 rows with n > 1, got %d", got.Int64())
	}
}

func TestTrigAndRoundingBuiltins(t *testing.T) {
	mod := compile(t, `fun run(x: Real, places: int32) -> Real {
		var s: Real = @sqlSqrt(x)
		return @sqlRound(s, places)
	}`)
	m := vm.New(mod, NewRegistry())
	got, err := m.Call("run", vm.Boxed(Real{Value: 2.0}), vm.Int32(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, ok := got.Boxed.(Real)
	if !ok || res.Null || res.Value != 1.41 {
		t.Fatalf("expected round(sqrt(2), 2) == 1.41, got %#v", got.Boxed)
	}
}

func TestTrigBuiltinsPropagateNull(t *testing.T) {
	mod := compile(t, `fun run(x: Real) -> Real {
		return @sqlSin(x)
	}`)
	m := vm.New(mod, NewRegistry())
	got, err := m.Call("run", vm.Boxed(Real{Null: true}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, ok := got.Boxed.(Real)
	if !ok || !res.Null {
		t.Fatalf("expected a null Real result, got %#v", got.Boxed)
	}
}

func TestParallelSortAboveThresholdProducesSortedOutput(t *testing.T) {
	const n = 5000 // above minParallelRows, exercises vm.RunParallel's worker fan-out
	rows := make([][]byte, n)
	for i := range rows {
		rows[i] = []byte{byte((n - i) >> 8), byte(n - i)}
	}
	m := vm.New(nil, NewRegistry())
	sorted, err := parallelSort(m, rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sorted) != n {
		t.Fatalf("expected %d rows, got %d", n, len(sorted))
	}
	for i := 1; i < len(sorted); i++ {
		if !less(sorted[i-1], sorted[i]) && !bytesEqual(sorted[i-1], sorted[i]) {
			t.Fatalf("row %d out of order", i)
		}
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
