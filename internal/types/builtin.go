package types

// Builtin enumerates the closed set of nominal SQL/runtime types, per
// spec.md §3.3. Each has a fixed byte size and alignment known to the back
// end (see builtinLayout in layout.go).
type Builtin uint8

const (
	BuiltinInvalid Builtin = iota

	// SQL values (§3.3, glossary "SQL value").
	BuiltinInteger
	BuiltinReal
	BuiltinDate
	BuiltinTimestamp
	BuiltinStringVal
	BuiltinBoolean // SQL-nullable bool

	// Execution-context handles.
	BuiltinMemoryPool
	BuiltinExecutionContext
	BuiltinThreadStateContainer

	// Vectorized scan / filter.
	BuiltinTableVectorIterator
	BuiltinVectorProjectionIterator
	BuiltinVectorProjection
	BuiltinTupleIdList
	BuiltinFilterManager
	BuiltinVectorFilterExecutor

	// Aggregation.
	BuiltinAggregationHashTable
	BuiltinAHTIterator
	BuiltinAHTOverflowPartitionIterator
	BuiltinHashTableEntry

	// Joins.
	BuiltinJoinHashTable
	BuiltinJoinProbeIterator

	// Sorting.
	BuiltinSorter
	BuiltinSorterIterator

	// I/O.
	BuiltinCSVReader

	// Aggregators (glossary: "a runtime object supporting init, advance,
	// merge, reset, result").
	BuiltinCount
	BuiltinCountStar
	BuiltinIntegerSum
	BuiltinIntegerMin
	BuiltinIntegerMax
	BuiltinRealSum
	BuiltinRealMin
	BuiltinRealMax
	BuiltinAvg
)

var builtinNames = map[Builtin]string{
	BuiltinInteger:                      "Integer",
	BuiltinReal:                         "Real",
	BuiltinDate:                         "Date",
	BuiltinTimestamp:                    "Timestamp",
	BuiltinStringVal:                    "StringVal",
	BuiltinBoolean:                      "Boolean",
	BuiltinMemoryPool:                   "MemoryPool",
	BuiltinExecutionContext:             "ExecutionContext",
	BuiltinThreadStateContainer:         "ThreadStateContainer",
	BuiltinTableVectorIterator:          "TableVectorIterator",
	BuiltinVectorProjectionIterator:     "VectorProjectionIterator",
	BuiltinVectorProjection:             "VectorProjection",
	BuiltinTupleIdList:                  "TupleIdList",
	BuiltinFilterManager:                "FilterManager",
	BuiltinVectorFilterExecutor:         "VectorFilterExecutor",
	BuiltinAggregationHashTable:         "AggregationHashTable",
	BuiltinAHTIterator:                  "AHTIterator",
	BuiltinAHTOverflowPartitionIterator: "AHTOverflowPartitionIterator",
	BuiltinHashTableEntry:               "HashTableEntry",
	BuiltinJoinHashTable:                "JoinHashTable",
	BuiltinJoinProbeIterator:            "JoinProbeIterator",
	BuiltinSorter:                       "Sorter",
	BuiltinSorterIterator:               "SorterIterator",
	BuiltinCSVReader:                    "CSVReader",
	BuiltinCount:                        "Count",
	BuiltinCountStar:                    "CountStar",
	BuiltinIntegerSum:                   "IntegerSum",
	BuiltinIntegerMin:                   "IntegerMin",
	BuiltinIntegerMax:                   "IntegerMax",
	BuiltinRealSum:                      "RealSum",
	BuiltinRealMin:                      "RealMin",
	BuiltinRealMax:                      "RealMax",
	BuiltinAvg:                          "Avg",
}

func (b Builtin) String() string {
	if s, ok := builtinNames[b]; ok {
		return s
	}
	return "<invalid builtin>"
}

// BuiltinByName resolves a builtin nominal type by its source-level name,
// e.g. for parsing `*AggregationHashTable` type-representation expressions.
func BuiltinByName(name string) (Builtin, bool) {
	for b, n := range builtinNames {
		if n == name {
			return b, true
		}
	}
	return BuiltinInvalid, false
}

// IsAggregator reports whether b is one of the aggregator builtins
// (glossary: init/advance/merge/reset/result).
func (b Builtin) IsAggregator() bool {
	switch b {
	case BuiltinCount, BuiltinCountStar, BuiltinIntegerSum, BuiltinIntegerMin,
		BuiltinIntegerMax, BuiltinRealSum, BuiltinRealMin, BuiltinRealMax, BuiltinAvg:
		return true
	default:
		return false
	}
}
