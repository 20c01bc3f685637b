package builtins

import "github.com/turingcompl33t/tpl/internal/vm"

// NewRegistry builds the vm.Registry mapping every runtime builtin name
// the code generator can emit to its native handler in this package. The
// driver (cmd/tpl) passes the result to vm.New; tests construct their own
// narrower registries directly where only a handful of names matter.
func NewRegistry() vm.Registry {
	return vm.Registry{
		"boxInt":      boxInt,
		"boxReal":     boxReal,
		"sqlIntToReal": sqlIntToReal,

		"sqlAdd":    sqlAdd,
		"sqlSub":    sqlSub,
		"sqlMul":    sqlMul,
		"sqlDiv":    sqlDiv,
		"sqlMod":    sqlMod,
		"sqlBitAnd": sqlBitAnd,
		"sqlBitOr":  sqlBitOr,
		"sqlBitXor": sqlBitXor,

		"sqlCompareEq": sqlCompareEq,
		"sqlCompareNe": sqlCompareNe,
		"sqlCompareLt": sqlCompareLt,
		"sqlCompareLe": sqlCompareLe,
		"sqlCompareGt": sqlCompareGt,
		"sqlCompareGe": sqlCompareGe,

		"intToSql":    intToSql,
		"floatToSql":  floatToSql,
		"boolToSql":   boolToSql,
		"stringToSql": stringToSql,
		"dateToSql":   dateToSql,

		"concat":      concat,
		"hash":        hash,
		"extractYear": extractYear,

		"sqlSin":   sqlSin,
		"sqlCos":   sqlCos,
		"sqlTan":   sqlTan,
		"sqlExp":   sqlExp,
		"sqlLn":    sqlLn,
		"sqlSqrt":  sqlSqrt,
		"sqlFloor": sqlFloor,
		"sqlCeil":  sqlCeil,
		"sqlRound": sqlRound,

		"tableIterInit":    tableIterInit,
		"tableIterAdvance": tableIterAdvance,
		"tableIterGetVPI":  tableIterGetVPI,
		"tableIterClose":   tableIterClose,
		"tableIterNext":    tableIterNext,

		"vpiAdvance":    vpiAdvance,
		"vpiGetInteger": vpiGetInteger,
		"vpiGetReal":    vpiGetReal,

		"aggHTInit":   aggHTInit,
		"aggHTLookup": aggHTLookup,
		"aggHTInsert": aggHTInsert,

		"ahtIterInit":    ahtIterInit,
		"ahtIterHasNext": ahtIterHasNext,
		"ahtIterGetRow":  ahtIterGetRow,
		"ahtIterNext":    ahtIterNext,

		"ahtOverflowIterInit":    ahtOverflowIterInit,
		"ahtOverflowIterHasNext": ahtOverflowIterHasNext,
		"ahtOverflowIterGetRow":  ahtOverflowIterGetRow,
		"ahtOverflowIterNext":    ahtOverflowIterNext,

		"countInit": aggInit(aggCount), "countAdvance": aggAdvance, "countMerge": aggMerge,
		"countReset": aggReset, "countResult": aggResult,
		"countStarInit": aggInit(aggCountStar), "countStarAdvance": aggAdvanceCountStar, "countStarMerge": aggMerge,
		"countStarReset": aggReset, "countStarResult": aggResult,
		"integerSumInit": aggInit(aggIntegerSum), "integerSumAdvance": aggAdvance, "integerSumMerge": aggMerge,
		"integerSumReset": aggReset, "integerSumResult": aggResult,
		"integerMinInit": aggInit(aggIntegerMin), "integerMinAdvance": aggAdvance, "integerMinMerge": aggMerge,
		"integerMinReset": aggReset, "integerMinResult": aggResult,
		"integerMaxInit": aggInit(aggIntegerMax), "integerMaxAdvance": aggAdvance, "integerMaxMerge": aggMerge,
		"integerMaxReset": aggReset, "integerMaxResult": aggResult,
		"realSumInit": aggInit(aggRealSum), "realSumAdvance": aggAdvance, "realSumMerge": aggMerge,
		"realSumReset": aggReset, "realSumResult": aggResult,
		"realMinInit": aggInit(aggRealMin), "realMinAdvance": aggAdvance, "realMinMerge": aggMerge,
		"realMinReset": aggReset, "realMinResult": aggResult,
		"realMaxInit": aggInit(aggRealMax), "realMaxAdvance": aggAdvance, "realMaxMerge": aggMerge,
		"realMaxReset": aggReset, "realMaxResult": aggResult,
		"avgInit": aggInit(aggAvg), "avgAdvance": aggAdvance, "avgMerge": aggMerge,
		"avgReset": aggReset, "avgResult": aggResult,

		"joinHTInit":      joinHTInit,
		"joinHTInsert":    joinHTInsert,
		"joinHTBuild":     joinHTBuild,
		"joinHTLookup":    joinHTLookup,
		"joinProbeHasNext": joinProbeHasNext,
		"joinProbeGetRow": joinProbeGetRow,
		"joinProbeNext":   joinProbeNext,
		"hashTableNext":   hashTableNext,

		"filterMgrInit":            filterMgrInit,
		"filterMgrInsertIntClause": filterMgrInsertIntClause,
		"filterMgrInsertRealClause": filterMgrInsertRealClause,
		"filterMgrRunFilters":      filterMgrRunFilters,

		"vfeInit":           vfeInit,
		"vfeSelectInt":      vfeSelectInt,
		"vfeSelectReal":     vfeSelectReal,
		"vfeGetTupleIdList": vfeGetTupleIdList,

		"tidListSize": tidListSize,
		"tidListGet":  tidListGet,

		"sorterInit":        sorterInit,
		"sorterInsert":      sorterInsert,
		"sorterSort":        sorterSort,
		"sorterIterInit":    sorterIterInit,
		"sorterIterHasNext": sorterIterHasNext,
		"sorterIterGetRow":  sorterIterGetRow,
		"sorterIterNext":    sorterIterNext,

		"csvReaderInit":     csvReaderInit,
		"csvReaderAdvance":  csvReaderAdvance,
		"csvReaderGetField": csvReaderGetField,
		"csvReaderClose":    csvReaderClose,
	}
}
