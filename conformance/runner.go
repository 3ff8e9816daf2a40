package conformance

import (
	"fmt"
	"sort"

	"github.com/quackster/libreshockwave/builtins"
	"github.com/quackster/libreshockwave/castlib"
	"github.com/quackster/libreshockwave/script"
	"github.com/quackster/libreshockwave/value"
	"github.com/quackster/libreshockwave/vm"
)

// opcodeByName is the fixture format's mnemonic table. script.Opcode's
// own name map is unexported (String() is for log lines, not parsing),
// so this is its own small reverse lookup rather than an import.
var opcodeByName = map[string]script.Opcode{
	"PUSH_VOID":           script.OpPushVoid,
	"POP":                 script.OpPop,
	"DUP":                 script.OpDup,
	"SWAP":                script.OpSwap,
	"ADD":                 script.OpAdd,
	"SUB":                 script.OpSub,
	"MUL":                 script.OpMul,
	"DIV":                 script.OpDiv,
	"MOD":                 script.OpMod,
	"NEG":                 script.OpNeg,
	"EQ":                   script.OpEq,
	"NE":                   script.OpNe,
	"LT":                   script.OpLt,
	"LE":                   script.OpLe,
	"GT":                   script.OpGt,
	"GE":                   script.OpGe,
	"AND":                  script.OpAnd,
	"OR":                   script.OpOr,
	"NOT":                  script.OpNot,
	"CONCAT":               script.OpConcat,
	"CONCAT_SPACE":         script.OpConcatSpace,
	"RET":                  script.OpRet,
	"PUSH_INT":             script.OpPushInt,
	"PUSH_FLOAT":           script.OpPushFloat,
	"PUSH_STRING_LITERAL":  script.OpPushStringLiteral,
	"PUSH_SYMBOL":          script.OpPushSymbol,
	"PUSH_CONSTANT":        script.OpPushConstant,
	"GET_LOCAL":            script.OpGetLocal,
	"SET_LOCAL":            script.OpSetLocal,
	"GET_ARG":              script.OpGetArg,
	"SET_ARG":              script.OpSetArg,
	"GET_GLOBAL":           script.OpGetGlobal,
	"SET_GLOBAL":           script.OpSetGlobal,
	"GET_PROP":             script.OpGetProp,
	"SET_PROP":             script.OpSetProp,
	"JMP":                  script.OpJmp,
	"JMP_IF_ZERO":          script.OpJmpIfZero,
	"JMP_IF_NOT_ZERO":      script.OpJmpIfNotZero,
	"EXT_CALL":             script.OpExtCall,
	"LOCAL_CALL":           script.OpLocalCall,
	"OBJ_CALL":             script.OpObjCall,
	"NEW":                  script.OpNew,
	"LIST_NEW":             script.OpListNew,
	"PROP_LIST_NEW":        script.OpPropListNew,
	"CHUNK_EXPR":           script.OpChunkExpr,
	"CHUNK_EXPR_SET":       script.OpChunkExprSet,
}

var jumpOpcodes = map[script.Opcode]bool{
	script.OpJmp:          true,
	script.OpJmpIfZero:    true,
	script.OpJmpIfNotZero: true,
}

// errorCapture is a minimal vm.TraceListener that records OnError calls;
// a fixture's Expect.Error field is checked against it, since
// ExecuteHandler never returns a Go error of its own (vm.go's
// ExecuteHandler swallows a fatal runFrame error into a trace event and
// a Void result).
type errorCapture struct {
	errs []string
}

func (e *errorCapture) OnInstruction(uint32, uint32, script.Opcode, int32, []value.Value) {}
func (e *errorCapture) OnHandlerEnter(vm.HandlerInfo)                                      {}
func (e *errorCapture) OnHandlerExit(vm.HandlerInfo, value.Value)                          {}
func (e *errorCapture) OnError(msg string)                                                 { e.errs = append(e.errs, msg) }

// Runner assembles each TestCase's Program into a script.Handler and
// drives it through a fresh-per-run VM via ExecuteHandler, grounded on
// vm_test.go's loadTestMovie helper's hand-built Handler/NameTable shape
// and on vm.VM.ExecuteHandler's existence as a single-handler synchronous
// entry point that needs no movie container at all.
type Runner struct {
	registry *builtins.Registry
}

// NewRunner builds a Runner whose VMs carry the full built-in registry
// (math/string/list groups; score/net/timeout collaborators are nil, so
// EXT_CALLs to those groups return a safe Void/0/empty-list result
// rather than panicking).
func NewRunner() *Runner {
	return &Runner{registry: builtins.NewRegistry(nil, nil, nil)}
}

// TestResult is the outcome of running a single TestCase.
type TestResult struct {
	Test       LoadedTest
	Passed     bool
	Skipped    bool
	SkipReason string
	Error      error
}

// Run executes one loaded test case to completion.
func (r *Runner) Run(test LoadedTest) TestResult {
	if skip, reason := test.Test.IsSkipped(); skip {
		return TestResult{Test: test, Skipped: true, SkipReason: reason}
	}

	names := script.NewNameTable(test.Suite.Names)
	literals := make([]value.Value, len(test.Suite.Literals))
	for i, v := range test.Suite.Literals {
		literals[i] = convertYAMLValue(v)
	}

	handler, err := buildHandler(test.Test)
	if err != nil {
		return TestResult{Test: test, Passed: false, Error: fmt.Errorf("assemble bytecode: %w", err)}
	}

	capture := &errorCapture{}
	v := vm.NewVM(castlib.NewManager(nil), r.registry, nil)
	v.Trace = capture

	for name, raw := range test.Test.Globals {
		v.SetGlobal(name, convertYAMLValue(raw))
	}

	args := make([]value.Value, len(test.Test.Args))
	for i, raw := range test.Test.Args {
		args[i] = convertYAMLValue(raw)
	}

	s := script.Script{ID: 1, Kind: script.KindMovie, Literals: literals}
	result := v.ExecuteHandler(0, s, names, handler, test.Test.Name, value.Void{}, args)

	passed, checkErr := checkExpectation(test.Test.Expect, v, result, capture)
	return TestResult{Test: test, Passed: passed, Error: checkErr}
}

// RunAll runs every test in tests in order.
func (r *Runner) RunAll(tests []LoadedTest) []TestResult {
	results := make([]TestResult, len(tests))
	for i, t := range tests {
		results[i] = r.Run(t)
	}
	return results
}

// buildHandler assembles tc.Program into a script.Handler by round-
// tripping it through script.EncodeBytecode/DecodeBytecode twice: once
// to learn each instruction's real on-disk byte offset (needed to turn a
// jump's Target program-index into the byte delta OpJmp* actually
// encodes), then again to bake that delta in and get back the handler's
// real OffsetToIndex map. This is the same decode path chunks/script.go
// uses for a movie's own bytecode, just fed assembled bytes instead of
// ones read off disk.
func buildHandler(tc TestCase) (script.Handler, error) {
	instrs := make([]script.Instruction, len(tc.Program))
	for i, in := range tc.Program {
		op, ok := opcodeByName[in.Op]
		if !ok {
			return script.Handler{}, fmt.Errorf("unknown opcode %q in instruction %d", in.Op, i)
		}
		instrs[i] = script.Instruction{Opcode: op, Argument: in.Arg}
	}

	decoded, _, err := script.DecodeBytecode(script.EncodeBytecode(instrs))
	if err != nil {
		return script.Handler{}, err
	}

	for i, in := range tc.Program {
		if in.Target == nil {
			continue
		}
		if !jumpOpcodes[instrs[i].Opcode] {
			return script.Handler{}, fmt.Errorf("instruction %d (%s) has a target but is not a jump opcode", i, in.Op)
		}
		if *in.Target < 0 || *in.Target >= len(decoded) {
			return script.Handler{}, fmt.Errorf("instruction %d targets out-of-range index %d", i, *in.Target)
		}
		next := decoded[i].ByteOffset + 1 + uint32(decoded[i].Opcode.ArgumentWidth())
		targetOffset := decoded[*in.Target].ByteOffset
		instrs[i].Argument = int32(targetOffset) - int32(next)
	}

	finalInstrs, offsetToIndex, err := script.DecodeBytecode(script.EncodeBytecode(instrs))
	if err != nil {
		return script.Handler{}, err
	}

	localCount := tc.Locals
	if localCount == 0 {
		for _, in := range tc.Program {
			if in.Op == "GET_LOCAL" || in.Op == "SET_LOCAL" {
				if int(in.Arg)+1 > localCount {
					localCount = int(in.Arg) + 1
				}
			}
		}
	}

	return script.Handler{
		ArgCount:      uint16(len(tc.Args)),
		LocalCount:    uint16(localCount),
		Instructions:  finalInstrs,
		OffsetToIndex: offsetToIndex,
	}, nil
}

// checkExpectation compares a run's outcome against exp. It does not
// treat a merely-logged trace error as a failure on its own:
// VM.recoverable and a fatal runFrame abort both report through the same
// TraceListener.OnError hook (vm/context.go's TraceListener has no
// separate "fatal" signal), so a handler that hits an unresolved name
// and carries on to a correct void/value result is passing Lingo's
// permissive-coercion behavior, not failing it. Only Expect.Error opts a
// fixture into asserting that something was logged.
func checkExpectation(exp Expectation, v *vm.VM, result value.Value, capture *errorCapture) (bool, error) {
	if exp.Error {
		if len(capture.errs) == 0 {
			return false, fmt.Errorf("expected a fatal error, got none (result=%s)", result)
		}
		return true, nil
	}

	if exp.Global != "" {
		actual := v.Global(exp.Global)
		want := convertYAMLValue(exp.Value)
		if !actual.Equal(want) {
			return false, fmt.Errorf("global %s = %s, want %s", exp.Global, actual, want)
		}
		return true, nil
	}

	if exp.Void {
		if _, ok := result.(value.Void); !ok {
			return false, fmt.Errorf("expected void, got %s", result)
		}
		return true, nil
	}

	want := convertYAMLValue(exp.Value)
	if !result.Equal(want) {
		return false, fmt.Errorf("got %s, want %s", result, want)
	}
	return true, nil
}

// convertYAMLValue maps a decoded YAML scalar/sequence/mapping onto the
// value.Value it denotes. Lists and prop-lists nest recursively, mirroring
// yaml.v3's own []interface{}/map[string]interface{} decode shape.
func convertYAMLValue(raw any) value.Value {
	switch v := raw.(type) {
	case nil:
		return value.Void{}
	case bool:
		if v {
			return value.Int32(1)
		}
		return value.Int32(0)
	case int:
		return value.Int32(int32(v))
	case int32:
		return value.Int32(v)
	case int64:
		return value.Int32(int32(v))
	case float64:
		return value.Float64(v)
	case string:
		return value.String(v)
	case []any:
		elems := make([]value.Value, len(v))
		for i, e := range v {
			elems[i] = convertYAMLValue(e)
		}
		return value.NewList(elems)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		p := value.NewPropList()
		for _, k := range keys {
			p = p.Set(value.Symbol(k), convertYAMLValue(v[k]))
		}
		return p
	default:
		return value.Void{}
	}
}

// SummaryStats tallies a batch of TestResults.
type SummaryStats struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// ComputeStats tallies results into a SummaryStats.
func ComputeStats(results []TestResult) SummaryStats {
	stats := SummaryStats{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Skipped:
			stats.Skipped++
		case r.Passed:
			stats.Passed++
		default:
			stats.Failed++
		}
	}
	return stats
}

// FormatStats renders stats as a one-line human-readable summary.
func FormatStats(stats SummaryStats) string {
	return fmt.Sprintf("%d passed, %d failed, %d skipped (%d total)",
		stats.Passed, stats.Failed, stats.Skipped, stats.Total)
}
