package catalog

// Kind is the closed set of instruction kinds the generator emits.
type Kind uint8

const (
	Const Kind = iota
	Drop
	LocalGet
	LocalSet
	Binary
	Compare
	Return
	If
	Loop
	Call
	CallIndirect

	// KindCount is the number of kinds; handler tables are sized by it.
	KindCount
)

var kindNames = [KindCount]string{
	Const:        "const",
	Drop:         "drop",
	LocalGet:     "local.get",
	LocalSet:     "local.set",
	Binary:       "binary",
	Compare:      "compare",
	Return:       "return",
	If:           "if",
	Loop:         "loop",
	Call:         "call",
	CallIndirect: "call_indirect",
}

func (k Kind) String() string {
	if k < KindCount {
		return kindNames[k]
	}
	return "unknown"
}

// Set is a set of kinds excluded from candidate selection.
// It is a value type so each recursion level can narrow it without
// affecting its caller.
type Set uint32

// With returns s plus k.
func (s Set) With(k Kind) Set {
	return s | 1<<k
}

// Without returns s minus k.
func (s Set) Without(k Kind) Set {
	return s &^ (1 << k)
}

// Has reports whether k is in s.
func (s Set) Has(k Kind) bool {
	return s&(1<<k) != 0
}
