package frontend

type reservedItem struct {
	val string
	typ itemType
}

// rw contains the set of all reserved directive keywords the assembler
// syntax recognizes outside of opcode mnemonics (mnemonics are looked up
// separately, in opcodes.go, since there are too many of them to fit this
// shape comfortably).
// The first dimension equals the length of the word.
// The second dimension is the slice of all words of that length.
// Indexing by length and searching should be faster than using a hash table.
var rw = [...][]reservedItem{
	// One-grams
	{},
	// Two-grams
	{},
	// Three-grams
	{
		{val: "int", typ: KwInt},
		{val: "ptr", typ: KwPtr},
		{val: "sym", typ: KwSym},
	},
	// Four-grams
	{
		{val: "func", typ: KwFunc},
		{val: "void", typ: KwVoid},
		{val: "pure", typ: KwPure},
	},
	// Five-grams
	{
		{val: "float", typ: KwFloat},
	},
	// Six-grams
	{
		{val: "module", typ: KwModule},
		{val: "signed", typ: KwSigned},
	},
	// Seven-grams
	{
		{val: "default", typ: KwDefault},
	},
	// Eight-grams
	{
		{val: "volatile", typ: KwVolatile},
	},
}

// isKeyword returns true if the string s is a reserved assembler directive
// keyword. On success it also returns the keyword's itemType; on failure it
// returns itemIdent, the item type lexWord falls back to.
func isKeyword(s string) (bool, itemType) {
	if len(s) == 0 || len(s) > len(rw) {
		return false, itemIdent
	}
	for _, e := range rw[len(s)-1] {
		if e.val == s {
			return true, e.typ
		}
	}
	return false, itemIdent
}
