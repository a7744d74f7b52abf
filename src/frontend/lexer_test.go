// Tests the lexer type by verifying that a small assembly snippet is
// tokenized correctly: one sample program, hand-transcribed into the
// sequence of item types the lexer is expected to emit for it.

package frontend

import "testing"

// TestLexer tests the lexing state functions against a small program
// exercising the keyword table, register/symbol sigils and punctuation.
func TestLexer(t *testing.T) {
	src := "module m\n\nfunc add(2):\nblock0:\n%r1 = add.32 %arg0, %arg1\nret %r1\n"

	exp := []item{
		{typ: KwModule, val: "module"},
		{typ: itemIdent, val: "m"},
		{typ: itemNewline, val: "\n"},
		{typ: itemNewline, val: "\n"},
		{typ: KwFunc, val: "func"},
		{typ: itemIdent, val: "add"},
		{typ: itemLParen, val: "("},
		{typ: itemNumber, val: "2"},
		{typ: itemRParen, val: ")"},
		{typ: itemColon, val: ":"},
		{typ: itemNewline, val: "\n"},
		{typ: itemIdent, val: "block0"},
		{typ: itemColon, val: ":"},
		{typ: itemNewline, val: "\n"},
		{typ: itemRegister, val: "%r1"},
		{typ: itemEquals, val: "="},
		{typ: itemIdent, val: "add"},
		{typ: itemDot, val: "."},
		{typ: itemNumber, val: "32"},
		{typ: itemRegister, val: "%arg0"},
		{typ: itemComma, val: ","},
		{typ: itemRegister, val: "%arg1"},
		{typ: itemNewline, val: "\n"},
		{typ: itemIdent, val: "ret"},
		{typ: itemRegister, val: "%r1"},
		{typ: itemNewline, val: "\n"},
	}

	l := newLexer(src, lexGlobal)
	go l.run()

	for i, want := range exp {
		got := l.nextItem()
		if got.typ != want.typ || got.val != want.val {
			t.Fatalf("token %d: expected %q (type %d), got %q (type %d)", i, want.val, want.typ, got.val, got.typ)
		}
	}
	if tok := l.nextItem(); tok.typ != itemEOF {
		t.Fatalf("expected EOF, got %v", tok)
	}
}

// TestLexerComment checks that line comments are discarded without
// disturbing line tracking.
func TestLexerComment(t *testing.T) {
	src := "module m // trailing remark\nsym @x\n"
	l := newLexer(src, lexGlobal)
	go l.run()

	want := []itemType{KwModule, itemIdent, itemNewline, KwSym, itemSymbol, itemNewline, itemEOF}
	for i, typ := range want {
		got := l.nextItem()
		if got.typ != typ {
			t.Fatalf("token %d: expected type %d, got %q (type %d)", i, typ, got.val, got.typ)
		}
	}
}
