package render

import (
	"strconv"
	"strings"
)

type tagKind int

const (
	tagExpr tagKind = iota
	tagStmt
	tagComment
)

// tag is one {{ }}, {% %} or {# #} occurrence in document text.
type tag struct {
	kind      tagKind
	body      string
	prefix    string
	trimLeft  bool
	trimRight bool
	raw       string
}

type segment struct {
	literal string
	tag     *tag
}

//nolint:gochecknoglobals // delimiter table
var closers = map[byte]string{'{': "}}", '%': "%}", '#': "#}"}

// Word's autocorrect turns straight quotes typed inside tags into curly ones.
//
//nolint:gochecknoglobals // stateless replacer
var smartQuotes = strings.NewReplacer("\u201c", `"`, "\u201d", `"`, "\u2018", "'", "\u2019", "'")

// scanText splits text into literal runs and tags.
func scanText(text string) (segs []segment, err error) {
	for text != "" {
		i := indexTagOpen(text)
		if i < 0 {
			segs = append(segs, segment{literal: text})
			return segs, err
		}
		if i > 0 {
			segs = append(segs, segment{literal: text[:i]})
		}

		closer := closers[text[i+1]]
		j := strings.Index(text[i+2:], closer)
		if j < 0 {
			err = syntaxErrorf("unclosed tag %q", truncate(text[i:]))
			return segs, err
		}

		end := i + 2 + j + len(closer)
		segs = append(segs, segment{tag: newTag(text[i:end])})
		text = text[end:]
	}
	return segs, err
}

func indexTagOpen(text string) (i int) {
	for i = 0; i+1 < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		if _, ok := closers[text[i+1]]; ok {
			return i
		}
	}
	i = -1
	return i
}

func newTag(raw string) (t *tag) {
	t = &tag{raw: raw}
	switch raw[1] {
	case '{':
		t.kind = tagExpr
	case '%':
		t.kind = tagStmt
	default:
		t.kind = tagComment
		return t
	}

	inner := raw[2 : len(raw)-2]
	if strings.HasPrefix(inner, "-") {
		t.trimLeft = true
		inner = inner[1:]
	}
	if strings.HasSuffix(inner, "-") {
		t.trimRight = true
		inner = inner[:len(inner)-1]
	}

	if t.kind == tagStmt {
		for _, prefix := range []string{"tr", "tc", "p"} {
			rest, found := strings.CutPrefix(inner, prefix)
			if found && (rest == "" || rest[0] == ' ' || rest[0] == '\t') {
				t.prefix = prefix
				inner = rest
				break
			}
		}
	}

	t.body = strings.TrimSpace(smartQuotes.Replace(inner))
	return t
}

// hasControlPrefix reports whether text holds a statement tag with the given prefix.
func hasControlPrefix(text, prefix string) (found bool, err error) {
	var segs []segment
	segs, err = scanText(text)
	if err != nil {
		return found, err
	}
	for _, s := range segs {
		if s.tag != nil && s.tag.kind == tagStmt && s.tag.prefix == prefix {
			found = true
			return found, err
		}
	}
	return found, err
}

// controlOnly reports whether text holds nothing but statement and comment tags.
func controlOnly(text string) (ok bool, err error) {
	var segs []segment
	segs, err = scanText(text)
	if err != nil {
		return ok, err
	}
	tags := 0
	for _, s := range segs {
		switch {
		case s.tag == nil:
			if strings.TrimSpace(s.literal) != "" {
				return ok, err
			}
		case s.tag.kind == tagExpr:
			return ok, err
		default:
			tags++
		}
	}
	ok = tags > 0
	return ok, err
}

type frameKind int

const (
	frameFor frameKind = iota
	frameIf
)

type frame struct {
	kind       frameKind
	variable   string
	collection string
	sawElse    bool
}

// translator converts the Jinja subset to text/template actions. It is stateful: a block
// opened in one paragraph may close in a later one.
type translator struct {
	stack []frame
}

// text translates literal text and tags. Statement tags must not carry a prefix.
func (tr *translator) text(text string) (out string, err error) {
	var segs []segment
	segs, err = scanText(text)
	if err != nil {
		return out, err
	}

	var b strings.Builder
	for _, s := range segs {
		if s.tag == nil {
			b.WriteString(s.literal)
			continue
		}
		if s.tag.prefix != "" {
			err = syntaxErrorf("%s is only allowed alone in its paragraph or table row", s.tag.raw)
			return out, err
		}
		var action string
		action, err = tr.tag(s.tag)
		if err != nil {
			return out, err
		}
		b.WriteString(action)
	}
	out = b.String()
	return out, err
}

// statements translates only the statement tags in text that carry the given prefix.
// Everything else in text is dropped.
func (tr *translator) statements(text, prefix string) (out string, err error) {
	var segs []segment
	segs, err = scanText(text)
	if err != nil {
		return out, err
	}

	var b strings.Builder
	for _, s := range segs {
		if s.tag == nil || s.tag.kind != tagStmt {
			continue
		}
		if s.tag.prefix == "tc" {
			err = syntaxErrorf("%s: table cell tags are not supported", s.tag.raw)
			return out, err
		}
		if s.tag.prefix != prefix {
			continue
		}
		var action string
		action, err = tr.tag(s.tag)
		if err != nil {
			return out, err
		}
		b.WriteString(action)
	}
	out = b.String()
	return out, err
}

func (tr *translator) tag(t *tag) (action string, err error) {
	switch t.kind {
	case tagComment:
		return action, err
	case tagExpr:
		var expr string
		expr, err = tr.expression(t.body)
		if err != nil {
			err = syntaxErrorf("%s: %v", t.raw, err)
			return action, err
		}
		action = delims(t, "emit ("+expr+")")
		return action, err
	}

	if t.prefix == "tc" {
		err = syntaxErrorf("%s: table cell tags are not supported", t.raw)
		return action, err
	}

	var inner string
	inner, err = tr.statement(t.body)
	if err != nil {
		err = syntaxErrorf("%s: %v", t.raw, err)
		return action, err
	}
	action = delims(t, inner)
	return action, err
}

func delims(t *tag, inner string) (action string) {
	left, right := "{{", "}}"
	if t.trimLeft {
		left = "{{- "
	}
	if t.trimRight {
		right = " -}}"
	}
	action = left + inner + right
	return action
}

func (tr *translator) statement(body string) (inner string, err error) {
	keyword, rest, _ := strings.Cut(body, " ")
	rest = strings.TrimSpace(rest)

	switch keyword {
	case "for":
		inner, err = tr.forStatement(rest)
	case "endfor":
		err = tr.pop(frameFor, "endfor", rest)
		inner = "end"
	case "if":
		var cond string
		cond, err = tr.condition(rest)
		if err != nil {
			return inner, err
		}
		tr.stack = append(tr.stack, frame{kind: frameIf})
		inner = "if " + cond
	case "elif":
		top := tr.top()
		if top == nil || top.kind != frameIf || top.sawElse {
			err = errorf("elif without a matching if")
			return inner, err
		}
		var cond string
		cond, err = tr.condition(rest)
		if err != nil {
			return inner, err
		}
		inner = "else if " + cond
	case "else":
		top := tr.top()
		if top == nil || top.sawElse || rest != "" {
			err = errorf("else without a matching if or for")
			return inner, err
		}
		top.sawElse = true
		inner = "else"
	case "endif":
		err = tr.pop(frameIf, "endif", rest)
		inner = "end"
	default:
		err = errorf("unsupported statement %q", keyword)
	}
	return inner, err
}

func (tr *translator) forStatement(rest string) (inner string, err error) {
	fields := strings.SplitN(rest, " ", 3)
	if len(fields) != 3 || fields[1] != "in" || !isIdent(fields[0]) || isKeyword(fields[0]) {
		err = errorf("expected \"for <name> in <expression>\"")
		return inner, err
	}
	variable := fields[0]
	if variable == "loop" {
		err = errorf("loop is reserved")
		return inner, err
	}

	var collection string
	collection, err = tr.expression(fields[2])
	if err != nil {
		return inner, err
	}

	tr.stack = append(tr.stack, frame{kind: frameFor, variable: variable, collection: collection})
	inner = "range " + indexVar(variable) + ", $" + variable + " := " + collection
	return inner, err
}

func (tr *translator) pop(kind frameKind, name, rest string) (err error) {
	top := tr.top()
	if top == nil || top.kind != kind || rest != "" {
		err = errorf("%s without a matching block", name)
		return err
	}
	tr.stack = tr.stack[:len(tr.stack)-1]
	return err
}

func (tr *translator) top() (f *frame) {
	if len(tr.stack) == 0 {
		return f
	}
	f = &tr.stack[len(tr.stack)-1]
	return f
}

// finish reports blocks left open at the end of the document.
func (tr *translator) finish() (err error) {
	if top := tr.top(); top != nil {
		name := "if"
		if top.kind == frameFor {
			name = "for " + top.variable
		}
		err = syntaxErrorf("{%% %s %%} is never closed", name)
	}
	return err
}

func (tr *translator) loopFrame() (f *frame) {
	for i := len(tr.stack) - 1; i >= 0; i-- {
		if tr.stack[i].kind == frameFor {
			f = &tr.stack[i]
			return f
		}
	}
	return f
}

func (tr *translator) isLoopVar(name string) (ok bool) {
	for _, f := range tr.stack {
		if f.kind == frameFor && f.variable == name {
			ok = true
			return ok
		}
	}
	return ok
}

func indexVar(variable string) (name string) {
	name = "$i_" + variable
	return name
}

// condition translates "[not] expr ((and|or) [not] expr)*". Mixing and with or is rejected.
func (tr *translator) condition(src string) (cond string, err error) {
	var toks []token
	toks, err = lex(src)
	if err != nil {
		return cond, err
	}
	p := &exprParser{toks: toks, tr: tr}

	var terms []string
	var op string
	for {
		var term string
		term, err = p.term()
		if err != nil {
			return cond, err
		}
		terms = append(terms, term)

		next := p.peek()
		if next.kind == tokEOF {
			break
		}
		if next.kind != tokIdent || (next.text != "and" && next.text != "or") {
			err = errorf("unexpected %q in condition", next.text)
			return cond, err
		}
		if op != "" && op != next.text {
			err = errorf("mixing and with or is not supported")
			return cond, err
		}
		op = next.text
		p.next()
	}

	if len(terms) == 1 {
		cond = terms[0]
		return cond, err
	}
	cond = op + " (" + strings.Join(terms, ") (") + ")"
	return cond, err
}

func (tr *translator) expression(src string) (expr string, err error) {
	var toks []token
	toks, err = lex(src)
	if err != nil {
		return expr, err
	}
	p := &exprParser{toks: toks, tr: tr}

	expr, err = p.filtered()
	if err != nil {
		return expr, err
	}
	if next := p.peek(); next.kind != tokEOF {
		err = errorf("unexpected %q", next.text)
		return expr, err
	}
	return expr, err
}

type exprParser struct {
	toks []token
	pos  int
	tr   *translator
}

func (p *exprParser) peek() (t token) {
	if p.pos >= len(p.toks) {
		t = token{kind: tokEOF}
		return t
	}
	t = p.toks[p.pos]
	return t
}

func (p *exprParser) next() (t token) {
	t = p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *exprParser) term() (term string, err error) {
	if t := p.peek(); t.kind == tokIdent && t.text == "not" {
		p.next()
		var inner string
		inner, err = p.term()
		if err != nil {
			return term, err
		}
		term = "not (" + inner + ")"
		return term, err
	}
	term, err = p.filtered()
	return term, err
}

// filtered parses an operand followed by any number of "| filter" applications.
func (p *exprParser) filtered() (expr string, err error) {
	expr, err = p.operand()
	if err != nil {
		return expr, err
	}

	for p.peek().kind == tokPipe {
		p.next()
		name := p.next()
		if name.kind != tokIdent {
			err = errorf("expected a filter name after |")
			return expr, err
		}

		switch name.text {
		case "upper", "lower", "trim", "title":
			expr += " | " + name.text
		case "length", "count":
			expr += " | length"
		case "join":
			sep := ""
			if p.peek().kind == tokLParen {
				p.next()
				if p.peek().kind == tokString {
					sep = p.next().text
				}
				if p.next().kind != tokRParen {
					err = errorf("join takes one string argument")
					return expr, err
				}
			}
			expr += " | join " + strconv.Quote(sep)
		default:
			err = errorf("unsupported filter %q", name.text)
			return expr, err
		}
	}
	return expr, err
}

func (p *exprParser) operand() (expr string, err error) {
	t := p.next()
	switch t.kind {
	case tokString:
		expr = strconv.Quote(t.text)
		return expr, err
	case tokNumber:
		expr = t.text
		return expr, err
	case tokLParen:
		expr, err = p.filtered()
		if err != nil {
			return expr, err
		}
		if p.next().kind != tokRParen {
			err = errorf("missing )")
			return expr, err
		}
		expr = "(" + expr + ")"
		return expr, err
	case tokIdent:
	default:
		err = errorf("expected a name, got %q", t.text)
		return expr, err
	}

	if isKeyword(t.text) {
		err = errorf("unexpected keyword %q", t.text)
		return expr, err
	}

	if t.text == "loop" {
		expr, err = p.loopAttr()
		return expr, err
	}

	if p.tr.isLoopVar(t.text) {
		expr = "$" + t.text
	} else {
		expr = "$." + t.text
	}

	for {
		switch p.peek().kind {
		case tokDot:
			p.next()
			field := p.next()
			if field.kind != tokIdent {
				err = errorf("expected a field name after .")
				return expr, err
			}
			expr = fieldOf(expr, field.text)
		case tokLBracket:
			p.next()
			key := p.next()
			if p.next().kind != tokRBracket {
				err = errorf("missing ]")
				return expr, err
			}
			switch key.kind {
			case tokNumber:
				expr = "(index " + expr + " " + key.text + ")"
			case tokString:
				expr = "(index " + expr + " " + strconv.Quote(key.text) + ")"
			default:
				err = errorf("subscript must be a number or a string")
				return expr, err
			}
		default:
			return expr, err
		}
	}
}

func (p *exprParser) loopAttr() (expr string, err error) {
	f := p.tr.loopFrame()
	if f == nil {
		err = errorf("loop used outside a for block")
		return expr, err
	}
	if p.next().kind != tokDot {
		err = errorf("expected loop.<attribute>")
		return expr, err
	}
	attr := p.next()

	i := indexVar(f.variable)
	switch attr.text {
	case "index":
		expr = "(inc " + i + ")"
	case "index0":
		expr = i
	case "first":
		expr = "(eq " + i + " 0)"
	case "last":
		expr = "(last " + i + " (" + f.collection + "))"
	case "length":
		expr = "(" + f.collection + " | length)"
	default:
		err = errorf("unsupported loop attribute %q", attr.text)
	}
	return expr, err
}

func fieldOf(expr, field string) (out string) {
	if strings.ContainsAny(expr, " ()") {
		out = "(" + expr + ")." + field
		return out
	}
	out = expr + "." + field
	return out
}

func isKeyword(word string) (ok bool) {
	switch word {
	case "not", "and", "or", "in", "is":
		ok = true
	}
	return ok
}

func truncate(s string) (short string) {
	short = s
	if len(short) > 40 {
		short = short[:40] + "..."
	}
	return short
}
