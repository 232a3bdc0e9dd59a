package qlparse

import (
	"math/big"

	"github.com/roach88/qlcache/internal/constraint"
	"github.com/roach88/qlcache/internal/ql"
	"github.com/roach88/qlcache/internal/qlerr"
	"github.com/roach88/qlcache/internal/value"
)

// Resolver reports the declared type of a column. The engine implements it.
type Resolver interface {
	ColumnType(ref ql.TableRef, column string) (value.DataType, error)
}

// Parse translates one statement into a query. A trailing semicolon is
// allowed. r may be nil.
func Parse(stmt string, r Resolver) (ql.Query, error) {
	p := &parser{tokens: NewLexer(stmt).Tokens(), resolver: r}

	q, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	if p.peek().Type == SEMICOLON {
		p.next()
	}
	if tok := p.peek(); tok.Type != EOF {
		return nil, qlerr.SyntaxError(tok.Position, "unexpected %s after statement", tok.describe())
	}
	return q, nil
}

type parser struct {
	tokens   []Token
	pos      int
	resolver Resolver
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Type != EOF {
		p.pos++
	}
	return tok
}

// accept consumes the next token if it has type tt.
func (p *parser) accept(tt TokenType) bool {
	if p.peek().Type == tt {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(tt TokenType) (Token, error) {
	tok := p.next()
	if tok.Type != tt {
		return tok, qlerr.SyntaxError(tok.Position, "expected %s, got %s", tt, tok.describe())
	}
	return tok, nil
}

func (p *parser) expectSequence(types ...TokenType) error {
	for _, tt := range types {
		if _, err := p.expect(tt); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseStatement() (ql.Query, error) {
	tok := p.next()
	switch tok.Type {
	case CREATE:
		switch next := p.next(); next.Type {
		case SCHEMA:
			return p.parseCreateSchema()
		case TABLE:
			return p.parseCreateTable()
		default:
			return nil, qlerr.SyntaxError(next.Position, "expected SCHEMA or TABLE, got %s", next.describe())
		}
	case INSERT:
		return p.parseInsert()
	case SELECT:
		return p.parseSelect()
	case INVALID:
		return nil, qlerr.SyntaxError(tok.Position, "invalid token %s", tok.describe())
	default:
		return nil, qlerr.SyntaxError(tok.Position, "expected CREATE, INSERT or SELECT, got %s", tok.describe())
	}
}

func (p *parser) parseIfNotExists() (bool, error) {
	if !p.accept(IF) {
		return false, nil
	}
	if err := p.expectSequence(NOT, EXISTS); err != nil {
		return false, err
	}
	return true, nil
}

func (p *parser) parseTableRef() (ql.TableRef, error) {
	first, err := p.expect(IDENTIFIER)
	if err != nil {
		return ql.TableRef{}, err
	}
	if !p.accept(DOT) {
		return ql.TableRef{Table: first.Value}, nil
	}
	second, err := p.expect(IDENTIFIER)
	if err != nil {
		return ql.TableRef{}, err
	}
	return ql.TableRef{Schema: first.Value, Table: second.Value}, nil
}

// parseIdentList parses ident {, ident}.
func (p *parser) parseIdentList() ([]string, error) {
	var names []string
	for {
		tok, err := p.expect(IDENTIFIER)
		if err != nil {
			return nil, err
		}
		names = append(names, tok.Value)
		if !p.accept(COMMA) {
			return names, nil
		}
	}
}

func (p *parser) parseCreateSchema() (ql.Query, error) {
	ifNotExists, err := p.parseIfNotExists()
	if err != nil {
		return nil, err
	}
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}

	b := ql.NewCreateSchema().Name(name.Value)
	if ifNotExists {
		b.IfNotExist()
	}
	return b.Build()
}

func (p *parser) parseCreateTable() (ql.Query, error) {
	ifNotExists, err := p.parseIfNotExists()
	if err != nil {
		return nil, err
	}
	ref, err := p.parseTableRef()
	if err != nil {
		return nil, err
	}

	b := ql.NewCreateTable().Name(ref.Table)
	if ref.Schema != "" {
		b.Schema(ref.Schema)
	}
	if ifNotExists {
		b.IfNotExist()
	}

	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	for {
		if p.peek().Type == PRIMARY {
			if err := p.parseTablePrimaryKey(b); err != nil {
				return nil, err
			}
		} else if err := p.parseColumnDef(b); err != nil {
			return nil, err
		}
		if !p.accept(COMMA) {
			break
		}
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return b.Build()
}

// parseColumnDef parses: name TYPE [NULL | NOT NULL] [PRIMARY KEY].
func (p *parser) parseColumnDef(b *ql.CreateTableBuilder) error {
	name, err := p.expect(IDENTIFIER)
	if err != nil {
		return err
	}
	typeTok := p.next()
	if typeTok.Type != IDENTIFIER {
		return qlerr.SyntaxError(typeTok.Position, "expected column type, got %s", typeTok.describe())
	}
	dt, err := value.ParseDataType(typeTok.Value)
	if err != nil {
		return qlerr.SyntaxError(typeTok.Position, "unknown column type %s", typeTok.describe())
	}

	nullable := true
	switch {
	case p.accept(NULL):
	case p.accept(NOT):
		if _, err := p.expect(NULL); err != nil {
			return err
		}
		nullable = false
	}
	b.Column(name.Value, dt, nullable)

	if p.accept(PRIMARY) {
		if _, err := p.expect(KEY); err != nil {
			return err
		}
		if _, err := b.PrimaryKey(name.Value); err != nil {
			return err
		}
	}
	return nil
}

// parseTablePrimaryKey parses: PRIMARY KEY (col).
func (p *parser) parseTablePrimaryKey(b *ql.CreateTableBuilder) error {
	if err := p.expectSequence(PRIMARY, KEY, LPAREN); err != nil {
		return err
	}
	col, err := p.expect(IDENTIFIER)
	if err != nil {
		return err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return err
	}
	_, err = b.PrimaryKey(col.Value)
	return err
}

func (p *parser) parseInsert() (ql.Query, error) {
	if _, err := p.expect(INTO); err != nil {
		return nil, err
	}
	ref, err := p.parseTableRef()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	columns, err := p.parseIdentList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}

	if err := p.expectSequence(VALUES, LPAREN); err != nil {
		return nil, err
	}
	var lits []Token
	for {
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		lits = append(lits, lit)
		if !p.accept(COMMA) {
			break
		}
	}
	closing, err := p.expect(RPAREN)
	if err != nil {
		return nil, err
	}
	if len(lits) != len(columns) {
		return nil, qlerr.SyntaxError(closing.Position, "%d columns but %d values", len(columns), len(lits))
	}

	b := ql.NewInsert().Into(ref)
	for i, col := range columns {
		v, err := p.typeLiteral(ref, col, lits[i], true)
		if err != nil {
			return nil, err
		}
		b.Value(col, v)
	}
	return b.Build()
}

func (p *parser) parseSelect() (ql.Query, error) {
	b := ql.NewSelect()

	if p.accept(ASTERISK) {
		b.Everything()
	} else {
		fields, err := p.parseIdentList()
		if err != nil {
			return nil, err
		}
		b.Fields(fields...)
	}

	if _, err := p.expect(FROM); err != nil {
		return nil, err
	}
	ref, err := p.parseTableRef()
	if err != nil {
		return nil, err
	}
	b.From(ref)

	if p.accept(WHERE) {
		c, err := p.parseOr(ref)
		if err != nil {
			return nil, err
		}
		b.Constraint(c)
	}

	if tok := p.peek(); tok.Type == SORT || tok.Type == ORDER {
		p.next()
		if _, err := p.expect(BY); err != nil {
			return nil, err
		}
		columns, err := p.parseIdentList()
		if err != nil {
			return nil, err
		}
		order := ql.Ascending
		if p.accept(DESC) {
			order = ql.Descending
		} else {
			p.accept(ASC)
		}
		sortBy, err := ql.NewSortBy(columns, order)
		if err != nil {
			return nil, err
		}
		b.SortBy(sortBy)
	}

	return b.Build()
}

// parseOr parses term {OR term}, building a left-deep tree.
func (p *parser) parseOr(ref ql.TableRef) (constraint.Constraint, error) {
	left, err := p.parseAnd(ref)
	if err != nil {
		return nil, err
	}
	for p.accept(OR) {
		right, err := p.parseAnd(ref)
		if err != nil {
			return nil, err
		}
		left = constraint.Or{Left: left, Right: right}
	}
	return left, nil
}

// parseAnd parses factor {AND factor}, building a left-deep tree.
func (p *parser) parseAnd(ref ql.TableRef) (constraint.Constraint, error) {
	left, err := p.parseFactor(ref)
	if err != nil {
		return nil, err
	}
	for p.accept(AND) {
		right, err := p.parseFactor(ref)
		if err != nil {
			return nil, err
		}
		left = constraint.And{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseFactor(ref ql.TableRef) (constraint.Constraint, error) {
	if p.accept(NOT) {
		inner, err := p.parseFactor(ref)
		if err != nil {
			return nil, err
		}
		return constraint.Not{Inner: inner}, nil
	}

	if p.accept(LPAREN) {
		inner, err := p.parseOr(ref)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return inner, nil
	}

	field, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}
	opTok, err := p.expect(OPERATOR)
	if err != nil {
		return nil, err
	}
	op, err := constraint.ParseOp(opTok.Value)
	if err != nil {
		return nil, qlerr.SyntaxError(opTok.Position, "unsupported operator %s", opTok.describe())
	}
	lit, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	v, err := p.typeLiteral(ref, field.Value, lit, false)
	if err != nil {
		return nil, err
	}
	return constraint.Comparison{Field: field.Value, Op: op, Value: v}, nil
}

func (p *parser) parseLiteral() (Token, error) {
	tok := p.next()
	switch tok.Type {
	case INT, STRING, NULL:
		return tok, nil
	default:
		return tok, qlerr.SyntaxError(tok.Position, "expected literal, got %s", tok.describe())
	}
}

// typeLiteral converts a literal token into a Value of the column's declared
// type. When the type cannot be resolved the literal takes its default type.
// A literal that does not fit the resolved type is TYPE_MISMATCH when strict,
// and falls back to its default type otherwise; a comparison against it then
// simply matches nothing.
func (p *parser) typeLiteral(ref ql.TableRef, column string, lit Token, strict bool) (value.Value, error) {
	if lit.Type == NULL {
		return value.Null{}, nil
	}

	dt := value.TypeInvalid
	if p.resolver != nil {
		if t, err := p.resolver.ColumnType(ref, column); err == nil {
			dt = t
		}
	}

	if dt != value.TypeInvalid {
		v, err := literalAs(dt, lit)
		if err == nil {
			return v, nil
		}
		if strict {
			if qlerr.Is(err, qlerr.CodeTypeMismatch) {
				return nil, qlerr.TypeMismatch(column, dt.String(), lit.Value)
			}
			return nil, err
		}
	}

	if lit.Type == STRING {
		return value.Text(lit.Value), nil
	}
	return literalAs(value.TypeI64, lit)
}

func literalAs(dt value.DataType, lit Token) (value.Value, error) {
	switch lit.Type {
	case STRING:
		if dt != value.TypeText {
			return nil, qlerr.TypeMismatch("", dt.String(), value.TypeText.String())
		}
		return value.Text(lit.Value), nil
	case INT:
		if !dt.IsInteger() {
			return nil, qlerr.TypeMismatch("", dt.String(), "integer")
		}
		n, ok := new(big.Int).SetString(lit.Value, 10)
		if !ok {
			return nil, qlerr.SyntaxError(lit.Position, "invalid integer %s", lit.describe())
		}
		v, err := value.FromBig(dt, n)
		if err != nil {
			return nil, qlerr.TypeMismatch("", dt.String(), err.Error())
		}
		return v, nil
	default:
		return nil, qlerr.SyntaxError(lit.Position, "expected literal, got %s", lit.describe())
	}
}
