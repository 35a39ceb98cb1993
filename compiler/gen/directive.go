package gen

import (
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"log/slog"
	"reflect"
	"regexp/syntax"
	"strconv"
	"strings"

	"github.com/syssam/arbgen/compiler/load"
)

// DirectiveKind identifies the kind of a directive.
type DirectiveKind uint8

// Directive kinds.
const (
	DirDerive DirectiveKind = iota + 1
	DirSkip
	DirFixed
	DirCustom
	DirFilter
	DirWeight
	DirRegex
	DirNoBound
	DirRange
	DirDepth
	DirVariants
)

var kindNames = map[DirectiveKind]string{
	DirDerive:   "derive",
	DirSkip:     "skip",
	DirFixed:    "value",
	DirCustom:   "gen",
	DirFilter:   "filter",
	DirWeight:   "weight",
	DirRegex:    "regex",
	DirNoBound:  "nobound",
	DirRange:    "min/max",
	DirDepth:    "depth",
	DirVariants: "variants",
}

// String returns the directive name as written in source.
func (k DirectiveKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("DirectiveKind(%d)", int(k))
}

// Directive is a parsed annotation. The concrete types below are the only
// implementations.
type Directive interface {
	Kind() DirectiveKind
}

type (
	// Derive marks a declaration for derivation.
	Derive struct{}

	// Skip leaves a field at its zero value.
	Skip struct{}

	// Fixed assigns a field the same expression on every generation.
	Fixed struct{ Expr string }

	// Custom draws a field from a user supplied generator expression.
	Custom struct{ Expr string }

	// Filter rejects values for which the predicate expression returns false.
	Filter struct{ Pred string }

	// Weight is the relative selection weight of a union variant.
	Weight struct{ N int }

	// Regex constrains text fields to a regular expression.
	Regex struct{ Pattern string }

	// NoBound lists type parameters that take no generator argument.
	NoBound struct{ Params []string }

	// Range bounds numeric values or text, slice and map lengths.
	Range struct{ Min, Max *Bound }

	// Depth overrides the recursion budget of a type, or caps the remaining
	// budget below a field.
	Depth struct{ N int }

	// Variants lists union variants explicitly, in selection order.
	Variants struct{ Names []string }
)

// Bound is one side of a Range.
type Bound struct {
	Text  string
	Value float64
	Int   bool
}

func (Derive) Kind() DirectiveKind   { return DirDerive }
func (Skip) Kind() DirectiveKind     { return DirSkip }
func (Fixed) Kind() DirectiveKind    { return DirFixed }
func (Custom) Kind() DirectiveKind   { return DirCustom }
func (Filter) Kind() DirectiveKind   { return DirFilter }
func (Weight) Kind() DirectiveKind   { return DirWeight }
func (Regex) Kind() DirectiveKind    { return DirRegex }
func (NoBound) Kind() DirectiveKind  { return DirNoBound }
func (Range) Kind() DirectiveKind    { return DirRange }
func (Depth) Kind() DirectiveKind    { return DirDepth }
func (Variants) Kind() DirectiveKind { return DirVariants }

// DirectiveSet holds the directives of one item, at most one per kind, in
// the order they were written.
type DirectiveSet struct {
	kinds []DirectiveKind
	items map[DirectiveKind]Directive
}

func newDirectiveSet() *DirectiveSet {
	return &DirectiveSet{items: make(map[DirectiveKind]Directive)}
}

// put stores d and reports false if its kind is already present.
func (s *DirectiveSet) put(d Directive) bool {
	if _, ok := s.items[d.Kind()]; ok {
		return false
	}
	s.kinds = append(s.kinds, d.Kind())
	s.items[d.Kind()] = d
	return true
}

// Get returns the directive of the given kind.
func (s *DirectiveSet) Get(k DirectiveKind) (Directive, bool) {
	if s == nil {
		return nil, false
	}
	d, ok := s.items[k]
	return d, ok
}

// Has reports whether a directive of the given kind is present.
func (s *DirectiveSet) Has(k DirectiveKind) bool {
	_, ok := s.Get(k)
	return ok
}

// Kinds returns the kinds present, in source order.
func (s *DirectiveSet) Kinds() []DirectiveKind {
	if s == nil {
		return nil
	}
	return s.kinds
}

// Len returns the number of directives in the set.
func (s *DirectiveSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.kinds)
}

func get[D Directive](s *DirectiveSet, k DirectiveKind) (D, bool) {
	d, ok := s.Get(k)
	if !ok {
		var zero D
		return zero, false
	}
	v, ok := d.(D)
	return v, ok
}

// Fixed returns the fixed value expression.
func (s *DirectiveSet) Fixed() (string, bool) {
	d, ok := get[Fixed](s, DirFixed)
	return d.Expr, ok
}

// Custom returns the custom generator expression.
func (s *DirectiveSet) Custom() (string, bool) {
	d, ok := get[Custom](s, DirCustom)
	return d.Expr, ok
}

// Filter returns the filter predicate expression.
func (s *DirectiveSet) Filter() (string, bool) {
	d, ok := get[Filter](s, DirFilter)
	return d.Pred, ok
}

// Weight returns the variant weight.
func (s *DirectiveSet) Weight() (int, bool) {
	d, ok := get[Weight](s, DirWeight)
	return d.N, ok
}

// Regex returns the text pattern.
func (s *DirectiveSet) Regex() (string, bool) {
	d, ok := get[Regex](s, DirRegex)
	return d.Pattern, ok
}

// Range returns the numeric or length bounds.
func (s *DirectiveSet) Range() (Range, bool) {
	return get[Range](s, DirRange)
}

// Depth returns the recursion budget override.
func (s *DirectiveSet) Depth() (int, bool) {
	d, ok := get[Depth](s, DirDepth)
	return d.N, ok
}

// NoBound returns the unbound type parameter names.
func (s *DirectiveSet) NoBound() []string {
	d, _ := get[NoBound](s, DirNoBound)
	return d.Params
}

// Variants returns the explicit variant list.
func (s *DirectiveSet) Variants() ([]string, bool) {
	d, ok := get[Variants](s, DirVariants)
	return d.Names, ok
}

type placement uint8

const (
	placeType placement = iota + 1
	placeField
)

func (p placement) String() string {
	if p == placeField {
		return "field"
	}
	return "type"
}

var allowed = map[placement]map[DirectiveKind]bool{
	placeType: {
		DirDerive:   true,
		DirWeight:   true,
		DirDepth:    true,
		DirNoBound:  true,
		DirVariants: true,
	},
	placeField: {
		DirSkip:   true,
		DirFixed:  true,
		DirCustom: true,
		DirFilter: true,
		DirWeight: true,
		DirRegex:  true,
		DirRange:  true,
		DirDepth:  true,
	},
}

// exclusive lists the kinds that cannot be attached to the same item.
var exclusive = [][2]DirectiveKind{
	{DirSkip, DirFixed},
	{DirSkip, DirCustom},
	{DirFixed, DirCustom},
	{DirRegex, DirSkip},
	{DirRegex, DirFixed},
	{DirRegex, DirCustom},
	{DirRegex, DirRange},
	{DirRange, DirSkip},
	{DirRange, DirFixed},
	{DirRange, DirCustom},
	{DirFilter, DirSkip},
	{DirFilter, DirFixed},
}

// interpreter turns raw directive lines and struct tags into directive sets.
type interpreter struct {
	key string
	log *slog.Logger
}

func newInterpreter(key string, log *slog.Logger) *interpreter {
	return &interpreter{key: key, log: log}
}

// item parses the doc-comment directives of a type or union variant.
func (in *interpreter) item(item string, raw []*load.Directive) (*DirectiveSet, error) {
	set := newDirectiveSet()
	for _, r := range raw {
		text := strings.TrimPrefix(r.Text, in.key+":")
		name, payload := text, ""
		if i := strings.IndexAny(text, " \t="); i >= 0 {
			name, payload = text[:i], strings.TrimSpace(text[i+1:])
		}
		if err := in.add(set, item, name, payload, r.Pos, placeType); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// field parses the struct tag of a field.
func (in *interpreter) field(item string, f *load.Field) (*DirectiveSet, error) {
	set := newDirectiveSet()
	tag, ok := reflect.StructTag(f.Tag).Lookup(in.key)
	if !ok {
		return set, nil
	}
	entries, err := splitTag(tag)
	if err != nil {
		return nil, NewDirectiveError(item, "", f.Pos, "malformed tag", err)
	}
	for _, e := range entries {
		name, payload, _ := strings.Cut(e, "=")
		if err := in.add(set, item, strings.TrimSpace(name), unquote(strings.TrimSpace(payload)), f.Pos, placeField); err != nil {
			return nil, err
		}
	}
	if set.Has(DirWeight) {
		in.log.Warn("weight has no effect on a field", "item", item, "pos", f.Pos)
	}
	return set, nil
}

func (in *interpreter) add(set *DirectiveSet, item, name, payload, pos string, place placement) error {
	d, err := parseDirective(name, payload)
	if err != nil {
		var unknown *unknownError
		if errors.As(err, &unknown) {
			return NewDirectiveError(item, name, pos, "unknown directive", nil)
		}
		return NewDirectiveError(item, name, pos, "invalid payload", err)
	}
	if !allowed[place][d.Kind()] {
		return NewDirectiveError(item, name, pos, "not allowed on a "+place.String(), nil)
	}
	if r, ok := d.(Range); ok {
		return addRange(set, r, item, name, pos)
	}
	if !set.put(d) {
		return NewDirectiveError(item, name, pos, "duplicate directive", nil)
	}
	return checkConflicts(set, item, pos)
}

// addRange merges min and max into a single Range directive.
func addRange(set *DirectiveSet, r Range, item, name, pos string) error {
	cur, ok := set.Range()
	if !ok {
		set.put(r)
		return checkConflicts(set, item, pos)
	}
	if (r.Min != nil && cur.Min != nil) || (r.Max != nil && cur.Max != nil) {
		return NewDirectiveError(item, name, pos, "duplicate directive", nil)
	}
	if r.Min != nil {
		cur.Min = r.Min
	}
	if r.Max != nil {
		cur.Max = r.Max
	}
	if cur.Min.Value > cur.Max.Value {
		return NewDirectiveError(item, name, pos, fmt.Sprintf("min %s is greater than max %s", cur.Min.Text, cur.Max.Text), nil)
	}
	set.items[DirRange] = cur
	return nil
}

func checkConflicts(set *DirectiveSet, item, pos string) error {
	for _, pair := range exclusive {
		if set.Has(pair[0]) && set.Has(pair[1]) {
			// Report the directive written last.
			first, second := pair[0], pair[1]
			for _, k := range set.Kinds() {
				if k == pair[1] {
					first, second = pair[1], pair[0]
					break
				}
				if k == pair[0] {
					break
				}
			}
			return NewDirectiveError(item, second.String(), pos, "conflicts with "+first.String(), nil)
		}
	}
	return nil
}

type unknownError struct{ name string }

func (e *unknownError) Error() string { return "unknown directive " + strconv.Quote(e.name) }

// parseDirective validates the payload of a single directive.
func parseDirective(name, payload string) (Directive, error) {
	switch name {
	case "derive":
		return Derive{}, noPayload(payload)
	case "skip":
		return Skip{}, noPayload(payload)
	case "value":
		expr, err := parseExpr(payload)
		return Fixed{Expr: expr}, err
	case "gen":
		expr, err := parseExpr(payload)
		return Custom{Expr: expr}, err
	case "filter":
		expr, err := parseExpr(payload)
		return Filter{Pred: expr}, err
	case "weight":
		n, err := parseCount(payload, 0)
		return Weight{N: n}, err
	case "depth":
		n, err := parseCount(payload, 1)
		return Depth{N: n}, err
	case "regex":
		if payload == "" {
			return nil, errors.New("missing pattern")
		}
		if _, err := syntax.Parse(payload, syntax.Perl); err != nil {
			return nil, err
		}
		return Regex{Pattern: payload}, nil
	case "min", "max":
		b, err := parseBound(payload)
		if err != nil {
			return nil, err
		}
		if name == "min" {
			return Range{Min: b}, nil
		}
		return Range{Max: b}, nil
	case "nobound":
		names, err := parseIdents(payload)
		return NoBound{Params: names}, err
	case "variants":
		names, err := parseIdents(payload)
		return Variants{Names: names}, err
	default:
		return nil, &unknownError{name: name}
	}
}

func noPayload(payload string) error {
	if payload != "" {
		return fmt.Errorf("unexpected payload %q", payload)
	}
	return nil
}

func parseExpr(payload string) (string, error) {
	if payload == "" {
		return "", errors.New("missing expression")
	}
	if _, err := parser.ParseExpr(payload); err != nil {
		return "", err
	}
	return payload, nil
}

func parseCount(payload string, lowest int) (int, error) {
	n, err := strconv.Atoi(payload)
	if err != nil {
		return 0, err
	}
	if n < lowest {
		return 0, fmt.Errorf("%d is less than %d", n, lowest)
	}
	return n, nil
}

func parseBound(payload string) (*Bound, error) {
	if i, err := strconv.ParseInt(payload, 10, 64); err == nil {
		return &Bound{Text: payload, Value: float64(i), Int: true}, nil
	}
	f, err := strconv.ParseFloat(payload, 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", payload)
	}
	return &Bound{Text: payload, Value: f}, nil
}

func parseIdents(payload string) ([]string, error) {
	var names []string
	for _, s := range strings.Split(payload, ",") {
		s = strings.TrimSpace(s)
		if !token.IsIdentifier(s) {
			return nil, fmt.Errorf("%q is not an identifier", s)
		}
		names = append(names, s)
	}
	return names, nil
}

// splitTag splits a tag value on semicolons that are not nested in
// brackets or quotes.
func splitTag(tag string) ([]string, error) {
	var (
		entries []string
		stack   []rune
		quote   rune
		start   int
	)
	for i := 0; i < len(tag); i++ {
		c := rune(tag[i])
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
		case '(', '[', '{':
			stack = append(stack, c)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != opening[c] {
				return nil, fmt.Errorf("unbalanced %q at offset %d", c, i)
			}
			stack = stack[:len(stack)-1]
		case ';':
			if len(stack) == 0 {
				entries = appendEntry(entries, tag[start:i])
				start = i + 1
			}
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %q quote", quote)
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("unclosed %q", stack[len(stack)-1])
	}
	return appendEntry(entries, tag[start:]), nil
}

var opening = map[rune]rune{')': '(', ']': '[', '}': '{'}

func appendEntry(entries []string, e string) []string {
	if e = strings.TrimSpace(e); e != "" {
		entries = append(entries, e)
	}
	return entries
}

// unquote removes single quotes protecting a payload. A payload that is a
// valid rune literal is kept as written.
func unquote(payload string) string {
	if len(payload) < 2 || payload[0] != '\'' || payload[len(payload)-1] != '\'' {
		return payload
	}
	if _, err := strconv.Unquote(payload); err == nil {
		return payload
	}
	return payload[1 : len(payload)-1]
}
