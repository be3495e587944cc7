package ir

import (
	"fmt"

	"github.com/janusql/compiler/compileerr"
	"github.com/janusql/compiler/edn"
	"github.com/janusql/compiler/plan"
)

// ParseQuery parses and grammar-validates a full `[:find ... :where
// ...]` query, per spec §4.1.
func ParseQuery(src string) (*Query, error) {
	root, err := edn.Parse(src)
	if err != nil {
		return nil, compileerr.Wrap(compileerr.KindGrammar, err, "malformed source text")
	}
	if root.Kind != edn.NodeVector {
		return nil, grammarErr("query must be a vector", root)
	}
	return parseQueryVector(root)
}

// ParseRuleSet parses and grammar-validates a `[[(name var...)
// clause...] ...]` rule set, per spec §4.1.
func ParseRuleSet(src string) (*RuleSet, error) {
	root, err := edn.Parse(src)
	if err != nil {
		return nil, compileerr.Wrap(compileerr.KindGrammar, err, "malformed source text")
	}
	if root.Kind != edn.NodeVector {
		return nil, grammarErr("rule set must be a vector", root)
	}
	if len(root.Children) == 0 {
		return nil, grammarErr("rule set must contain at least one rule", root)
	}

	rs := &RuleSet{}
	arities := map[string]int{}
	for _, defNode := range root.Children {
		def, err := parseRuleDef(defNode)
		if err != nil {
			return nil, err
		}
		if want, ok := arities[def.Head.Name]; ok {
			if want != len(def.Head.Vars) {
				return nil, grammarErr(fmt.Sprintf(
					"rule %q redefined with a different arity (%d vs %d)",
					def.Head.Name, want, len(def.Head.Vars)), defNode)
			}
		} else {
			arities[def.Head.Name] = len(def.Head.Vars)
		}
		rs.Defs = append(rs.Defs, def)
	}
	return rs, nil
}

func grammarErr(msg string, n edn.Node) error {
	return compileerr.New(compileerr.KindGrammar, msg,
		compileerr.F("pos", n.Pos()), compileerr.F("form", n.String()))
}

func parseQueryVector(node edn.Node) (*Query, error) {
	q := &Query{}
	i := 0
	sawWhere := false

	for i < len(node.Children) {
		kw := node.Children[i]
		if kw.Kind != edn.NodeKeyword {
			return nil, grammarErr("expected a keyword (:find, :in, :where, :order-by)", kw)
		}
		i++
		start := i
		for i < len(node.Children) && node.Children[i].Kind != edn.NodeKeyword {
			i++
		}
		section := node.Children[start:i]

		switch kw.Text {
		case "find":
			if len(section) == 0 {
				return nil, grammarErr(":find must be a non-empty sequence", kw)
			}
			for _, elemNode := range section {
				elem, err := parseFindElement(elemNode)
				if err != nil {
					return nil, err
				}
				q.Find = append(q.Find, elem)
			}
		case "in":
			if len(section) == 0 {
				return nil, grammarErr(":in must be a non-empty sequence when present", kw)
			}
			for _, elemNode := range section {
				v, err := parseVariableNode(elemNode)
				if err != nil {
					return nil, err
				}
				q.In = append(q.In, v)
			}
		case "where":
			sawWhere = true
			if len(section) == 0 {
				return nil, grammarErr(":where must be a non-empty sequence", kw)
			}
			for _, elemNode := range section {
				cl, err := parseClauseNode(elemNode)
				if err != nil {
					return nil, err
				}
				q.Where = append(q.Where, cl)
			}
		case "order-by":
			for _, elemNode := range section {
				ob, err := parseOrderByClause(elemNode)
				if err != nil {
					return nil, err
				}
				q.OrderBy = append(q.OrderBy, ob)
			}
		default:
			return nil, grammarErr(fmt.Sprintf("unknown query keyword :%s", kw.Text), kw)
		}
	}

	if len(q.Find) == 0 {
		return nil, grammarErr(":find is required", node)
	}
	if !sawWhere {
		return nil, grammarErr(":where is required", node)
	}
	return q, nil
}

func parseRuleDef(node edn.Node) (RuleDef, error) {
	if node.Kind != edn.NodeVector || len(node.Children) == 0 {
		return RuleDef{}, grammarErr("rule definition must be a vector `[(name var...) clause...]`", node)
	}
	headNode := node.Children[0]
	if headNode.Kind != edn.NodeList || len(headNode.Children) == 0 {
		return RuleDef{}, grammarErr("rule head must be a list `(name var...)`", headNode)
	}
	nameNode := headNode.Children[0]
	if nameNode.Kind != edn.NodeSymbol || Variable(nameNode.Text).IsVariable() {
		return RuleDef{}, grammarErr("rule head's first element must be a rule name, not a variable", nameNode)
	}
	head := RuleHead{Name: nameNode.Text}
	for _, vn := range headNode.Children[1:] {
		v, err := parseVariableNode(vn)
		if err != nil {
			return RuleDef{}, err
		}
		head.Vars = append(head.Vars, v)
	}
	if len(head.Vars) == 0 {
		return RuleDef{}, grammarErr("rule head must bind at least one variable", headNode)
	}

	def := RuleDef{Head: head}
	if len(node.Children) < 2 {
		return RuleDef{}, grammarErr("rule body must contain at least one clause", node)
	}
	for _, clNode := range node.Children[1:] {
		cl, err := parseClauseNode(clNode)
		if err != nil {
			return RuleDef{}, err
		}
		def.Clauses = append(def.Clauses, cl)
	}
	return def, nil
}

func parseVariableNode(n edn.Node) (Variable, error) {
	if n.Kind != edn.NodeSymbol {
		return "", grammarErr("expected a variable", n)
	}
	v := Variable(n.Text)
	if !v.IsVariable() {
		return "", grammarErr(fmt.Sprintf("expected a variable (leading '?'), got %q", n.Text), n)
	}
	return v, nil
}

func parseFindElement(n edn.Node) (FindElement, error) {
	switch n.Kind {
	case edn.NodeSymbol:
		v, err := parseVariableNode(n)
		if err != nil {
			return nil, err
		}
		return FindVar{Symbol: v}, nil
	case edn.NodeList:
		if len(n.Children) < 2 {
			return nil, grammarErr("aggregate must be `(fn var...)`", n)
		}
		fn := n.Children[0]
		if fn.Kind != edn.NodeSymbol {
			return nil, grammarErr("aggregate function name must be a symbol", fn)
		}
		agg := FindAggregate{Func: fn.Text}
		for _, argNode := range n.Children[1:] {
			arg, err := parseFnArg(argNode)
			if err != nil {
				return nil, err
			}
			agg.Args = append(agg.Args, arg)
		}
		return agg, nil
	default:
		return nil, grammarErr("find element must be a variable or an aggregate", n)
	}
}

func parseOrderByClause(n edn.Node) (OrderByClause, error) {
	switch n.Kind {
	case edn.NodeSymbol:
		v, err := parseVariableNode(n)
		if err != nil {
			return OrderByClause{}, err
		}
		return OrderByClause{Var: v, Direction: Asc}, nil
	case edn.NodeVector:
		if len(n.Children) != 2 {
			return OrderByClause{}, grammarErr("order-by pair must be `[var :asc|:desc]`", n)
		}
		v, err := parseVariableNode(n.Children[0])
		if err != nil {
			return OrderByClause{}, err
		}
		dirNode := n.Children[1]
		if dirNode.Kind != edn.NodeKeyword {
			return OrderByClause{}, grammarErr("order-by direction must be :asc or :desc", dirNode)
		}
		switch dirNode.Text {
		case "asc":
			return OrderByClause{Var: v, Direction: Asc}, nil
		case "desc":
			return OrderByClause{Var: v, Direction: Desc}, nil
		default:
			return OrderByClause{}, grammarErr("order-by direction must be :asc or :desc", dirNode)
		}
	default:
		return OrderByClause{}, grammarErr("order-by element must be a variable or [var direction]", n)
	}
}

// parseClauseNode dispatches on the node's shape: a vector is either a
// data pattern or a wrapped predicate `[(op args...)]`; a list is
// `(and|or|or-join|not ...)` or a rule invocation.
func parseClauseNode(n edn.Node) (Clause, error) {
	switch n.Kind {
	case edn.NodeVector:
		return parseVectorClause(n)
	case edn.NodeList:
		return parseListClause(n)
	default:
		return nil, grammarErr("where clause must be a vector or a list", n)
	}
}

func parseVectorClause(n edn.Node) (Clause, error) {
	if len(n.Children) == 1 && n.Children[0].Kind == edn.NodeList {
		inner := n.Children[0]
		if len(inner.Children) > 0 && inner.Children[0].Kind == edn.NodeSymbol {
			if _, isPredOp := predOps[inner.Children[0].Text]; !isPredOp {
				// Not a recognized comparison operator: treat the
				// wrapped form the same as a bare rule invocation.
				return parseListClause(inner)
			}
		}
		return parsePredExpr(inner)
	}
	if len(n.Children) != 3 {
		return nil, grammarErr("data pattern must have exactly 3 elements [e a v]", n)
	}
	e, a, v := n.Children[0], n.Children[1], n.Children[2]

	switch e.Kind {
	case edn.NodeNumber:
		eid, err := e.AsNumber()
		if err != nil {
			return nil, grammarErr("entity id must be an integer", e)
		}
		switch {
		case a.Kind == edn.NodeKeyword && isVariableNode(v):
			vv, _ := parseVariableNode(v)
			return LookupClause{Entity: eid, Attr: a.Text, Var: vv}, nil
		case isVariableNode(a) && isVariableNode(v):
			av, _ := parseVariableNode(a)
			vv, _ := parseVariableNode(v)
			return EntityClause{Entity: eid, AttrVar: av, ValVar: vv}, nil
		default:
			return nil, grammarErr("expected [eid :attr ?var] or [eid ?attr ?val]", n)
		}
	case edn.NodeSymbol:
		ev, err := parseVariableNode(e)
		if err != nil {
			return nil, err
		}
		if a.Kind != edn.NodeKeyword {
			return nil, grammarErr("attribute position must be a keyword when entity position is a variable", a)
		}
		if isVariableNode(v) {
			vv, _ := parseVariableNode(v)
			return HasAttrClause{EntityVar: ev, Attr: a.Text, ValVar: vv}, nil
		}
		val, err := parseValueNode(v)
		if err != nil {
			return nil, grammarErr("expected [?e :attr ?v] or [?e :attr value]", v)
		}
		return FilterClause{EntityVar: ev, Attr: a.Text, Value: val}, nil
	default:
		return nil, grammarErr("entity position must be an integer or a variable", e)
	}
}

func isVariableNode(n edn.Node) bool {
	return n.Kind == edn.NodeSymbol && Variable(n.Text).IsVariable()
}

func parseValueNode(n edn.Node) (Value, error) {
	switch n.Kind {
	case edn.NodeNumber:
		num, err := n.AsNumber()
		if err != nil {
			return Value{}, err
		}
		return NumberValue(num), nil
	case edn.NodeString:
		return StringValue(n.Text), nil
	case edn.NodeBool:
		return BoolValue(n.AsBool()), nil
	default:
		return Value{}, fmt.Errorf("not a constant value")
	}
}

func parseFnArg(n edn.Node) (FnArg, error) {
	if isVariableNode(n) {
		v, _ := parseVariableNode(n)
		return VarArg{Name: v}, nil
	}
	val, err := parseValueNode(n)
	if err != nil {
		return nil, grammarErr("predicate/rule argument must be a variable or a constant", n)
	}
	return ConstArg{Value: val}, nil
}

var predOps = map[string]plan.PredOp{
	"<":  plan.OpLT,
	"<=": plan.OpLTE,
	"≤":  plan.OpLTE,
	">":  plan.OpGT,
	">=": plan.OpGTE,
	"≥":  plan.OpGTE,
	"=":  plan.OpEQ,
	"!=": plan.OpNEQ,
	"≠":  plan.OpNEQ,
}

func parsePredExpr(n edn.Node) (Clause, error) {
	if len(n.Children) < 3 {
		return nil, grammarErr("predicate expression must be `(op arg arg)`", n)
	}
	opNode := n.Children[0]
	if opNode.Kind != edn.NodeSymbol {
		return nil, grammarErr("predicate operator must be a symbol", opNode)
	}
	op, ok := predOps[opNode.Text]
	if !ok {
		return nil, grammarErr(fmt.Sprintf("unknown predicate operator %q", opNode.Text), opNode)
	}
	pe := PredExprClause{Op: op}
	for _, argNode := range n.Children[1:] {
		arg, err := parseFnArg(argNode)
		if err != nil {
			return nil, err
		}
		pe.Args = append(pe.Args, arg)
	}
	return pe, nil
}

func parseListClause(n edn.Node) (Clause, error) {
	if len(n.Children) == 0 {
		return nil, grammarErr("clause list must not be empty", n)
	}
	head := n.Children[0]
	if head.Kind != edn.NodeSymbol {
		return nil, grammarErr("clause list must begin with a symbol", head)
	}

	switch head.Text {
	case "and":
		return parseSubClauses(n.Children[1:], func(cs []Clause) Clause { return AndClause{Clauses: cs} }, n, true)
	case "or":
		return parseSubClauses(n.Children[1:], func(cs []Clause) Clause { return OrClause{Clauses: cs} }, n, true)
	case "not":
		return parseSubClauses(n.Children[1:], func(cs []Clause) Clause { return NotClause{Clauses: cs} }, n, true)
	case "or-join":
		if len(n.Children) < 2 || n.Children[1].Kind != edn.NodeVector {
			return nil, grammarErr("or-join requires a projection vector `[var...]`", n)
		}
		projNode := n.Children[1]
		var proj []Variable
		for _, vn := range projNode.Children {
			v, err := parseVariableNode(vn)
			if err != nil {
				return nil, err
			}
			proj = append(proj, v)
		}
		if len(proj) == 0 {
			return nil, grammarErr("or-join projection must bind at least one variable", projNode)
		}
		body, err := parseClauseList(n.Children[2:])
		if err != nil {
			return nil, err
		}
		if len(body) == 0 {
			return nil, grammarErr("or-join requires at least one clause", n)
		}
		return OrJoinClause{Proj: proj, Clauses: body}, nil
	default:
		// Rule invocation: (rule-name fn-arg...)
		if Variable(head.Text).IsVariable() {
			return nil, grammarErr("rule name must not look like a variable", head)
		}
		re := RuleExprClause{Name: head.Text}
		for _, argNode := range n.Children[1:] {
			arg, err := parseFnArg(argNode)
			if err != nil {
				return nil, err
			}
			re.Args = append(re.Args, arg)
		}
		if len(re.Args) == 0 {
			return nil, grammarErr("rule invocation requires at least one argument", n)
		}
		return re, nil
	}
}

func parseSubClauses(nodes []edn.Node, build func([]Clause) Clause, parent edn.Node, requireNonEmpty bool) (Clause, error) {
	cs, err := parseClauseList(nodes)
	if err != nil {
		return nil, err
	}
	if requireNonEmpty && len(cs) == 0 {
		return nil, grammarErr("clause requires at least one nested clause", parent)
	}
	return build(cs), nil
}

func parseClauseList(nodes []edn.Node) ([]Clause, error) {
	var out []Clause
	for _, n := range nodes {
		cl, err := parseClauseNode(n)
		if err != nil {
			return nil, err
		}
		out = append(out, cl)
	}
	return out, nil
}
