package querymodel

// Walk visits e and its sub-expressions depth-first, parents before
// children. Returning false skips the children. Subquery models are not
// entered.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch x := e.(type) {
	case *Member:
		Walk(x.Expr, fn)
	case *MethodCall:
		Walk(x.Object, fn)
		for _, a := range x.Args {
			Walk(a, fn)
		}
	case *Binary:
		Walk(x.Left, fn)
		Walk(x.Right, fn)
	case *Unary:
		Walk(x.Operand, fn)
	case *Conditional:
		Walk(x.Test, fn)
		Walk(x.IfTrue, fn)
		Walk(x.IfFalse, fn)
	case *New:
		for _, a := range x.Args {
			Walk(a, fn)
		}
	case *NewArray:
		for _, a := range x.Elements {
			Walk(a, fn)
		}
	}
}
