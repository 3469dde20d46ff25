package compile

import "github.com/shipq/sequel/query"

// Result holds the output of compiling a descriptor to SQL.
type Result struct {
	// SQL is the compiled SQL string for the query.
	SQL string

	// ParamOrder contains the bind names in the order their markers appear in
	// the SQL. A name used twice appears twice.
	ParamOrder []string
}

// CompileResult creates a Result from a SQL string and param order.
func CompileResult(sql string, paramOrder []string) Result {
	return Result{
		SQL:        sql,
		ParamOrder: paramOrder,
	}
}

// Args builds the positional argument list for the native markers in SQL.
func (r Result) Args(binds map[string]any) ([]any, error) {
	if len(r.ParamOrder) == 0 {
		return nil, nil
	}
	args := make([]any, len(r.ParamOrder))
	for i, name := range r.ParamOrder {
		v, ok := binds[name]
		if !ok {
			return nil, query.NewValueError(query.MissingBindVariable, "bind", name, "no value bound for :%s", name)
		}
		args[i] = v
	}
	return args, nil
}
