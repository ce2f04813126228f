package port

// QueryValidator decides whether a statement may run on a connection.
type QueryValidator interface {
	Validate(sql string) error
}

// ValidatorFunc adapts a plain function to QueryValidator.
type ValidatorFunc func(sql string) error

func (f ValidatorFunc) Validate(sql string) error { return f(sql) }
