package apperr

// Result is the envelope every presentation layer returns:
// {"success": true, "data": ...} or {"success": false, "error": "..."}.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// Wrap turns an operation's return values into a Result.
func Wrap[T any](data T, err error) Result[T] {
	if err != nil {
		return Fail[T](err)
	}
	return Result[T]{Success: true, Data: data}
}

func Fail[T any](err error) Result[T] {
	return Result[T]{Error: Message(err), Kind: KindOf(err).String()}
}
