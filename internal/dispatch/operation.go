package dispatch

import (
	"encoding/json"
	"fmt"
)

// Operation is the closed set of RPC operations.
type Operation int

const (
	OpUnknown Operation = iota
	OpRegisterUser
	OpLoginUser
	OpGetUser
	OpGetAllUsers
	OpGetBooks
	OpSearchCatalog
	OpSaveBook
	OpDeleteBook
)

var opNames = map[Operation]string{
	OpRegisterUser:  "registerUser",
	OpLoginUser:     "loginUser",
	OpGetUser:       "getUser",
	OpGetAllUsers:   "getAllUsers",
	OpGetBooks:      "getBooks",
	OpSearchCatalog: "searchCatalog",
	OpSaveBook:      "saveBook",
	OpDeleteBook:    "deleteBook",
}

var opByName = func() map[string]Operation {
	m := make(map[string]Operation, len(opNames))
	for op, name := range opNames {
		m[name] = op
	}
	return m
}()

func (o Operation) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Operation(%d)", int(o))
}

// Operations lists every known operation in declaration order.
func Operations() []Operation {
	return []Operation{
		OpRegisterUser, OpLoginUser, OpGetUser, OpGetAllUsers,
		OpGetBooks, OpSearchCatalog, OpSaveBook, OpDeleteBook,
	}
}

// ParseOperation maps a wire name to its Operation. Names are case-sensitive.
func ParseOperation(name string) (Operation, bool) {
	op, ok := opByName[name]
	return op, ok
}

func (o Operation) MarshalJSON() ([]byte, error) {
	if _, ok := opNames[o]; !ok {
		return nil, fmt.Errorf("dispatch: cannot marshal %s", o)
	}
	return json.Marshal(o.String())
}

func (o *Operation) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	op, ok := ParseOperation(name)
	if !ok {
		return &UnknownOperationError{Name: name}
	}
	*o = op
	return nil
}
