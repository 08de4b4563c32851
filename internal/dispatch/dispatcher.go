package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"booksearch/internal/models"
	"booksearch/internal/service"
	"booksearch/internal/validation"

	"github.com/go-playground/validator/v10"
)

// Book listing scopes for getBooks.
const (
	ScopeGlobal = "global"
	ScopeUser   = "user"
)

// Options tune which operations need a caller identity.
type Options struct {
	BooksScope            string
	ListUsersRequiresAuth bool
}

// Request is the wire envelope of one RPC call.
type Request struct {
	Operation Operation       `json:"operation"`
	Args      json.RawMessage `json:"args"`
}

type handlerFunc func(ctx context.Context, authHeader string, args json.RawMessage) (any, error)

// Dispatcher routes a tagged operation to the service call that implements it.
type Dispatcher struct {
	svc      *service.Service
	validate *validator.Validate
	opts     Options
	routes   map[Operation]handlerFunc
}

func New(svc *service.Service, opts Options) *Dispatcher {
	if opts.BooksScope == "" {
		opts.BooksScope = ScopeGlobal
	}
	d := &Dispatcher{svc: svc, validate: validation.New(), opts: opts}
	d.routes = map[Operation]handlerFunc{
		OpRegisterUser:  d.registerUser,
		OpLoginUser:     d.loginUser,
		OpGetUser:       d.getUser,
		OpGetAllUsers:   d.getAllUsers,
		OpGetBooks:      d.getBooks,
		OpSearchCatalog: d.searchCatalog,
		OpSaveBook:      d.saveBook,
		OpDeleteBook:    d.deleteBook,
	}
	return d
}

// RequiresAuth reports whether op needs a bearer token under the current options.
func (d *Dispatcher) RequiresAuth(op Operation) bool {
	switch op {
	case OpGetUser, OpSaveBook, OpDeleteBook:
		return true
	case OpGetAllUsers:
		return d.opts.ListUsersRequiresAuth
	case OpGetBooks:
		return d.opts.BooksScope == ScopeUser
	default:
		return false
	}
}

// Dispatch runs op with the raw JSON args. authHeader is the verbatim
// Authorization header value, possibly empty.
func (d *Dispatcher) Dispatch(ctx context.Context, op Operation, authHeader string, args json.RawMessage) (any, error) {
	h, ok := d.routes[op]
	if !ok {
		return nil, &UnknownOperationError{Name: op.String()}
	}
	return h(ctx, authHeader, args)
}

// decode fills dst from raw, rejecting unknown fields, then validates it.
// Absent or null args decode to the zero value.
func (d *Dispatcher) decode(op Operation, raw json.RawMessage, dst any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(dst); err != nil {
			return &ArgsError{Op: op, Err: err}
		}
	}
	if err := d.validate.Struct(dst); err != nil {
		return &ArgsError{Op: op, Err: err}
	}
	return nil
}

func (d *Dispatcher) registerUser(ctx context.Context, _ string, raw json.RawMessage) (any, error) {
	var a registerUserArgs
	if err := d.decode(OpRegisterUser, raw, &a); err != nil {
		return nil, err
	}
	return d.svc.Register(ctx, service.RegisterInput{Username: a.Username, Email: a.Email, Password: a.Password})
}

func (d *Dispatcher) loginUser(ctx context.Context, _ string, raw json.RawMessage) (any, error) {
	var a loginUserArgs
	if err := d.decode(OpLoginUser, raw, &a); err != nil {
		return nil, err
	}
	return d.svc.Login(ctx, service.LoginInput{Email: a.Email, Password: a.Password})
}

func (d *Dispatcher) getUser(ctx context.Context, header string, raw json.RawMessage) (any, error) {
	caller, err := d.svc.Resolve(header)
	if err != nil {
		return nil, err
	}
	var a getUserArgs
	if err := d.decode(OpGetUser, raw, &a); err != nil {
		return nil, err
	}
	u, err := d.svc.FindUser(ctx, caller, service.UserQuery{ID: a.ID, Username: a.Username})
	if err != nil {
		return nil, err
	}
	return u.View(), nil
}

func (d *Dispatcher) getAllUsers(ctx context.Context, header string, raw json.RawMessage) (any, error) {
	if d.RequiresAuth(OpGetAllUsers) {
		if _, err := d.svc.Resolve(header); err != nil {
			return nil, err
		}
	}
	if err := d.decode(OpGetAllUsers, raw, &noArgs{}); err != nil {
		return nil, err
	}
	users, err := d.svc.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]models.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, u.View())
	}
	return views, nil
}

func (d *Dispatcher) getBooks(ctx context.Context, header string, raw json.RawMessage) (any, error) {
	var caller models.Identity
	if d.RequiresAuth(OpGetBooks) {
		var err error
		if caller, err = d.svc.Resolve(header); err != nil {
			return nil, err
		}
	}
	if err := d.decode(OpGetBooks, raw, &noArgs{}); err != nil {
		return nil, err
	}
	if d.opts.BooksScope == ScopeUser {
		return d.svc.UserBooks(ctx, caller.UserID)
	}
	return d.svc.CollectBooks(ctx)
}

func (d *Dispatcher) searchCatalog(ctx context.Context, _ string, raw json.RawMessage) (any, error) {
	var a searchCatalogArgs
	if err := d.decode(OpSearchCatalog, raw, &a); err != nil {
		return nil, err
	}
	return d.svc.Search(ctx, a.Query)
}

func (d *Dispatcher) saveBook(ctx context.Context, header string, raw json.RawMessage) (any, error) {
	caller, err := d.svc.Resolve(header)
	if err != nil {
		return nil, err
	}
	var a saveBookArgs
	if err := d.decode(OpSaveBook, raw, &a); err != nil {
		return nil, err
	}
	if a.UserID != "" && a.UserID != caller.UserID {
		return nil, fmt.Errorf("%w: userId does not match token", service.ErrForbidden)
	}
	u, err := d.svc.AddBook(ctx, caller.UserID, a.Book)
	if err != nil {
		return nil, err
	}
	return u.View(), nil
}

func (d *Dispatcher) deleteBook(ctx context.Context, header string, raw json.RawMessage) (any, error) {
	caller, err := d.svc.Resolve(header)
	if err != nil {
		return nil, err
	}
	var a deleteBookArgs
	if err := d.decode(OpDeleteBook, raw, &a); err != nil {
		return nil, err
	}
	u, err := d.svc.RemoveBook(ctx, caller.UserID, a.BookID)
	if err != nil {
		return nil, err
	}
	return u.View(), nil
}
