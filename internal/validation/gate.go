// Package validation decodes and checks path params, query strings and JSON
// bodies before a handler runs. Every violation of a request is reported at
// once in a single VALIDATION_FAILED error.
package validation

import (
	"bytes"
	"io"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/talkincode/toughledger/internal/apperr"
)

// None marks an absent request part.
type None struct{}

// Request is the typed input of an operation.
type Request[P, Q, B any] struct {
	Params P
	Query  Q
	Body   B
}

// Gate holds the rule engine shared by every route.
type Gate struct {
	validate *validator.Validate
	json     jsoniter.API
	now      func() time.Time
}

func NewGate() *Gate {
	g := &Gate{
		json: jsoniter.ConfigCompatibleWithStandardLibrary,
		now:  time.Now,
	}

	v := validator.New()
	v.RegisterTagNameFunc(fieldName)
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(Date); ok {
			return d.Time
		}
		return nil
	}, Date{})
	if err := v.RegisterValidation("notfuture", g.notFuture); err != nil {
		panic(err)
	}
	g.validate = v
	return g
}

// WithClock replaces the time source used by notfuture.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// Validate implements echo.Validator.
func (g *Gate) Validate(i interface{}) error {
	if violations := g.check(i, nil); len(violations) > 0 {
		return apperr.NewValidationFailed("Validation failed", violations)
	}
	return nil
}

func (g *Gate) notFuture(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return !t.After(g.now())
}

// Handle wraps fn so it only runs with a fully decoded and valid request.
func Handle[P, Q, B any](g *Gate, fn func(echo.Context, *Request[P, Q, B]) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		req, err := Bind[P, Q, B](g, c)
		if err != nil {
			return err
		}
		return fn(c, req)
	}
}

// Bind decodes params, query and body of c and checks them against the
// validate tags of P, Q and B.
func Bind[P, Q, B any](g *Gate, c echo.Context) (*Request[P, Q, B], error) {
	req := new(Request[P, Q, B])

	params := make(map[string]string, len(c.ParamNames()))
	values := c.ParamValues()
	for i, name := range c.ParamNames() {
		if i < len(values) {
			params[name] = values[i]
		}
	}
	query := make(map[string]string)
	for key, vals := range c.QueryParams() {
		if len(vals) > 0 {
			query[key] = vals[0]
		}
	}

	var violations []apperr.Violation

	paramViolations, paramFailed := g.decodeValues(&req.Params, "param", params, true)
	violations = append(violations, paramViolations...)

	queryViolations, queryFailed := g.decodeValues(&req.Query, "query", query, false)
	violations = append(violations, queryViolations...)

	bodyFailed := map[string]bool{}
	if _, absent := any(req.Body).(None); !absent {
		var bodyViolations []apperr.Violation
		bodyViolations, bodyFailed = g.decodeBody(c.Request().Body, &req.Body)
		violations = append(violations, bodyViolations...)
	}

	violations = append(violations, g.check(req.Params, paramFailed)...)
	violations = append(violations, g.check(req.Query, queryFailed)...)
	if !bodyFailed["body"] {
		violations = append(violations, g.check(req.Body, bodyFailed)...)
	}

	if len(violations) > 0 {
		return nil, apperr.NewValidationFailed("Validation failed", violations)
	}
	return req, nil
}

// decodeValues fills target from string values one key at a time so that
// each bad key yields its own violation. Unknown keys are violations when
// strict, ignored otherwise.
func (g *Gate) decodeValues(target interface{}, tag string, values map[string]string, strict bool) ([]apperr.Violation, map[string]bool) {
	var violations []apperr.Violation
	failed := map[string]bool{}
	rt := reflect.TypeOf(target).Elem()

	for _, key := range sortedKeys(values) {
		field, ok := fieldByTag(rt, tag, key)
		if !ok {
			if strict {
				violations = append(violations, apperr.Violation{Field: key, Reason: "unexpected field"})
				failed[key] = true
			}
			continue
		}

		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName:          tag,
			WeaklyTypedInput: true,
			DecodeHook:       stringToDateHook,
			Result:           target,
		})
		if err != nil {
			panic(errors.Wrap(err, "build decoder"))
		}
		if err := dec.Decode(map[string]interface{}{key: values[key]}); err != nil {
			violations = append(violations, apperr.Violation{Field: key, Reason: typeReason(field.Type)})
			failed[key] = true
		}
	}
	return violations, failed
}

// decodeBody reads a JSON object into target field by field.
func (g *Gate) decodeBody(body io.Reader, target interface{}) ([]apperr.Violation, map[string]bool) {
	failed := map[string]bool{}
	notObject := func() ([]apperr.Violation, map[string]bool) {
		failed["body"] = true
		return []apperr.Violation{{Field: "body", Reason: "must be a JSON object"}}, failed
	}

	var data []byte
	if body != nil {
		var err error
		if data, err = io.ReadAll(body); err != nil {
			return notObject()
		}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		data = []byte("{}")
	}

	var fields map[string]jsoniter.RawMessage
	if err := g.json.Unmarshal(data, &fields); err != nil || fields == nil {
		return notObject()
	}

	var violations []apperr.Violation
	rv := reflect.ValueOf(target).Elem()
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		field, ok := fieldByTag(rv.Type(), "json", key)
		if !ok {
			violations = append(violations, apperr.Violation{Field: key, Reason: "unexpected field"})
			failed[key] = true
			continue
		}
		dst := rv.FieldByIndex(field.Index).Addr().Interface()
		if err := g.json.Unmarshal(fields[key], dst); err != nil {
			violations = append(violations, apperr.Violation{Field: key, Reason: typeReason(field.Type)})
			failed[key] = true
		}
	}
	return violations, failed
}

// check runs the validate tags of v, skipping fields that already failed to decode.
func (g *Gate) check(v interface{}, failed map[string]bool) []apperr.Violation {
	err := g.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []apperr.Violation{{Field: "", Reason: err.Error()}}
	}

	var violations []apperr.Violation
	for _, fe := range fieldErrors {
		if failed[fe.Field()] {
			continue
		}
		violations = append(violations, apperr.Violation{Field: fe.Field(), Reason: reasonFor(fe)})
	}
	return violations
}

// fieldName reports a field under the name clients use for it.
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "query", "param"} {
		name := tagName(fld, tag)
		if name == "-" {
			return "-"
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

func tagName(fld reflect.StructField, tag string) string {
	name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
	return name
}

func fieldByTag(rt reflect.Type, tag, key string) (reflect.StructField, bool) {
	if rt.Kind() != reflect.Struct {
		return reflect.StructField{}, false
	}
	for i := 0; i < rt.NumField(); i++ {
		fld := rt.Field(i)
		if !fld.IsExported() {
			continue
		}
		if name := tagName(fld, tag); name != "" && name != "-" && name == key {
			return fld, true
		}
	}
	return reflect.StructField{}, false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
