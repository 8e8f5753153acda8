package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrMalformedBody is returned when a body is not a JSON object.
var ErrMalformedBody = errors.New("malformed JSON body")

// Decoded is embedded in every request type. It carries the fields whose
// submitted JSON value had the wrong type, so that Collect reports them
// alongside the tag rules.
type Decoded struct {
	typeErrors Errors
}

// DecodeErrors returns the type mismatches found while decoding.
func (d Decoded) DecodeErrors() Errors {
	return d.typeErrors
}

func (d *Decoded) setDecodeErrors(errs Errors) {
	d.typeErrors = errs
}

// Request is implemented by pointers to the request types of this package.
type Request interface {
	setDecodeErrors(Errors)
}

type decodeErrorer interface {
	DecodeErrors() Errors
}

// DecodeJSON decodes a JSON object into out one field at a time. A field with
// a value of the wrong type is left unset and recorded instead of failing the
// whole body. An empty body decodes to the zero request.
func DecodeJSON(body []byte, out Request) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}

	rv := reflect.ValueOf(out).Elem()
	rt := rv.Type()
	errs := Errors{}
	for i := 0; i < rt.NumField(); i++ {
		fld := rt.Field(i)
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if fld.PkgPath != "" || name == "" || name == "-" {
			continue
		}
		value, ok := raw[name]
		if !ok {
			continue
		}

		target := reflect.New(fld.Type)
		if err := json.Unmarshal(value, target.Interface()); err != nil {
			var typeErr *json.UnmarshalTypeError
			if !errors.As(err, &typeErr) {
				return fmt.Errorf("%w: %v", ErrMalformedBody, err)
			}
			errs.Add(name, typeMessage(name, fld.Type))
			continue
		}
		rv.Field(i).Set(target.Elem())
	}

	if len(errs) > 0 {
		out.setDecodeErrors(errs)
	}
	return nil
}

func typeMessage(field string, t reflect.Type) string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() == reflect.String {
		return fmt.Sprintf("The %s field must be a string.", Attribute(field))
	}
	return fmt.Sprintf("The %s field is invalid.", Attribute(field))
}
