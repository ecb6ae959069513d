package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/roach88/covert/internal/value"
)

var jsonAPI = jsoniter.Config{UseNumber: true}.Froze()

// parseJSON walks the document with a streaming iterator so object keys
// keep their document order.
func parseJSON(data []byte, name string) (value.Value, error) {
	iter := jsoniter.ParseBytes(jsonAPI, data)
	if iter.WhatIsNext() == jsoniter.InvalidValue {
		return nil, &LoadError{Code: ErrCodeSyntax, File: name, Message: "empty or invalid document"}
	}

	v, err := readJSON(iter, "")
	if err != nil {
		return nil, withFile(err, name)
	}
	if iter.Error != nil && !errors.Is(iter.Error, io.EOF) {
		return nil, &LoadError{Code: ErrCodeSyntax, File: name, Message: iter.Error.Error()}
	}
	if iter.Error == nil {
		// Anything but end of input after the value is trailing data.
		if iter.WhatIsNext() != jsoniter.InvalidValue || !errors.Is(iter.Error, io.EOF) {
			return nil, &LoadError{Code: ErrCodeSyntax, File: name, Message: "trailing data after document"}
		}
	}
	return v, nil
}

func readJSON(iter *jsoniter.Iterator, path string) (value.Value, error) {
	switch iter.WhatIsNext() {
	case jsoniter.ObjectValue:
		obj := value.NewObject()
		var err error
		iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
			var v value.Value
			if v, err = readJSON(it, value.ConcatPath(path, key)); err != nil {
				return false
			}
			if err = obj.Put(key, v); err != nil {
				return false
			}
			return true
		})
		return obj, err

	case jsoniter.ArrayValue:
		arr := value.NewArray()
		var err error
		iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			var v value.Value
			if v, err = readJSON(it, value.ConcatPath(path, strconv.Itoa(arr.Len()))); err != nil {
				return false
			}
			arr.Push(v)
			return true
		})
		return arr, err

	case jsoniter.StringValue:
		return value.String(iter.ReadString()), nil
	case jsoniter.NumberValue:
		return parseNumber(iter.ReadNumber(), path)
	case jsoniter.BoolValue:
		return value.Bool(iter.ReadBool()), nil
	case jsoniter.NilValue:
		iter.ReadNil()
		return value.Null{}, nil
	}

	if iter.Error != nil && !errors.Is(iter.Error, io.EOF) {
		return nil, &LoadError{Code: ErrCodeSyntax, Path: path, Message: iter.Error.Error()}
	}
	return nil, &LoadError{Code: ErrCodeSyntax, Path: path, Message: "unexpected token"}
}

func parseNumber(n json.Number, path string) (value.Value, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return value.Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil, &LoadError{Code: ErrCodeSyntax, Path: path, Message: fmt.Sprintf("invalid number %q", s)}
	}
	return value.Float(f), nil
}

// withFile fills in the file name of a LoadError raised below the root.
func withFile(err error, name string) error {
	var le *LoadError
	if errors.As(err, &le) && le.File == "" {
		le.File = name
	}
	return err
}
