package loader

import (
	"fmt"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/covert/internal/value"
)

// parseCUE compiles a single CUE file and exports its concrete value.
func parseCUE(data []byte, name string) (value.Value, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, cueLoadError(ErrCodeSyntax, name, err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError(ErrCodeIncomplete, name, err)
	}
	return exportCUE(v, name, "")
}

func exportCUE(v cue.Value, name, path string) (value.Value, error) {
	switch v.Kind() {
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, cueLoadError(ErrCodeSyntax, name, err)
		}
		obj := value.NewObject()
		for iter.Next() {
			key := iter.Selector().Unquoted()
			child, err := exportCUE(iter.Value(), name, value.ConcatPath(path, key))
			if err != nil {
				return nil, err
			}
			if err := obj.Put(key, child); err != nil {
				return nil, &LoadError{Code: ErrCodeUnsupported, File: name, Path: path, Message: err.Error()}
			}
		}
		return obj, nil

	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, cueLoadError(ErrCodeSyntax, name, err)
		}
		arr := value.NewArray()
		for iter.Next() {
			child, err := exportCUE(iter.Value(), name, value.ConcatPath(path, strconv.Itoa(arr.Len())))
			if err != nil {
				return nil, err
			}
			arr.Push(child)
		}
		return arr, nil

	case cue.IntKind:
		if i, err := v.Int64(); err == nil {
			return value.Int(i), nil
		}
		b, err := v.Int(nil)
		if err != nil {
			return nil, cueLoadError(ErrCodeSyntax, name, err)
		}
		return value.NewBigInt(b), nil

	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return nil, cueLoadError(ErrCodeSyntax, name, err)
		}
		return value.Float(f), nil

	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, cueLoadError(ErrCodeSyntax, name, err)
		}
		return value.String(s), nil

	case cue.BytesKind:
		b, err := v.Bytes()
		if err != nil {
			return nil, cueLoadError(ErrCodeSyntax, name, err)
		}
		return value.String(b), nil

	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, cueLoadError(ErrCodeSyntax, name, err)
		}
		return value.Bool(b), nil

	case cue.NullKind:
		return value.Null{}, nil
	}

	return nil, &LoadError{
		Code:    ErrCodeUnsupported,
		File:    name,
		Path:    path,
		Pos:     v.Pos(),
		Message: fmt.Sprintf("unsupported CUE kind %s", v.Kind()),
	}
}

// cueLoadError converts the first CUE error into a positioned LoadError.
func cueLoadError(code, name string, err error) *LoadError {
	le := &LoadError{Code: code, File: name, Message: err.Error()}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		le.Pos = errs[0].Position()
		format, args := errs[0].Msg()
		le.Message = fmt.Sprintf(format, args...)
	}
	return le
}
