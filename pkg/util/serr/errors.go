// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package serr

import (
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

const (
	CanceledCode int32 = 10000
	TimeoutCode  int32 = 10001
)

type ErrorType int32

const (
	SystemError ErrorType = 0
	InputError  ErrorType = 1
)

var ErrorTypeName = map[ErrorType]string{
	SystemError: "system_error",
	InputError:  "input_error",
}

func (err ErrorType) String() string {
	return ErrorTypeName[err]
}

// Define leaf errors here,
// WARN: take care to add new error,
// check whether you can use the errors below before adding a new one.
// Name: Err + related prefix + error name
var (
	// Sealed substitution protocol related
	ErrStreamDirectDecode = newSealedError("direct decode of sealed type", 100, false, WithErrorType(InputError))
	ErrInvariantViolated  = newSealedError("invariant violated", 101, false, WithErrorType(InputError))
	ErrProxyNotRegistered = newSealedError("proxy not registered", 102, false)
	ErrTagConflict        = newSealedError("tag already registered", 103, false)
	ErrFormatVersion      = newSealedError("incompatible format version", 104, false, WithErrorType(InputError))
	ErrProxyInvalid       = newSealedError("invalid proxy value", 105, false)

	// Stream & frame related
	ErrFrameTooLarge       = newSealedError("frame exceeds size limit", 200, false, WithErrorType(InputError))
	ErrStreamCorrupted     = newSealedError("stream corrupted", 201, false, WithErrorType(InputError))
	ErrStreamShort         = newSealedError("unexpected end of stream", 202, true, WithErrorType(InputError))
	ErrSerializerMismatch  = newSealedError("serializer mismatch", 203, false, WithErrorType(InputError))
	ErrPayloadUnverifiable = newSealedError("payload failed integrity check", 204, false, WithErrorType(InputError))

	// Record store related
	ErrRecordNotFound   = newSealedError("record not found", 300, false)
	ErrStoreUnavailable = newSealedError("record store unavailable", 301, true)
	ErrStoreInternal    = newSealedError("record store internal error", 302, false)
	ErrWatchInterrupted = newSealedError("watch channel interrupted", 303, true)

	// IO related
	ErrIoFailed      = newSealedError("IO failed", 1001, false)
	ErrIoUnexpectEOF = newSealedError("unexpected EOF", 1002, true)

	// Parameter related
	ErrParameterInvalid  = newSealedError("invalid parameter", 1100, false, WithErrorType(InputError))
	ErrParameterMissing  = newSealedError("missing parameter", 1101, false, WithErrorType(InputError))
	ErrParameterTooLarge = newSealedError("parameter too large", 1102, false, WithErrorType(InputError))

	// Do NOT export this,
	// never allow programmer using this, keep only for converting unknown error to sealedError
	errUnexpected = newSealedError("unexpected error", (1<<16)-1, false)
)

type errorOption func(*sealedError)

func WithDetail(detail string) errorOption {
	return func(err *sealedError) {
		err.detail = detail
	}
}

func WithErrorType(etype ErrorType) errorOption {
	return func(err *sealedError) {
		err.errType = etype
	}
}

type sealedError struct {
	msg       string
	detail    string
	retriable bool
	errCode   int32
	errType   ErrorType
}

func newSealedError(msg string, code int32, retriable bool, options ...errorOption) sealedError {
	err := sealedError{
		msg:       msg,
		detail:    msg,
		retriable: retriable,
		errCode:   code,
	}

	for _, option := range options {
		option(&err)
	}
	return err
}

func (e sealedError) code() int32 {
	return e.errCode
}

func (e sealedError) Error() string {
	return e.msg
}

func (e sealedError) Detail() string {
	return e.detail
}

func (e sealedError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(sealedError); ok {
		return e.errCode == cause.errCode
	}
	return false
}

type multiErrors struct {
	errs []error
}

func (e multiErrors) Unwrap() error {
	if len(e.errs) <= 1 {
		return nil
	}
	// To make serr work for multi errors,
	// we need cause of multi errors, which defined as the last error
	if len(e.errs) == 2 {
		return e.errs[1]
	}

	return multiErrors{
		errs: e.errs[1:],
	}
}

func (e multiErrors) Error() string {
	final := e.errs[0]
	for i := 1; i < len(e.errs); i++ {
		final = errors.Wrap(e.errs[i], final.Error())
	}
	return final.Error()
}

func (e multiErrors) Is(err error) bool {
	for _, item := range e.errs {
		if errors.Is(item, err) {
			return true
		}
	}
	return false
}

func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	if len(errs) == 0 {
		return nil
	}
	return multiErrors{
		errs,
	}
}
