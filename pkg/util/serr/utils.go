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
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Code 返回给定错误对应的错误码。
func Code(err error) int32 {
	if err == nil {
		return 0
	}

	cause := errors.Cause(err)
	switch specificErr := cause.(type) {
	case sealedError:
		return specificErr.code()

	default:
		if errors.Is(specificErr, context.Canceled) {
			return CanceledCode
		} else if errors.Is(specificErr, context.DeadlineExceeded) {
			return TimeoutCode
		} else {
			return errUnexpected.code()
		}
	}
}

func IsRetryableErr(err error) bool {
	if err, ok := err.(sealedError); ok {
		return err.retriable
	}

	return false
}

func IsCanceledOrTimeout(err error) bool {
	return errors.IsAny(err, context.Canceled, context.DeadlineExceeded)
}

// Status 是错误在序列化边界上的可传输表示。
// 进程内仍然使用 error 对象，Status 仅用于日志、监控与跨进程回传。
type Status struct {
	Code int32  `json:"code"`
	Msg  string `json:"msg,omitempty"`
}

// StatusOf 根据给定错误构造 Status。
// 当 err 为空时，返回一个表示成功的 Status。
func StatusOf(err error) Status {
	if err == nil {
		return Status{}
	}

	return Status{
		Code: Code(err),
		Msg:  previousLastError(err).Error(),
	}
}

func previousLastError(err error) error {
	lastErr := err
	for {
		nextErr := errors.Unwrap(err)
		if nextErr == nil {
			break
		}
		lastErr = err
		err = nextErr
	}
	return lastErr
}

func Ok(status Status) bool {
	return status.Code == 0
}

// Error returns a error according to the given status,
// returns nil if the status is a success status
func Error(status Status) error {
	if Ok(status) {
		return nil
	}

	// Status 仅携带 code 与 msg，这里统一按系统错误处理。
	return newSealedError(status.Msg, status.Code, false)
}

func GetErrorType(err error) ErrorType {
	if serr, ok := err.(sealedError); ok {
		return serr.errType
	}

	return SystemError
}

func WrapErrAsInputError(err error) error {
	if serr, ok := err.(sealedError); ok {
		WithErrorType(InputError)(&serr)
		return serr
	}
	return err
}

// Sealed substitution protocol related.
func WrapErrStreamDirectDecode(tag string, msg ...string) error {
	err := wrapFields(ErrStreamDirectDecode, value("tag", tag))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrInvariantViolated(typ string, reason string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrInvariantViolated, reason, value("type", typ))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrProxyNotRegistered(tag string, msg ...string) error {
	err := wrapFields(ErrProxyNotRegistered, value("tag", tag))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrTagConflict(tag string, msg ...string) error {
	err := wrapFields(ErrTagConflict, value("tag", tag))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrFormatVersion(tag, got, want string, msg ...string) error {
	err := wrapFields(ErrFormatVersion,
		value("tag", tag),
		value("got", got),
		value("want", want),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrProxyInvalid(tag string, reason string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrProxyInvalid, reason, value("tag", tag))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Stream & frame related.
func WrapErrFrameTooLarge(size, limit uint64, msg ...string) error {
	err := wrapFields(ErrFrameTooLarge,
		value("size", size),
		value("limit", limit),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrStreamCorrupted(reason string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrStreamCorrupted, reason)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrStreamShort(reason string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrStreamShort, reason)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrPayloadUnverifiable(reason string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrPayloadUnverifiable, reason)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrSerializerMismatch(want, got string, msg ...string) error {
	err := wrapFields(ErrSerializerMismatch,
		value("want", want),
		value("got", got),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Record store related.
func WrapErrRecordNotFound(key string, msg ...string) error {
	err := wrapFields(ErrRecordNotFound, value("key", key))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrStoreUnavailable(reason string, msg ...string) error {
	err := wrapFieldsWithDesc(ErrStoreUnavailable, reason)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrIoFailed(key string, err error) error {
	if err == nil {
		return nil
	}
	return wrapFieldsWithDesc(ErrIoFailed, err.Error(), value("key", key))
}

// Parameter related.
func WrapErrParameterInvalid[T any](expected, actual T, msg ...string) error {
	err := wrapFields(ErrParameterInvalid,
		value("expected", expected),
		value("actual", actual),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrParameterInvalidMsg(fmtStr string, args ...any) error {
	return errors.Wrapf(ErrParameterInvalid, fmtStr, args...)
}

func WrapErrParameterMissing[T any](param T, msg ...string) error {
	err := wrapFields(ErrParameterMissing,
		value("missing_param", param),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func wrapFields(err sealedError, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.detail = err.msg
	return err
}

func wrapFieldsWithDesc(err sealedError, desc string, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.msg += ": " + desc
	err.detail = err.msg
	return err
}

type errorField interface {
	String() string
}

type valueField struct {
	name  string
	value any
}

func value(name string, value any) valueField {
	return valueField{
		name,
		value,
	}
}

func (f valueField) String() string {
	return fmt.Sprintf("%s=%v", f.name, f.value)
}
