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
	"os"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type ErrSuite struct {
	suite.Suite
}

func (s *ErrSuite) TestCode() {
	err := WrapErrStreamDirectDecode("quantity")
	errors.Wrap(err, "failed to decode record")
	s.ErrorIs(err, ErrStreamDirectDecode)
	s.Equal(Code(ErrStreamDirectDecode), Code(err))
	s.Equal(TimeoutCode, Code(context.DeadlineExceeded))
	s.Equal(CanceledCode, Code(context.Canceled))
	s.Equal(errUnexpected.errCode, Code(errUnexpected))
	s.Equal(int32(0), Code(nil))

	sameCodeErr := newSealedError("new error", ErrStreamDirectDecode.errCode, false)
	s.True(sameCodeErr.Is(ErrStreamDirectDecode))
}

func (s *ErrSuite) TestStatus() {
	err := WrapErrRecordNotFound("records/q1")
	status := StatusOf(err)
	restoredErr := Error(status)

	s.ErrorIs(err, restoredErr)
	s.Equal(int32(0), StatusOf(nil).Code)
	s.Nil(Error(Status{}))
	s.True(Ok(StatusOf(nil)))
	s.False(Ok(status))
}

func (s *ErrSuite) TestWrap() {
	// 替身协议相关错误。
	s.ErrorIs(WrapErrStreamDirectDecode("quantity", "failed to decode"), ErrStreamDirectDecode)
	s.ErrorIs(WrapErrInvariantViolated("quantity", "amount is negative"), ErrInvariantViolated)
	s.ErrorIs(WrapErrProxyNotRegistered("unknown-tag"), ErrProxyNotRegistered)
	s.ErrorIs(WrapErrTagConflict("quantity.proxy"), ErrTagConflict)
	s.ErrorIs(WrapErrFormatVersion("quantity.proxy", "2.0.0", ">=1.0.0 <2.0.0"), ErrFormatVersion)
	s.ErrorIs(WrapErrProxyInvalid("quantity.proxy", "nil prototype"), ErrProxyInvalid)

	// 流与帧相关错误。
	s.ErrorIs(WrapErrFrameTooLarge(1<<30, 1<<24), ErrFrameTooLarge)
	s.ErrorIs(WrapErrStreamCorrupted("bad header magic"), ErrStreamCorrupted)
	s.ErrorIs(WrapErrSerializerMismatch("json", "gob"), ErrSerializerMismatch)

	// 记录存储相关错误。
	s.ErrorIs(WrapErrRecordNotFound("records/q1", "failed to load"), ErrRecordNotFound)
	s.ErrorIs(WrapErrStoreUnavailable("etcd members unreachable"), ErrStoreUnavailable)

	// IO 相关错误。
	s.ErrorIs(WrapErrIoFailed("records/q1", os.ErrClosed), ErrIoFailed)
	s.NoError(WrapErrIoFailed("records/q1", nil))

	// 参数相关错误。
	s.ErrorIs(WrapErrParameterInvalid(8, 1, "failed to create"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterInvalidMsg("tag %s is empty", "proxy"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterMissing("tag", "no tag parameter"), ErrParameterMissing)
}

func (s *ErrSuite) TestCombine() {
	var (
		errFirst  = errors.New("first")
		errSecond = errors.New("second")
		errThird  = errors.New("third")
	)

	err := Combine(errFirst, errSecond)
	s.True(errors.Is(err, errFirst))
	s.True(errors.Is(err, errSecond))
	s.False(errors.Is(err, errThird))

	s.Equal("first: second", err.Error())
}

func (s *ErrSuite) TestCombineWithNil() {
	err := errors.New("non-nil")

	s.Error(Combine(nil, err))
	s.Error(Combine(err, nil))
	s.NoError(Combine(nil, nil))
}

func (s *ErrSuite) TestCombineOnlyNil() {
	s.NoError(Combine(nil, nil))
}

func (s *ErrSuite) TestCombineCode() {
	err := Combine(WrapErrIoFailed("test", errors.New("mock")), WrapErrRecordNotFound("records/q1"))
	s.Equal(ErrRecordNotFound.code(), Code(err))
}

func (s *ErrSuite) TestIsRetryable() {
	s.True(IsRetryableErr(ErrStreamShort))
	s.True(IsRetryableErr(ErrStoreUnavailable))
	s.False(IsRetryableErr(ErrStreamDirectDecode))
	s.False(IsRetryableErr(ErrInvariantViolated))
	s.False(IsRetryableErr(errors.New("not a sealed error")))
}

func (s *ErrSuite) TestErrorType() {
	s.Equal(InputError, GetErrorType(ErrStreamDirectDecode))
	s.Equal(SystemError, GetErrorType(ErrStoreUnavailable))
	s.Equal(SystemError, GetErrorType(errors.New("other")))
	s.Equal("input_error", InputError.String())
}

func TestErrors(t *testing.T) {
	suite.Run(t, new(ErrSuite))
}
