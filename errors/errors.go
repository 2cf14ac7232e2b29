// Copyright 2023 The CubeFS Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package errors

import "errors"

var (
	// ErrNoSuchCopyset is returned when CopysetTable has no entry for the
	// requested (poolId, copysetId).
	ErrNoSuchCopyset = errors.New("metacache: no such copyset")
	// ErrNoSuchChunk names a ChunkIndex miss. Cache.LookupChunk reports a
	// miss through its bool result and does not return this error.
	ErrNoSuchChunk = errors.New("metacache: no such chunk")
	// ErrLeaderUnknown is returned when the refresh ladder is exhausted
	// without learning a leader.
	ErrLeaderUnknown = errors.New("metacache: leader unknown after retry")
	// ErrUnknownMember names the unknown-member case of
	// CopysetTable.UpdateLeader. No function returns it: UpdateLeader
	// reports that case to LeaderResolver through its updateLeaderResult.
	ErrUnknownMember = errors.New("metacache: member not in copyset")
	// ErrMetadataService wraps a non-fatal failure talking to the
	// metadata service. The cache remains usable with stale data.
	ErrMetadataService = errors.New("metacache: metadata service error")
)

// Code identifies the category of an Error returned from the metadata
// service boundary, for callers that want to branch without string
// matching.
type Code uint32

const (
	CodeUnknown Code = iota
	CodeMetadataServiceUnreachable
	CodeMetadataServiceEmptyReply
)

// Error carries a Code alongside an underlying cause, the way
// raft/error.go pairs a numeric code with a message. Used on the
// MetadataServiceError path where callers may want more than a
// sentinel to log or branch on.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return ErrMetadataService.Error()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes every *Error match ErrMetadataService under errors.Is.
func (e *Error) Is(target error) bool {
	return target == ErrMetadataService
}

func NewMetadataServiceError(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}
