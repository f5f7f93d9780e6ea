// Package apperr defines the failure taxonomy of a runner lookup. Each error
// carries a Kind next to its user-facing message so callers can classify it
// without inspecting the text.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a lookup failure.
type Kind int

const (
	Internal Kind = iota
	MalformedQuery
	Configuration
	NotFound
	UpstreamUnavailable
	ParseFailure
	NoRecordsYet
	PositionUnresolvable
)

var kindNames = map[Kind]string{
	Internal:             "internal",
	MalformedQuery:       "malformed_query",
	Configuration:        "configuration",
	NotFound:             "not_found",
	UpstreamUnavailable:  "upstream_unavailable",
	ParseFailure:         "parse_failure",
	NoRecordsYet:         "no_records_yet",
	PositionUnresolvable: "position_unresolvable",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified lookup failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error of the given kind.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// KindOf returns the kind of err, or Internal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// MessageOf returns the user-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return msgInternal
}

const (
	msgMalformedQuery       = "검색어를 입력해주세요"
	msgNameSearchDisabled   = "이름 검색을 사용하려면 MARATHON_API_BASE를 설정하세요"
	msgNotFound             = "해당 배번의 러너 정보를 찾을 수 없습니다"
	msgUpstream             = "러너 정보를 가져올 수 없습니다. 잠시 후 다시 시도해주세요."
	msgTimeout              = "서버 응답 시간이 초과되었습니다. 다시 시도해주세요."
	msgSourceDegraded       = "기록 서버가 일시적으로 불안정합니다. 잠시 후 다시 시도해주세요."
	msgParse                = "러너 정보를 파싱할 수 없습니다. 배번을 확인하거나 나중에 다시 시도해주세요."
	msgNoRecords            = "아직 체크포인트 기록이 없습니다"
	msgPositionUnresolvable = "거리 정보를 파싱할 수 없습니다"
	msgInternal             = "서버 오류가 발생했습니다"
)

func Malformed(cause error) *Error { return New(MalformedQuery, msgMalformedQuery, cause) }

func NameSearchDisabled() *Error { return New(Configuration, msgNameSearchDisabled, nil) }

func RunnerNotFound(cause error) *Error { return New(NotFound, msgNotFound, cause) }

func Upstream(cause error) *Error { return New(UpstreamUnavailable, msgUpstream, cause) }

func Timeout(cause error) *Error { return New(UpstreamUnavailable, msgTimeout, cause) }

// SourceDegraded reports a result source that is skipped after repeated
// failures, independent of the runner asked for.
func SourceDegraded(cause error) *Error { return New(UpstreamUnavailable, msgSourceDegraded, cause) }

func Parse(cause error) *Error { return New(ParseFailure, msgParse, cause) }

func NoRecords() *Error { return New(NoRecordsYet, msgNoRecords, nil) }

func PositionUnknown(cause error) *Error { return New(PositionUnresolvable, msgPositionUnresolvable, cause) }
