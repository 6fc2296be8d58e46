// Package command holds the store's command set: reply values, command
// descriptors and the dispatch table that maps names to handlers.
package command

import (
	"fmt"
	"strconv"
	"strings"
)

// NilText is the textual form of an absent value.
const NilText = "(nil)"

// Shared error messages.
const (
	MsgWrongType  = "WRONGTYPE Operation against a key holding the wrong kind of value"
	MsgNotInteger = "ERR value is not an integer or out of range"
	MsgSyntax     = "ERR syntax error"
)

// Kind tags a Reply.
type Kind int

const (
	KindStatus Kind = iota
	KindBulk
	KindInteger
	KindNil
	KindError
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindBulk:
		return "bulk"
	case KindInteger:
		return "integer"
	case KindNil:
		return "nil"
	case KindError:
		return "error"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Reply is one value a command produces.
type Reply struct {
	Kind  Kind
	Str   string
	Int   int64
	Elems []Reply
}

// OK is the status reply most writes produce.
var OK = Status("OK")

func Status(s string) Reply  { return Reply{Kind: KindStatus, Str: s} }
func Bulk(s string) Reply    { return Reply{Kind: KindBulk, Str: s} }
func Integer(n int64) Reply  { return Reply{Kind: KindInteger, Int: n} }
func Nil() Reply             { return Reply{Kind: KindNil} }
func Error(msg string) Reply { return Reply{Kind: KindError, Str: msg} }

// Errorf builds an error reply from a format string.
func Errorf(format string, args ...any) Reply {
	return Error(fmt.Sprintf(format, args...))
}

// Array builds a multi-value reply.
func Array(elems ...Reply) Reply {
	if elems == nil {
		elems = []Reply{}
	}
	return Reply{Kind: KindArray, Elems: elems}
}

// BulkStrings builds an array of bulk replies.
func BulkStrings(items []string) Reply {
	elems := make([]Reply, len(items))
	for i, s := range items {
		elems[i] = Bulk(s)
	}
	return Array(elems...)
}

// Text returns the textual form of a scalar reply. Arrays have none.
func (r Reply) Text() (string, bool) {
	switch r.Kind {
	case KindStatus, KindBulk, KindError:
		return r.Str, true
	case KindInteger:
		return strconv.FormatInt(r.Int, 10), true
	case KindNil:
		return NilText, true
	default:
		return "", false
	}
}

// IsError reports whether the reply is an error.
func (r Reply) IsError() bool { return r.Kind == KindError }

// String renders the reply the way an interactive client would.
func (r Reply) String() string {
	switch r.Kind {
	case KindBulk:
		return strconv.Quote(r.Str)
	case KindInteger:
		return "(integer) " + strconv.FormatInt(r.Int, 10)
	case KindError:
		return "(error) " + r.Str
	case KindArray:
		if len(r.Elems) == 0 {
			return "(empty array)"
		}
		var b strings.Builder
		for i, e := range r.Elems {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%d) %s", i+1, e.String())
		}
		return b.String()
	default:
		s, _ := r.Text()
		return s
	}
}
