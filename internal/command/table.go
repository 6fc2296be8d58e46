package command

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/itsmostafa/kvscript/internal/store"
)

// Client is the acting connection a handler reads arguments from and writes
// replies to. Args()[0] is the command name.
type Client interface {
	Args() []string
	AddReply(Reply)
}

// Handler executes one command against a client.
type Handler func(c Client)

// Flag describes command properties.
type Flag uint8

const (
	FlagWrite Flag = 1 << iota
	FlagReadOnly
	// FlagNoScript commands are refused when called from a script.
	FlagNoScript
)

// Descriptor describes one command. Arity counts the command name: a positive
// arity requires exactly that many arguments, a negative arity at least -Arity.
type Descriptor struct {
	Name    string
	Arity   int
	Flags   Flag
	Summary string
	Handler Handler
}

// Has reports whether all bits of f are set.
func (d *Descriptor) Has(f Flag) bool { return d.Flags&f == f }

// CheckArity reports whether argc arguments (name included) are acceptable.
func (d *Descriptor) CheckArity(argc int) bool {
	if d.Arity >= 0 {
		return argc == d.Arity
	}
	return argc >= -d.Arity
}

// ArityString renders the arity for humans: "3" or ">=2".
func (d *Descriptor) ArityString() string {
	if d.Arity < 0 {
		return ">=" + strconv.Itoa(-d.Arity)
	}
	return strconv.Itoa(d.Arity)
}

// FlagNames lists the set flags.
func (d *Descriptor) FlagNames() []string {
	var names []string
	if d.Has(FlagWrite) {
		names = append(names, "write")
	}
	if d.Has(FlagReadOnly) {
		names = append(names, "readonly")
	}
	if d.Has(FlagNoScript) {
		names = append(names, "noscript")
	}
	return names
}

// Table maps command names to descriptors. It is built once at startup and
// only read afterwards.
type Table struct {
	byName map[string]*Descriptor
}

// NewTable builds the table of built-in commands operating on db.
func NewTable(db *store.Store) *Table {
	t := &Table{byName: make(map[string]*Descriptor)}
	h := &handlers{db: db}
	if err := t.Register(h.descriptors()...); err != nil {
		panic(err)
	}
	return t
}

// Register adds descriptors. It is meant for wiring time, before the table is
// shared, and fails on duplicate names.
func (t *Table) Register(ds ...*Descriptor) error {
	for _, d := range ds {
		if d == nil || d.Handler == nil || d.Arity == 0 {
			return fmt.Errorf("invalid command descriptor %+v", d)
		}
		name := strings.ToLower(d.Name)
		if _, dup := t.byName[name]; dup {
			return fmt.Errorf("command %q already registered", d.Name)
		}
		t.byName[name] = d
	}
	return nil
}

// Lookup resolves a command name case-insensitively.
func (t *Table) Lookup(name string) (*Descriptor, bool) {
	d, ok := t.byName[strings.ToLower(name)]
	return d, ok
}

// Dispatch runs d against c.
func (t *Table) Dispatch(c Client, d *Descriptor) {
	d.Handler(c)
}

// Execute looks up args[0], checks arity and dispatches against c, replying
// with an error when the command is unknown or badly called.
func (t *Table) Execute(c Client) {
	args := c.Args()
	if len(args) == 0 {
		c.AddReply(Error("ERR empty command"))
		return
	}
	d, ok := t.Lookup(args[0])
	if !ok {
		c.AddReply(Errorf("ERR unknown command '%s'", args[0]))
		return
	}
	if !d.CheckArity(len(args)) {
		c.AddReply(Errorf("ERR wrong number of arguments for '%s' command", strings.ToLower(d.Name)))
		return
	}
	t.Dispatch(c, d)
}

// Descriptors returns every descriptor sorted by name.
func (t *Table) Descriptors() []*Descriptor {
	out := make([]*Descriptor, 0, len(t.byName))
	for _, d := range t.byName {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Recorder is a Client that collects replies in memory.
type Recorder struct {
	argv    []string
	Replies []Reply
}

// NewRecorder creates a recorder for one command invocation.
func NewRecorder(args ...string) *Recorder {
	return &Recorder{argv: args}
}

func (r *Recorder) Args() []string   { return r.argv }
func (r *Recorder) AddReply(rp Reply) { r.Replies = append(r.Replies, rp) }

// Reply returns the single reply recorded, or an array when several were.
func (r *Recorder) Reply() Reply {
	switch len(r.Replies) {
	case 0:
		return Nil()
	case 1:
		return r.Replies[0]
	default:
		return Array(r.Replies...)
	}
}
