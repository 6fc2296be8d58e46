package command

import (
	"errors"
	"strconv"
	"time"

	"github.com/itsmostafa/kvscript/internal/store"
)

type handlers struct {
	db *store.Store
}

func (h *handlers) descriptors() []*Descriptor {
	return []*Descriptor{
		// server
		{Name: "PING", Arity: -1, Flags: FlagReadOnly, Summary: "Ping the store", Handler: h.ping},
		{Name: "ECHO", Arity: 2, Flags: FlagReadOnly, Summary: "Echo the given string", Handler: h.echo},
		{Name: "DBSIZE", Arity: 1, Flags: FlagReadOnly, Summary: "Number of keys", Handler: h.dbsize},
		{Name: "FLUSHALL", Arity: 1, Flags: FlagWrite, Summary: "Remove every key", Handler: h.flushall},

		// keys
		{Name: "DEL", Arity: -2, Flags: FlagWrite, Summary: "Delete keys", Handler: h.del},
		{Name: "EXISTS", Arity: -2, Flags: FlagReadOnly, Summary: "Count existing keys", Handler: h.exists},
		{Name: "TYPE", Arity: 2, Flags: FlagReadOnly, Summary: "Type of the value at key", Handler: h.typeOf},
		{Name: "KEYS", Arity: 2, Flags: FlagReadOnly, Summary: "Keys matching a glob pattern", Handler: h.keys},
		{Name: "EXPIRE", Arity: 3, Flags: FlagWrite, Summary: "Set a TTL in seconds", Handler: h.expire},
		{Name: "TTL", Arity: 2, Flags: FlagReadOnly, Summary: "Remaining TTL in seconds", Handler: h.ttl},
		{Name: "PERSIST", Arity: 2, Flags: FlagWrite, Summary: "Remove the TTL of a key", Handler: h.persist},

		// strings
		{Name: "GET", Arity: 2, Flags: FlagReadOnly, Summary: "Get a string", Handler: h.get},
		{Name: "SET", Arity: 3, Flags: FlagWrite, Summary: "Set a string", Handler: h.set},
		{Name: "SETNX", Arity: 3, Flags: FlagWrite, Summary: "Set a string if absent", Handler: h.setnx},
		{Name: "SETEX", Arity: 4, Flags: FlagWrite, Summary: "Set a string with a TTL", Handler: h.setex},
		{Name: "GETSET", Arity: 3, Flags: FlagWrite, Summary: "Set a string, returning the old one", Handler: h.getset},
		{Name: "MGET", Arity: -2, Flags: FlagReadOnly, Summary: "Get several strings", Handler: h.mget},
		{Name: "MSET", Arity: -3, Flags: FlagWrite, Summary: "Set several strings", Handler: h.mset},
		{Name: "INCR", Arity: 2, Flags: FlagWrite, Summary: "Increment by one", Handler: h.incr},
		{Name: "DECR", Arity: 2, Flags: FlagWrite, Summary: "Decrement by one", Handler: h.decr},
		{Name: "INCRBY", Arity: 3, Flags: FlagWrite, Summary: "Increment by n", Handler: h.incrby},
		{Name: "DECRBY", Arity: 3, Flags: FlagWrite, Summary: "Decrement by n", Handler: h.decrby},
		{Name: "APPEND", Arity: 3, Flags: FlagWrite, Summary: "Append to a string", Handler: h.append},
		{Name: "STRLEN", Arity: 2, Flags: FlagReadOnly, Summary: "Length of a string", Handler: h.strlen},

		// lists
		{Name: "LPUSH", Arity: -3, Flags: FlagWrite, Summary: "Prepend to a list", Handler: h.lpush},
		{Name: "RPUSH", Arity: -3, Flags: FlagWrite, Summary: "Append to a list", Handler: h.rpush},
		{Name: "LPOP", Arity: 2, Flags: FlagWrite, Summary: "Pop the head of a list", Handler: h.lpop},
		{Name: "RPOP", Arity: 2, Flags: FlagWrite, Summary: "Pop the tail of a list", Handler: h.rpop},
		{Name: "LLEN", Arity: 2, Flags: FlagReadOnly, Summary: "Length of a list", Handler: h.llen},
		{Name: "LRANGE", Arity: 4, Flags: FlagReadOnly, Summary: "Range of a list", Handler: h.lrange},
		{Name: "LINDEX", Arity: 3, Flags: FlagReadOnly, Summary: "Element of a list", Handler: h.lindex},

		// hashes
		{Name: "HSET", Arity: 4, Flags: FlagWrite, Summary: "Set a hash field", Handler: h.hset},
		{Name: "HGET", Arity: 3, Flags: FlagReadOnly, Summary: "Get a hash field", Handler: h.hget},
		{Name: "HDEL", Arity: -3, Flags: FlagWrite, Summary: "Delete hash fields", Handler: h.hdel},
		{Name: "HGETALL", Arity: 2, Flags: FlagReadOnly, Summary: "All fields and values of a hash", Handler: h.hgetall},
		{Name: "HLEN", Arity: 2, Flags: FlagReadOnly, Summary: "Number of hash fields", Handler: h.hlen},
		{Name: "HEXISTS", Arity: 3, Flags: FlagReadOnly, Summary: "Whether a hash field exists", Handler: h.hexists},

		// sets
		{Name: "SADD", Arity: -3, Flags: FlagWrite, Summary: "Add set members", Handler: h.sadd},
		{Name: "SREM", Arity: -3, Flags: FlagWrite, Summary: "Remove set members", Handler: h.srem},
		{Name: "SMEMBERS", Arity: 2, Flags: FlagReadOnly, Summary: "Members of a set", Handler: h.smembers},
		{Name: "SISMEMBER", Arity: 3, Flags: FlagReadOnly, Summary: "Whether a member is in a set", Handler: h.sismember},
		{Name: "SCARD", Arity: 2, Flags: FlagReadOnly, Summary: "Cardinality of a set", Handler: h.scard},
	}
}

// storeError converts a store error into an error reply.
func storeError(err error) Reply {
	switch {
	case errors.Is(err, store.ErrWrongType):
		return Error(MsgWrongType)
	case errors.Is(err, store.ErrNotInteger):
		return Error(MsgNotInteger)
	default:
		return Errorf("ERR %v", err)
	}
}

func parseInt(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

func boolReply(b bool) Reply {
	if b {
		return Integer(1)
	}
	return Integer(0)
}

func (h *handlers) ping(c Client) {
	args := c.Args()
	switch len(args) {
	case 1:
		c.AddReply(Status("PONG"))
	case 2:
		c.AddReply(Bulk(args[1]))
	default:
		c.AddReply(Error("ERR wrong number of arguments for 'ping' command"))
	}
}

func (h *handlers) echo(c Client)   { c.AddReply(Bulk(c.Args()[1])) }
func (h *handlers) dbsize(c Client) { c.AddReply(Integer(int64(h.db.Len()))) }

func (h *handlers) flushall(c Client) {
	h.db.Flush()
	c.AddReply(OK)
}

func (h *handlers) del(c Client) {
	c.AddReply(Integer(int64(h.db.Del(c.Args()[1:]...))))
}

func (h *handlers) exists(c Client) {
	c.AddReply(Integer(int64(h.db.Exists(c.Args()[1:]...))))
}

func (h *handlers) typeOf(c Client) {
	c.AddReply(Status(h.db.TypeOf(c.Args()[1]).String()))
}

func (h *handlers) keys(c Client) {
	keys, err := h.db.Keys(c.Args()[1])
	if err != nil {
		c.AddReply(Error(MsgSyntax))
		return
	}
	c.AddReply(BulkStrings(keys))
}

func (h *handlers) expire(c Client) {
	args := c.Args()
	secs, ok := parseInt(args[2])
	if !ok {
		c.AddReply(Error(MsgNotInteger))
		return
	}
	ttl, ok := seconds(secs)
	if !ok {
		c.AddReply(Error("ERR invalid expire time in 'expire' command"))
		return
	}
	c.AddReply(boolReply(h.db.Expire(args[1], ttl)))
}

// maxSeconds is the largest whole number of seconds a time.Duration holds.
const maxSeconds = int64(1<<63-1) / int64(time.Second)

// seconds converts secs to a duration, failing where the product would overflow.
func seconds(secs int64) (time.Duration, bool) {
	if secs > maxSeconds || secs < -maxSeconds {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

func (h *handlers) ttl(c Client) {
	ttl, exists := h.db.TTL(c.Args()[1])
	switch {
	case !exists:
		c.AddReply(Integer(-2))
	case ttl == 0:
		c.AddReply(Integer(-1))
	default:
		// round up so a key with 500ms left still reports 1
		c.AddReply(Integer(int64((ttl + time.Second - 1) / time.Second)))
	}
}

func (h *handlers) persist(c Client) {
	c.AddReply(boolReply(h.db.Persist(c.Args()[1])))
}

func (h *handlers) get(c Client) {
	v, err := h.db.GetString(c.Args()[1])
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.AddReply(Nil())
	case err != nil:
		c.AddReply(storeError(err))
	default:
		c.AddReply(Bulk(v))
	}
}

func (h *handlers) set(c Client) {
	args := c.Args()
	h.db.SetString(args[1], args[2], 0)
	c.AddReply(OK)
}

func (h *handlers) setnx(c Client) {
	args := c.Args()
	c.AddReply(boolReply(h.db.SetNX(args[1], args[2])))
}

func (h *handlers) setex(c Client) {
	args := c.Args()
	secs, ok := parseInt(args[2])
	ttl, inRange := seconds(secs)
	if !ok || secs <= 0 || !inRange {
		c.AddReply(Error("ERR invalid expire time in 'setex' command"))
		return
	}
	h.db.SetString(args[1], args[3], ttl)
	c.AddReply(OK)
}

func (h *handlers) getset(c Client) {
	args := c.Args()
	old, existed, err := h.db.GetSet(args[1], args[2])
	switch {
	case err != nil:
		c.AddReply(storeError(err))
	case !existed:
		c.AddReply(Nil())
	default:
		c.AddReply(Bulk(old))
	}
}

func (h *handlers) mget(c Client) {
	keys := c.Args()[1:]
	elems := make([]Reply, len(keys))
	for i, key := range keys {
		v, err := h.db.GetString(key)
		if err != nil {
			elems[i] = Nil()
			continue
		}
		elems[i] = Bulk(v)
	}
	c.AddReply(Array(elems...))
}

func (h *handlers) mset(c Client) {
	args := c.Args()[1:]
	if len(args)%2 != 0 {
		c.AddReply(Error("ERR wrong number of arguments for 'mset' command"))
		return
	}
	for i := 0; i < len(args); i += 2 {
		h.db.SetString(args[i], args[i+1], 0)
	}
	c.AddReply(OK)
}

func (h *handlers) incrBy(c Client, key string, delta int64) {
	n, err := h.db.IncrBy(key, delta)
	if err != nil {
		c.AddReply(storeError(err))
		return
	}
	c.AddReply(Integer(n))
}

func (h *handlers) incr(c Client) { h.incrBy(c, c.Args()[1], 1) }
func (h *handlers) decr(c Client) { h.incrBy(c, c.Args()[1], -1) }

func (h *handlers) incrby(c Client) {
	args := c.Args()
	delta, ok := parseInt(args[2])
	if !ok {
		c.AddReply(Error(MsgNotInteger))
		return
	}
	h.incrBy(c, args[1], delta)
}

func (h *handlers) decrby(c Client) {
	args := c.Args()
	delta, ok := parseInt(args[2])
	if !ok || delta == minInt64 {
		c.AddReply(Error(MsgNotInteger))
		return
	}
	h.incrBy(c, args[1], -delta)
}

const minInt64 = -1 << 63

func (h *handlers) append(c Client) {
	args := c.Args()
	n, err := h.db.Append(args[1], args[2])
	if err != nil {
		c.AddReply(storeError(err))
		return
	}
	c.AddReply(Integer(int64(n)))
}

func (h *handlers) strlen(c Client) {
	n, err := h.db.StrLen(c.Args()[1])
	if err != nil {
		c.AddReply(storeError(err))
		return
	}
	c.AddReply(Integer(int64(n)))
}

func (h *handlers) push(c Client, left bool) {
	args := c.Args()
	n, err := h.db.Push(args[1], left, args[2:]...)
	if err != nil {
		c.AddReply(storeError(err))
		return
	}
	c.AddReply(Integer(int64(n)))
}

func (h *handlers) lpush(c Client) { h.push(c, true) }
func (h *handlers) rpush(c Client) { h.push(c, false) }

func (h *handlers) pop(c Client, left bool) {
	v, ok, err := h.db.Pop(c.Args()[1], left)
	switch {
	case err != nil:
		c.AddReply(storeError(err))
	case !ok:
		c.AddReply(Nil())
	default:
		c.AddReply(Bulk(v))
	}
}

func (h *handlers) lpop(c Client) { h.pop(c, true) }
func (h *handlers) rpop(c Client) { h.pop(c, false) }

func (h *handlers) llen(c Client) {
	n, err := h.db.LLen(c.Args()[1])
	if err != nil {
		c.AddReply(storeError(err))
		return
	}
	c.AddReply(Integer(int64(n)))
}

func (h *handlers) lrange(c Client) {
	args := c.Args()
	start, ok1 := parseInt(args[2])
	stop, ok2 := parseInt(args[3])
	if !ok1 || !ok2 {
		c.AddReply(Error(MsgNotInteger))
		return
	}
	items, err := h.db.LRange(args[1], int(start), int(stop))
	if err != nil {
		c.AddReply(storeError(err))
		return
	}
	c.AddReply(BulkStrings(items))
}

func (h *handlers) lindex(c Client) {
	args := c.Args()
	idx, ok := parseInt(args[2])
	if !ok {
		c.AddReply(Error(MsgNotInteger))
		return
	}
	v, found, err := h.db.LIndex(args[1], int(idx))
	switch {
	case err != nil:
		c.AddReply(storeError(err))
	case !found:
		c.AddReply(Nil())
	default:
		c.AddReply(Bulk(v))
	}
}

func (h *handlers) hset(c Client) {
	args := c.Args()
	created, err := h.db.HSet(args[1], args[2], args[3])
	if err != nil {
		c.AddReply(storeError(err))
		return
	}
	c.AddReply(boolReply(created))
}

func (h *handlers) hget(c Client) {
	args := c.Args()
	v, ok, err := h.db.HGet(args[1], args[2])
	switch {
	case err != nil:
		c.AddReply(storeError(err))
	case !ok:
		c.AddReply(Nil())
	default:
		c.AddReply(Bulk(v))
	}
}

func (h *handlers) hdel(c Client) {
	args := c.Args()
	n, err := h.db.HDel(args[1], args[2:]...)
	if err != nil {
		c.AddReply(storeError(err))
		return
	}
	c.AddReply(Integer(int64(n)))
}

func (h *handlers) hgetall(c Client) {
	pairs, err := h.db.HGetAll(c.Args()[1])
	if err != nil {
		c.AddReply(storeError(err))
		return
	}
	c.AddReply(BulkStrings(pairs))
}

func (h *handlers) hlen(c Client) {
	n, err := h.db.HLen(c.Args()[1])
	if err != nil {
		c.AddReply(storeError(err))
		return
	}
	c.AddReply(Integer(int64(n)))
}

func (h *handlers) hexists(c Client) {
	args := c.Args()
	_, ok, err := h.db.HGet(args[1], args[2])
	if err != nil {
		c.AddReply(storeError(err))
		return
	}
	c.AddReply(boolReply(ok))
}

func (h *handlers) sadd(c Client) {
	args := c.Args()
	n, err := h.db.SAdd(args[1], args[2:]...)
	if err != nil {
		c.AddReply(storeError(err))
		return
	}
	c.AddReply(Integer(int64(n)))
}

func (h *handlers) srem(c Client) {
	args := c.Args()
	n, err := h.db.SRem(args[1], args[2:]...)
	if err != nil {
		c.AddReply(storeError(err))
		return
	}
	c.AddReply(Integer(int64(n)))
}

func (h *handlers) smembers(c Client) {
	members, err := h.db.SMembers(c.Args()[1])
	if err != nil {
		c.AddReply(storeError(err))
		return
	}
	c.AddReply(BulkStrings(members))
}

func (h *handlers) sismember(c Client) {
	args := c.Args()
	ok, err := h.db.SIsMember(args[1], args[2])
	if err != nil {
		c.AddReply(storeError(err))
		return
	}
	c.AddReply(boolReply(ok))
}

func (h *handlers) scard(c Client) {
	n, err := h.db.SCard(c.Args()[1])
	if err != nil {
		c.AddReply(storeError(err))
		return
	}
	c.AddReply(Integer(int64(n)))
}
