package store

import "sort"

// Push prepends (left) or appends values to the list at key and returns the
// new length. Left pushes insert one value at a time, so the last value ends
// up at the head.
func (s *Store) Push(key string, left bool, values ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookupTyped(key, TypeList)
	if err != nil {
		return 0, err
	}
	if e == nil {
		e = &entry{typ: TypeList}
		s.items[key] = e
	}
	for _, v := range values {
		if left {
			e.list = append([]string{v}, e.list...)
		} else {
			e.list = append(e.list, v)
		}
	}
	return len(e.list), nil
}

// Pop removes and returns the head (left) or tail element of the list at key.
func (s *Store) Pop(key string, left bool) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookupTyped(key, TypeList)
	if err != nil || e == nil {
		return "", false, err
	}
	var v string
	if left {
		v, e.list = e.list[0], e.list[1:]
	} else {
		last := len(e.list) - 1
		v, e.list = e.list[last], e.list[:last]
	}
	s.dropIfEmpty(key, e)
	return v, true, nil
}

// LLen returns the length of the list at key.
func (s *Store) LLen(key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookupTyped(key, TypeList)
	if err != nil || e == nil {
		return 0, err
	}
	return len(e.list), nil
}

// LRange returns the inclusive range [start, stop]; negative indexes count
// from the tail.
func (s *Store) LRange(key string, start, stop int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookupTyped(key, TypeList)
	if err != nil || e == nil {
		return nil, err
	}
	n := len(e.list)
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop {
		return []string{}, nil
	}
	out := make([]string, stop-start+1)
	copy(out, e.list[start:stop+1])
	return out, nil
}

// LIndex returns the element at index; negative indexes count from the tail.
func (s *Store) LIndex(key string, index int) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookupTyped(key, TypeList)
	if err != nil || e == nil {
		return "", false, err
	}
	if index < 0 {
		index += len(e.list)
	}
	if index < 0 || index >= len(e.list) {
		return "", false, nil
	}
	return e.list[index], true, nil
}

// HSet sets field in the hash at key and reports whether the field is new.
func (s *Store) HSet(key, field, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookupTyped(key, TypeHash)
	if err != nil {
		return false, err
	}
	if e == nil {
		e = &entry{typ: TypeHash, hash: make(map[string]string)}
		s.items[key] = e
	}
	_, exists := e.hash[field]
	e.hash[field] = value
	return !exists, nil
}

// HGet returns a hash field.
func (s *Store) HGet(key, field string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookupTyped(key, TypeHash)
	if err != nil || e == nil {
		return "", false, err
	}
	v, ok := e.hash[field]
	return v, ok, nil
}

// HDel removes fields and returns how many existed.
func (s *Store) HDel(key string, fields ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookupTyped(key, TypeHash)
	if err != nil || e == nil {
		return 0, err
	}
	n := 0
	for _, f := range fields {
		if _, ok := e.hash[f]; ok {
			delete(e.hash, f)
			n++
		}
	}
	s.dropIfEmpty(key, e)
	return n, nil
}

// HGetAll returns field/value pairs flattened and ordered by field.
func (s *Store) HGetAll(key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookupTyped(key, TypeHash)
	if err != nil || e == nil {
		return nil, err
	}
	fields := make([]string, 0, len(e.hash))
	for f := range e.hash {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	out := make([]string, 0, 2*len(fields))
	for _, f := range fields {
		out = append(out, f, e.hash[f])
	}
	return out, nil
}

// HLen returns the number of fields in the hash at key.
func (s *Store) HLen(key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookupTyped(key, TypeHash)
	if err != nil || e == nil {
		return 0, err
	}
	return len(e.hash), nil
}

// SAdd adds members to the set at key and returns how many were new.
func (s *Store) SAdd(key string, members ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookupTyped(key, TypeSet)
	if err != nil {
		return 0, err
	}
	if e == nil {
		e = &entry{typ: TypeSet, set: make(map[string]struct{})}
		s.items[key] = e
	}
	n := 0
	for _, m := range members {
		if _, ok := e.set[m]; !ok {
			e.set[m] = struct{}{}
			n++
		}
	}
	return n, nil
}

// SRem removes members and returns how many were present.
func (s *Store) SRem(key string, members ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookupTyped(key, TypeSet)
	if err != nil || e == nil {
		return 0, err
	}
	n := 0
	for _, m := range members {
		if _, ok := e.set[m]; ok {
			delete(e.set, m)
			n++
		}
	}
	s.dropIfEmpty(key, e)
	return n, nil
}

// SMembers returns the members of the set at key, sorted.
func (s *Store) SMembers(key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookupTyped(key, TypeSet)
	if err != nil || e == nil {
		return nil, err
	}
	out := make([]string, 0, len(e.set))
	for m := range e.set {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

// SIsMember reports whether member belongs to the set at key.
func (s *Store) SIsMember(key, member string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookupTyped(key, TypeSet)
	if err != nil || e == nil {
		return false, err
	}
	_, ok := e.set[member]
	return ok, nil
}

// SCard returns the cardinality of the set at key.
func (s *Store) SCard(key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.lookupTyped(key, TypeSet)
	if err != nil || e == nil {
		return 0, err
	}
	return len(e.set), nil
}
