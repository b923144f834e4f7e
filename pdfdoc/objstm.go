package pdfdoc

import (
	"bytes"
	"fmt"
	"strconv"
)

// objectStream is a decoded /Type /ObjStm stream.
type objectStream struct {
	data    []byte
	first   int64
	nums    []int
	offsets []int64
}

func (d *Document) loadObjectStream(num int) (*objectStream, error) {
	if stm, ok := d.objstms[num]; ok {
		return stm, nil
	}

	o, err := d.object(num)
	if err != nil {
		return nil, err
	}
	s, ok := o.(*Stream)
	if !ok {
		return nil, fmt.Errorf("%w: object stream %d is %s", ErrBadXRef, num, typeName(o))
	}
	n, _ := s.Dict.Int("N")
	first, _ := s.Dict.Int("First")
	data, err := d.decode(s)
	if err != nil {
		return nil, err
	}
	if first < 0 || first > int64(len(data)) {
		return nil, fmt.Errorf("%w: object stream %d /First out of range", ErrBadXRef, num)
	}

	stm := &objectStream{data: data, first: first}
	lx := newLexer(bytes.NewReader(data[:first]), 0)
	for i := int64(0); i < n; i++ {
		var pair [2]int64
		for j := range pair {
			t, err := lx.next()
			if err != nil {
				return nil, err
			}
			if t.kind != tokInt {
				return nil, fmt.Errorf("%w: object stream %d header", ErrBadXRef, num)
			}
			pair[j], _ = strconv.ParseInt(string(t.text), 10, 64)
		}
		stm.nums = append(stm.nums, int(pair[0]))
		stm.offsets = append(stm.offsets, pair[1])
	}

	d.objstms[num] = stm
	return stm, nil
}

func (d *Document) compressedObject(num, stream, index int) (Object, error) {
	stm, err := d.loadObjectStream(stream)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(stm.offsets) {
		return nil, fmt.Errorf("%w: index %d beyond object stream %d", ErrBadXRef, index, stream)
	}
	if stm.nums[index] != num {
		return nil, fmt.Errorf("%w: object stream %d holds %d at index %d", ErrBadXRef, stream, stm.nums[index], index)
	}

	start := stm.first + stm.offsets[index]
	if start < stm.first || start > int64(len(stm.data)) {
		return nil, fmt.Errorf("%w: offset beyond object stream %d", ErrBadXRef, stream)
	}
	p := newParser(newLexer(bytes.NewReader(stm.data[start:]), start))
	return p.object()
}
