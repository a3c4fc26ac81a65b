//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package gmw

import (
	"io"
)

// Triples holds this party's shares of Boolean multiplication
// triples c = a&b. Each bit is stored in its own byte.
type Triples struct {
	A []byte
	B []byte
	C []byte
}

// Len returns the number of triples.
func (t *Triples) Len() int {
	return len(t.A)
}

// triples creates n Boolean triples from two random bit OTs per
// triple, one in each direction. The server is the OT sender in the
// first direction and the client in the second.
//
// In each direction the sender holds m0, m1 and the receiver holds c,
// m_c. With u = m0^m1, v = m0 it holds that c&u = v^m_c, so the
// sender's a = u and the receiver's b = c give a share of a&b without
// interaction.
func (s *Session) triples(n int) (*Triples, error) {
	t := &Triples{
		A: make([]byte, n),
		B: make([]byte, n),
		C: make([]byte, n),
	}
	for ofs := 0; ofs < n; ofs += s.bufSize {
		count := min(s.bufSize, n-ofs)

		var m0, m1, mc []byte
		var choices []bool
		var err error

		if s.role == Server {
			m0, m1, err = s.sender.SendBits(count, s.numThreads)
			if err == nil {
				choices, mc, err = s.receiveBits(count)
			}
		} else {
			choices, mc, err = s.receiveBits(count)
			if err == nil {
				m0, m1, err = s.sender.SendBits(count, s.numThreads)
			}
		}
		if err != nil {
			return nil, err
		}
		for i := 0; i < count; i++ {
			a := m0[i] ^ m1[i]
			var b byte
			if choices[i] {
				b = 1
			}
			t.A[ofs+i] = a
			t.B[ofs+i] = b
			t.C[ofs+i] = (a & b) ^ m0[i] ^ mc[i]
		}
	}
	s.Debugf("triples: n=%d\n", n)
	return t, nil
}

// receiveBits runs count random bit OTs with random choice bits. It
// returns the choice bits and the chosen messages.
func (s *Session) receiveBits(count int) ([]bool, []byte, error) {
	buf := make([]byte, (count+7)/8)
	if _, err := io.ReadFull(s.rand, buf); err != nil {
		return nil, nil, err
	}
	choices := make([]bool, count)
	for i := range choices {
		choices[i] = buf[i/8]&(1<<(i%8)) != 0
	}
	mc, err := s.receiver.ReceiveBits(choices, s.numThreads)
	if err != nil {
		return nil, nil, err
	}
	return choices, mc, nil
}
