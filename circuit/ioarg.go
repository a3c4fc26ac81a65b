//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"fmt"
	"math/big"
)

// Shared identifies input arguments that both parties contribute as
// XOR shares.
const Shared = -1

// IOArg describes circuit input and output arguments. An argument is
// a vector of Count values of Bits bits each. For inputs, Party
// identifies the party owning the value or Shared for XOR-shared
// inputs. For outputs, Party identifies the party receiving the
// value.
type IOArg struct {
	Name  string
	Party int
	Bits  int
	Count int
}

func (io IOArg) String() string {
	var party string
	if io.Party == Shared {
		party = "*"
	} else {
		party = fmt.Sprintf("%d", io.Party)
	}
	return fmt.Sprintf("%s@%s:u%d[%d]", io.Name, party, io.Bits, io.Count)
}

// Size returns the size of the argument in bits.
func (io IOArg) Size() int {
	return io.Bits * io.Count
}

// Pack packs the argument values into a big.Int. The value i is
// stored in bits [i*Bits, (i+1)*Bits).
func (io IOArg) Pack(values []uint64) (*big.Int, error) {
	if len(values) != io.Count {
		return nil, fmt.Errorf("%s: invalid number of values: got %d, expected %d",
			io.Name, len(values), io.Count)
	}
	result := new(big.Int)
	for idx, v := range values {
		if io.Bits < 64 && v>>io.Bits != 0 {
			return nil, fmt.Errorf("%s: value %d does not fit in %d bits",
				io.Name, v, io.Bits)
		}
		for bit := 0; bit < io.Bits && bit < 64; bit++ {
			if v&(1<<bit) != 0 {
				result.SetBit(result, idx*io.Bits+bit, 1)
			}
		}
	}
	return result, nil
}

// Unpack unpacks the argument values from a big.Int. Bits above 64
// are ignored.
func (io IOArg) Unpack(v *big.Int) []uint64 {
	result := make([]uint64, io.Count)
	for idx := range result {
		var r uint64
		for bit := 0; bit < io.Bits && bit < 64; bit++ {
			if v.Bit(idx*io.Bits+bit) == 1 {
				r |= 1 << bit
			}
		}
		result[idx] = r
	}
	return result
}

// IO specifies circuit input and output arguments.
type IO []IOArg

// Size computes the size of the circuit input and output arguments in
// bits.
func (io IO) Size() int {
	var sum int
	for _, a := range io {
		sum += a.Size()
	}
	return sum
}

func (io IO) String() string {
	var str = ""
	for i, a := range io {
		if i > 0 {
			str += ", "
		}
		str += a.String()
	}
	return str
}

// Offset returns the bit offset of the argument idx.
func (io IO) Offset(idx int) int {
	var ofs int
	for i := 0; i < idx; i++ {
		ofs += io[i].Size()
	}
	return ofs
}

// Split splits the value into separate I/O arguments.
func (io IO) Split(in *big.Int) []*big.Int {
	var result []*big.Int
	var bit int
	for _, arg := range io {
		r := big.NewInt(0)
		for i := 0; i < arg.Size(); i++ {
			if in.Bit(bit) == 1 {
				r = big.NewInt(0).SetBit(r, i, 1)
			}
			bit++
		}
		result = append(result, r)
	}
	return result
}
