//
// pipe_test.go
//
// Copyright (c) 2023-2026 Markku Rossi
//
// All rights reserved.
//

package ot

import (
	"bytes"
	"fmt"
	"testing"
)

func TestPipe(t *testing.T) {
	var tests = []interface{}{
		byte('@'),
		42,
		[]byte("Hello, world!"),
		Label{D0: 0x0123456789abcdef, D1: 0xfedcba9876543210},
	}

	pipe, rPipe := NewPipe()
	done := make(chan error)

	go func(pipe *Pipe) {
		for _, test := range tests {
			switch v := test.(type) {
			case byte:
				val, err := pipe.ReceiveByte()
				if err != nil {
					done <- err
					return
				}
				if val != v {
					done <- fmt.Errorf("ReceiveByte: mismatch: %v != %v",
						val, v)
					return
				}

			case int:
				val, err := pipe.ReceiveUint32()
				if err != nil {
					done <- err
					return
				}
				if val != v {
					done <- fmt.Errorf("ReceiveUint32: mismatch: %v != %v",
						val, v)
					return
				}

			case []byte:
				val, err := pipe.ReceiveData()
				if err != nil {
					done <- err
					return
				}
				if !bytes.Equal(val, v) {
					done <- fmt.Errorf("ReceiveData: mismatch: %x != %x",
						val, v)
					return
				}

			case Label:
				var val Label
				var ld LabelData
				if err := pipe.ReceiveLabel(&val, &ld); err != nil {
					done <- err
					return
				}
				if !val.Equal(v) {
					done <- fmt.Errorf("ReceiveLabel: mismatch: %v != %v",
						val, v)
					return
				}
			}
		}
		done <- nil
	}(rPipe)

	for _, test := range tests {
		switch v := test.(type) {
		case byte:
			err := pipe.SendByte(v)
			if err != nil {
				t.Errorf("SendByte failed: %v", err)
			}

		case int:
			err := pipe.SendUint32(v)
			if err != nil {
				t.Errorf("SendUint32 failed: %v", err)
			}

		case []byte:
			err := pipe.SendData(v)
			if err != nil {
				t.Errorf("SendData failed: %v", err)
			}

		case Label:
			var ld LabelData
			err := pipe.SendLabel(v, &ld)
			if err != nil {
				t.Errorf("SendLabel failed: %v", err)
			}
		}
	}
	err := pipe.Close()
	if err != nil {
		t.Errorf("Close failed: %v", err)
	}

	err = <-done
	if err != nil {
		t.Errorf("consumer failed: %v", err)
	}
}
