package util

import "testing"

func TestWipe(t *testing.T) {
	b := []byte("sensitive material")
	Wipe(b)
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d not zeroed", i)
		}
	}
	Wipe(nil)
	Wipe([]byte{})
}
