package readers

import (
	"errors"
	"testing"

	"github.com/phlenoir/pz-corps-save-explorer/types"
)

// utf16 encodes an ASCII string the way save files store names.
func utf16(s string) []byte {
	out := []byte{}
	for _, c := range []byte(s) {
		out = append(out, c, 0)
	}
	return append(out, 0, 0)
}

func Test_Read_uint16(t *testing.T) {
	data := []byte{0x34, 0x12, 0xFF, 0xFF}
	cur := 0
	if got := Read_uint16(data, &cur); got != 0x1234 {
		t.Errorf("expected 0x1234, got 0x%x", got)
	}
	if got := Read_uint16(data, &cur); got != 0xFFFF {
		t.Errorf("expected 0xFFFF, got 0x%x", got)
	}
	if cur != 4 {
		t.Errorf("cursor should be 4, is %v", cur)
	}
}

func Test_Read_int16(t *testing.T) {
	data := []byte{0xFE, 0xFF}
	cur := 0
	if got := Read_int16(data, &cur); got != -2 {
		t.Errorf("expected -2, got %v", got)
	}
}

func Test_Read_uint32(t *testing.T) {
	data := []byte{0x78, 0x56, 0x34, 0x12}
	cur := 0
	if got := Read_uint32(data, &cur); got != 0x12345678 {
		t.Errorf("expected 0x12345678, got 0x%x", got)
	}
}

func Test_Read_utf16_string(t *testing.T) {
	data := utf16("45th SdKfz  7/2")
	cur := 0
	s, err := Read_utf16_string(data, &cur)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != "45th SdKfz  7/2" {
		t.Errorf("mangled string: %q", s)
	}
	if cur != len(data) {
		t.Errorf("cursor should be past terminator (%v), is %v", len(data), cur)
	}

	// Tab is the one non-printable we accept
	cur = 0
	s, err = Read_utf16_string(utf16("a\tb"), &cur)
	if err != nil || s != "a\tb" {
		t.Errorf("tab should be accepted: %q, %v", s, err)
	}
}

func Test_Read_utf16_string_rejects_junk(t *testing.T) {
	cases := [][]byte{
		{0x41, 0x04, 0x00, 0x00},       // high byte not zero
		{0x07, 0x00, 0x00, 0x00},       // control character
		{0x41, 0x00, 0x42},             // truncated pair
		{0x41, 0x00, 0x42, 0x00, 0x43}, // EOF before terminator
	}
	for i, data := range cases {
		cur := 0
		_, err := Read_utf16_string(data, &cur)
		if err == nil {
			t.Errorf("case %v: junk accepted as a string", i)
			continue
		}
		se := &types.Structural_error{}
		if !errors.As(err, &se) {
			t.Errorf("case %v: wrong error type: %v", i, err)
		}
	}
}

func Test_Skip_non_ascii(t *testing.T) {
	data := []byte{0x00, 0x01, 0xFE, 'A', 'B'}
	cur := 0
	Skip_non_ascii(data, &cur, 100)
	if cur != 3 {
		t.Errorf("expected cursor 3, got %v", cur)
	}

	// max is respected even if there's still junk ahead
	cur = 0
	Skip_non_ascii(data, &cur, 2)
	if cur != 2 {
		t.Errorf("expected cursor pinned at 2, got %v", cur)
	}
}

func Test_Find_ff_run(t *testing.T) {
	data := make([]byte, 64)
	for i := 10; i < 16; i++ {
		data[i] = 0xFF
	}

	pos, count := Find_ff_run(data, 0, len(data), 4, 16)
	if pos != 10 || count != 6 {
		t.Errorf("expected (10, 6), got (%v, %v)", pos, count)
	}

	// No run at all
	pos, _ = Find_ff_run(data, 16, len(data), 4, 16)
	if pos != -1 {
		t.Errorf("found a run in zeroes at %v", pos)
	}
}

func Test_Find_ff_run_skips_short_runs(t *testing.T) {
	data := make([]byte, 64)
	// 3 bytes at 5 (too short), 4 bytes at 20
	for i := 5; i < 8; i++ {
		data[i] = 0xFF
	}
	for i := 20; i < 24; i++ {
		data[i] = 0xFF
	}

	pos, count := Find_ff_run(data, 0, len(data), 4, 16)
	if pos != 20 || count != 4 {
		t.Errorf("expected (20, 4), got (%v, %v)", pos, count)
	}
}

func Test_Find_ff_run_caps_count(t *testing.T) {
	data := make([]byte, 64)
	for i := 8; i < 8+30; i++ {
		data[i] = 0xFF
	}

	pos, count := Find_ff_run(data, 0, len(data), 4, 16)
	if pos != 8 || count != 16 {
		t.Errorf("count should be capped at 16: got (%v, %v)", pos, count)
	}
}

func Test_Find_ff_run_window(t *testing.T) {
	data := make([]byte, 64)
	for i := 30; i < 40; i++ {
		data[i] = 0xFF
	}

	// Window ends before the run starts
	pos, _ := Find_ff_run(data, 0, 30, 4, 16)
	if pos != -1 {
		t.Errorf("run found outside the window, at %v", pos)
	}
}

func Test_Read_uint16_block(t *testing.T) {
	data := []byte{0x01, 0x00, 0x02, 0x00, 0x03, 0x00}
	vals, err := Read_uint16_block(data, 0, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, want := range []int{1, 2, 3} {
		if vals[i] != want {
			t.Errorf("vals[%v] = %v, want %v", i, vals[i], want)
		}
	}

	_, err = Read_uint16_block(data, 2, 3)
	if err == nil {
		t.Error("block past EOF should fail")
	}
}
