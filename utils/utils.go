package utils

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// Shared odds and ends: the ini config, offset parsing, file loading and
// the hexdump used for bootstrapping offsets by hand.

const CONFIG_FILE = "pzsav.ini"

// Config is everything the tools read from pzsav.ini.
// units_offset and marker are alternative ways to find the unit list:
// a fixed offset found by hex inspection, or the scenario objective text
// whose second occurrence precedes the list.
type Config struct {
	Dir          string
	Units_offset int // -1 if not configured
	Marker       string
	Stats_len    int // 0 means use the schema default
}

func Load_config() Config {
	out := Config{Units_offset: -1}

	cfg, err := ini.Load(CONFIG_FILE)
	if err != nil {
		wd, _ := os.Getwd()
		out.Dir = wd
		return out
	}

	sec := cfg.Section("")
	out.Dir = sec.Key("dir").String()
	if out.Dir == "" {
		wd, _ := os.Getwd()
		out.Dir = wd
	}
	out.Marker = sec.Key("marker").String()
	if s := sec.Key("units_offset").String(); s != "" {
		off, err := Parse_offset(s)
		if err == nil {
			out.Units_offset = off
		}
	}
	out.Stats_len, _ = sec.Key("stats_len").Int()

	return out
}

// Get_savefile_dir is Load_config().Dir for callers that want nothing else.
func Get_savefile_dir() string {
	return Load_config().Dir
}

// Parse_offset accepts "0x39EA9" or "237225".
func Parse_offset(s string) (int, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToLower(s), "0x") {
		v, err := strconv.ParseInt(s[2:], 16, 64)
		return int(v), err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	return int(v), err
}

// Load_file reads a save file whole, transparently decompressing it if the
// game (or the user's backup habit) gzip- or zlib-wrapped it.
func Load_file(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch {
	case len(raw) > 2 && raw[0] == 0x1F && raw[1] == 0x8B:
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("%v looks gzipped but will not open: %w", path, err)
		}
		defer zr.Close()
		return io.ReadAll(zr)

	case len(raw) > 2 && raw[0] == 0x78 && (raw[1] == 0x01 || raw[1] == 0x9C || raw[1] == 0xDA):
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("%v looks zlib-compressed but will not open: %w", path, err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	}

	return raw, nil
}

// Hexdump renders length bytes starting at start, hex on the left, ASCII
// on the right, the way every other save-poking tool does it.
func Hexdump(data []byte, start int, length int) string {
	const width = 16
	end := min(len(data), start+length)
	lines := []string{}
	for off := start; off < end; off += width {
		chunk := data[off:min(end, off+width)]
		hexpart := ""
		asciipart := ""
		for i, b := range chunk {
			if i > 0 {
				hexpart += " "
			}
			hexpart += fmt.Sprintf("%02x", b)
			if b >= 0x20 && b < 0x7F {
				asciipart += string(rune(b))
			} else {
				asciipart += "."
			}
		}
		lines = append(lines, fmt.Sprintf("0x%08x  %-*s  |%s|", off, width*3-1, hexpart, asciipart))
	}
	return strings.Join(lines, "\n")
}
