package textbuf

import "unicode/utf8"

// UTF16Len counts UTF-16 code units in s. Characters outside the BMP occupy
// a surrogate pair.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// ByteColFromUTF16 converts a UTF-16 column within a line to a byte column.
// Columns past the end of the line clamp to the line length, matching how
// editors address the position just after the last character.
func ByteColFromUTF16(line string, col int) int {
	var u16, off int
	for _, r := range line {
		if u16 >= col {
			break
		}
		if r >= 0x10000 {
			u16 += 2
		} else {
			u16++
		}
		off += utf8.RuneLen(r)
	}
	return off
}

// UTF16ColFromByte converts a byte column within a line to a UTF-16 column.
func UTF16ColFromByte(line string, col int) int {
	if col > len(line) {
		col = len(line)
	}
	return UTF16Len(line[:col])
}
