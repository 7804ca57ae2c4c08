package display

// Physical keyboard layout for the hex keypad:
//
//	Keypad       Keyboard
//	+-+-+-+-+    +-+-+-+-+
//	|1|2|3|C|    |1|2|3|4|
//	+-+-+-+-+    +-+-+-+-+
//	|4|5|6|D|    |Q|W|E|R|
//	+-+-+-+-+ => +-+-+-+-+
//	|7|8|9|E|    |A|S|D|F|
//	+-+-+-+-+    +-+-+-+-+
//	|A|0|B|F|    |Z|X|C|V|
//	+-+-+-+-+    +-+-+-+-+
var keyMap = map[byte]uint8{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xD,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xE,
	'z': 0xA, 'x': 0x0, 'c': 0xB, 'v': 0xF,
}

// MapKey maps a keyboard byte to its hex keypad value.
func MapKey(b byte) (key uint8, ok bool) {
	if b >= 'A' && b <= 'Z' {
		b += 'a' - 'A'
	}
	key, ok = keyMap[b]
	return
}
