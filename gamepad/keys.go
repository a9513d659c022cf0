package gamepad

import "strings"

type keyInfo struct {
	code    string
	keyCode int
}

// Older engines (Phaser 2, Kaplay's legacy input path) still read keyCode/which, so
// synthetic events carry both the modern code and the legacy numeric key code.
var namedKeys = map[string]keyInfo{
	" ":          {"Space", 32},
	"Spacebar":   {"Space", 32},
	"Enter":      {"Enter", 13},
	"Escape":     {"Escape", 27},
	"Tab":        {"Tab", 9},
	"Backspace":  {"Backspace", 8},
	"Shift":      {"ShiftLeft", 16},
	"Control":    {"ControlLeft", 17},
	"Alt":        {"AltLeft", 18},
	"Meta":       {"MetaLeft", 91},
	"ArrowUp":    {"ArrowUp", 38},
	"ArrowDown":  {"ArrowDown", 40},
	"ArrowLeft":  {"ArrowLeft", 37},
	"ArrowRight": {"ArrowRight", 39},
	"PageUp":     {"PageUp", 33},
	"PageDown":   {"PageDown", 34},
	"Home":       {"Home", 36},
	"End":        {"End", 35},
	"Delete":     {"Delete", 46},
	"`":          {"Backquote", 192},
	"-":          {"Minus", 189},
	"=":          {"Equal", 187},
	",":          {"Comma", 188},
	".":          {"Period", 190},
	"/":          {"Slash", 191},
	";":          {"Semicolon", 186},
	"'":          {"Quote", 222},
	"[":          {"BracketLeft", 219},
	"]":          {"BracketRight", 221},
	"\\":         {"Backslash", 220},
}

// KeyInfo returns the KeyboardEvent.code and legacy keyCode for a KeyboardEvent.key value.
// Unknown keys return an empty code and 0.
func KeyInfo(key string) (code string, keyCode int) {
	if k, ok := namedKeys[key]; ok {
		return k.code, k.keyCode
	}
	if len(key) == 1 {
		c := key[0]
		switch {
		case c >= 'a' && c <= 'z':
			return "Key" + strings.ToUpper(key), int(c - 'a' + 'A')
		case c >= 'A' && c <= 'Z':
			return "Key" + key, int(c)
		case c >= '0' && c <= '9':
			return "Digit" + key, int(c)
		}
	}
	if len(key) >= 2 && key[0] == 'F' {
		n := 0
		for _, r := range key[1:] {
			if r < '0' || r > '9' {
				return "", 0
			}
			n = n*10 + int(r-'0')
		}
		if n >= 1 && n <= 12 {
			return key, 111 + n
		}
	}
	return "", 0
}
