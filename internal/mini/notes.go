package mini

import "strconv"

// noteLetters maps a letter name to its semitone offset within an
// octave, c = 0.
var noteLetters = map[byte]int{
	'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11,
}

// lookupNote parses identifiers of the shape letter[s|f]*[octave] (c,
// cs4, ef3, gs, a5, bf2, …) into a MIDI pitch number. Octave 5 is
// middle-C's octave when omitted, matching the common mini-notation
// convention of c5 == 60.
func lookupNote(name string) (float64, bool) {
	if len(name) == 0 {
		return 0, false
	}
	letter := name[0]
	base, ok := noteLetters[letter]
	if !ok {
		return 0, false
	}
	i := 1
	for i < len(name) && (name[i] == 's' || name[i] == 'f') {
		if name[i] == 's' {
			base++
		} else {
			base--
		}
		i++
	}
	octave := 5
	if i < len(name) {
		rest := name[i:]
		n, err := strconv.Atoi(rest)
		if err != nil {
			return 0, false
		}
		octave = n
	}
	pitch := octave*12 + base
	return float64(pitch), true
}
