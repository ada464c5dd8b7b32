package term

import (
	"fmt"
	"io"

	runewidth "github.com/mattn/go-runewidth"
)

// screenWidth is the fallback column count used when a session has no
// known terminal width (e.g. a non-tty host stream).
const screenWidth = 80

// writeColumns renders words as a left-justified, evenly spaced grid
// within width columns, the same shape as a completion list printed by a
// typical shell's "show all N possibilities" listing. Column widths
// account for multi-byte/double-width runes via go-runewidth, since a
// naive len()-based layout would misalign under UTF-8 labels.
func writeColumns(w io.Writer, words []string, width int) {
	if len(words) == 0 {
		return
	}
	if width <= 0 {
		width = screenWidth
	}

	maxw := 0
	for _, s := range words {
		if wd := runewidth.StringWidth(s); wd > maxw {
			maxw = wd
		}
	}
	colWidth := maxw + 2
	cols := width / colWidth
	if cols < 1 {
		cols = 1
	}

	for i, s := range words {
		pad := colWidth - runewidth.StringWidth(s)
		fmt.Fprintf(w, "%s%*s", s, pad, "")
		if (i+1)%cols == 0 || i == len(words)-1 {
			fmt.Fprint(w, "\r\n")
		}
	}
}
