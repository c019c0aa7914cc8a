package bluenoise

import (
	"bufio"
	"io"
	"strconv"
)

const (
	valuesName = "blueNoiseValues"
	widthName  = "blueNoiseWidth"
	heightName = "blueNoiseHeight"

	valuesComment = "// Array contains consecutive R, G values. Pixels are indexed from the top-left.\n"
)

func writePreamble(w *bufio.Writer) {
	w.WriteString("#pragma once\n\n")
	w.WriteString("#include <stddef.h>\n")
	w.WriteString("#include <stdint.h>\n\n")
}

// writeBody writes the array initializer and the size constants.
// decl is the array type, "uint8_t" or "const uint8_t".
func writeBody(w *bufio.Writer, t *Table, decl string) {
	w.WriteString(decl + " " + valuesName + "[" + strconv.Itoa(t.Len()) + "] = {\n")

	var num []byte
	for i, v := range t.Values {
		if i > 0 {
			w.WriteString(", ")
		}
		num = strconv.AppendUint(num[:0], uint64(v), 10)
		w.Write(num)
	}
	if len(t.Values) > 0 {
		w.WriteString(",\n")
	}
	w.WriteString("};\n")

	writeSize(w, "const size_t "+widthName+" = ", t.Width)
	writeSize(w, "const size_t "+heightName+" = ", t.Height)
}

func writeSize(w *bufio.Writer, prefix string, n int) {
	w.WriteString(prefix)
	w.WriteString(strconv.Itoa(n))
	w.WriteString(";\n")
}

// WriteCombined writes a header that defines the table and its dimensions,
// meant to be included by exactly one translation unit.
func WriteCombined(w io.Writer, t *Table) error {
	buf := bufio.NewWriter(w)
	writePreamble(buf)
	buf.WriteString(valuesComment)
	writeBody(buf, t, "uint8_t")
	return buf.Flush()
}

// WriteHeader writes the extern declarations for Split mode. It holds no
// pixel data.
func WriteHeader(w io.Writer, t *Table) error {
	buf := bufio.NewWriter(w)
	writePreamble(buf)
	buf.WriteString("#ifdef __cplusplus\n")
	buf.WriteString("extern \"C\" {\n")
	buf.WriteString("#endif\n")
	buf.WriteString(valuesComment)
	buf.WriteString("extern const uint8_t " + valuesName + "[" + strconv.Itoa(t.Len()) + "];\n\n")
	buf.WriteString("extern const size_t " + widthName + ";\n")
	buf.WriteString("extern const size_t " + heightName + ";\n")
	buf.WriteString("#ifdef __cplusplus\n")
	buf.WriteString("}\n")
	buf.WriteString("#endif\n")
	return buf.Flush()
}

// WriteSource writes the definitions for Split mode. header is the name the
// C file includes.
func WriteSource(w io.Writer, t *Table, header string) error {
	buf := bufio.NewWriter(w)
	buf.WriteString("#include " + strconv.Quote(header) + "\n\n")
	writeBody(buf, t, "const uint8_t")
	return buf.Flush()
}
