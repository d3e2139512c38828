// Package kfmt provides a minimal, allocation-free Printf implementation
// used for kernel diagnostics. Output is buffered in a ring buffer until an
// output sink is attached via SetOutputSink.
package kfmt

import "io"

var (
	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")

	// singleByte is a shared buffer for emitting single characters
	// without triggering a string-to-slice conversion allocation.
	singleByte = []byte(" ")

	// earlyPrintBuffer stores Printf output emitted before a sink is
	// attached.
	earlyPrintBuffer ringBuffer

	// outputSink is the io.Writer where Printf sends its output. While
	// nil, output is redirected to earlyPrintBuffer.
	outputSink io.Writer
)

// SetOutputSink sets the target for Printf output to w and copies any data
// accumulated in the early print buffer to it. Passing nil reverts Printf to
// the early print buffer.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		io.Copy(w, &earlyPrintBuffer)
	}
}

// Printf writes a formatted string to the active output sink. It supports a
// subset of the fmt.Printf verbs:
//
//	%s  string or []byte
//	%d  base-10 integer
//	%x  base-16 integer, lower-case
//	%o  base-8 integer
//	%t  "true" or "false"
//
// An optional decimal width preceding the verb left-pads the value: with
// spaces for %s and %d, with zeroes for %x and %o.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf behaves exactly like Printf but writes the formatted output to w.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		nextArg int
		padLen  int
	)

	for i := 0; i < len(format); i++ {
		ch := format[i]
		if ch != '%' {
			emitByte(w, ch)
			continue
		}

		// Scan the optional pad width and the verb.
		padLen = 0
		i++
		if i == len(format) {
			doWrite(w, errNoVerb)
			break
		}
		for ; i < len(format) && format[i] >= '0' && format[i] <= '9'; i++ {
			padLen = padLen*10 + int(format[i]-'0')
		}
		if i == len(format) {
			doWrite(w, errNoVerb)
			break
		}

		verb := format[i]
		if verb == '%' {
			emitByte(w, '%')
			continue
		}

		if nextArg >= len(args) {
			doWrite(w, errMissingArg)
			continue
		}

		switch verb {
		case 'o':
			fmtInt(w, args[nextArg], 8, padLen)
		case 'd':
			fmtInt(w, args[nextArg], 10, padLen)
		case 'x':
			fmtInt(w, args[nextArg], 16, padLen)
		case 's':
			fmtString(w, args[nextArg], padLen)
		case 't':
			fmtBool(w, args[nextArg])
		default:
			doWrite(w, errNoVerb)
		}
		nextArg++
	}

	// Check for unused args
	for ; nextArg < len(args); nextArg++ {
		doWrite(w, errExtraArg)
	}
}

// fmtBool prints a formatted version of boolean value v.
func fmtBool(w io.Writer, v interface{}) {
	bVal, isBool := v.(bool)
	if !isBool {
		doWrite(w, errWrongArgType)
		return
	}

	if bVal {
		doWrite(w, trueValue)
		return
	}
	doWrite(w, falseValue)
}

// fmtString prints a formatted version of string or []byte value v, applying
// the padding specified by padLen.
func fmtString(w io.Writer, v interface{}, padLen int) {
	switch sVal := v.(type) {
	case string:
		fmtRepeat(w, ' ', padLen-len(sVal))
		// Converting the string to a byte slice would trigger an
		// allocation, so emit it one byte at a time.
		for i := 0; i < len(sVal); i++ {
			emitByte(w, sVal[i])
		}
	case []byte:
		fmtRepeat(w, ' ', padLen-len(sVal))
		doWrite(w, sVal)
	default:
		doWrite(w, errWrongArgType)
	}
}

// fmtRepeat writes count bytes with value ch.
func fmtRepeat(w io.Writer, ch byte, count int) {
	for i := 0; i < count; i++ {
		emitByte(w, ch)
	}
}

// fmtInt prints out a formatted version of v in the requested base, applying
// the padding specified by padLen. All built-in signed and unsigned integer
// types are supported.
func fmtInt(w io.Writer, v interface{}, base, padLen int) {
	var (
		uval     uint64
		negative bool
		buf      [32]byte
	)

	switch iVal := v.(type) {
	case uint8:
		uval = uint64(iVal)
	case uint16:
		uval = uint64(iVal)
	case uint32:
		uval = uint64(iVal)
	case uint64:
		uval = iVal
	case uint:
		uval = uint64(iVal)
	case uintptr:
		uval = uint64(iVal)
	case int8:
		uval, negative = abs(int64(iVal))
	case int16:
		uval, negative = abs(int64(iVal))
	case int32:
		uval, negative = abs(int64(iVal))
	case int64:
		uval, negative = abs(iVal)
	case int:
		uval, negative = abs(int64(iVal))
	default:
		doWrite(w, errWrongArgType)
		return
	}

	const digits = "0123456789abcdef"
	wIndex := len(buf)
	for {
		wIndex--
		buf[wIndex] = digits[uval%uint64(base)]
		uval /= uint64(base)
		if uval == 0 {
			break
		}
	}

	padCh := byte(' ')
	if base == 8 || base == 16 {
		padCh = '0'
	}

	digitLen := len(buf) - wIndex
	if negative {
		digitLen++
	}
	if negative && padCh == '0' {
		emitByte(w, '-')
		negative = false
	}
	fmtRepeat(w, padCh, padLen-digitLen)
	if negative {
		emitByte(w, '-')
	}
	doWrite(w, buf[wIndex:])
}

// abs returns the absolute value of v and whether v was negative.
func abs(v int64) (uint64, bool) {
	if v < 0 {
		return uint64(-v), true
	}
	return uint64(v), false
}

// emitByte writes a single byte to w via the shared single-byte buffer.
func emitByte(w io.Writer, ch byte) {
	singleByte[0] = ch
	doWrite(w, singleByte)
}

// doWrite redirects p to the early print buffer when no sink is attached.
func doWrite(w io.Writer, p []byte) {
	if w == nil {
		w = &earlyPrintBuffer
	}
	w.Write(p)
}
