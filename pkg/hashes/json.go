package hashes

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// Dumps renders v on one line with the whitespace of Python's `json.dumps` ("a": 1, "b": 2),
// which is how this output has always been formatted.  Unlike a map round-trip, it keeps
// whatever key order v's JSON encoding has.
func Dumps(v interface{}) ([]byte, error) {
	var src bytes.Buffer
	encoder := json.NewEncoder(&src)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}

	var dst bytes.Buffer
	decoder := json.NewDecoder(&src)
	decoder.UseNumber()
	// Each stack entry is <0 inside an array (-1 minus the number of items so far), or >0
	// inside an object (1 plus the number of keys and values so far).
	stack := []int{-1}
	completeItem := func() {
		depth := len(stack) - 1
		if stack[depth] < 0 {
			stack[depth]--
		} else {
			if stack[depth]%2 == 1 {
				_, _ = dst.WriteString(": ")
			}
			stack[depth]++
		}
	}
	for {
		tok, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return dst.Bytes(), nil
			}
			return nil, err
		}

		delim, isDelim := tok.(json.Delim)
		if !isDelim || delim == '[' || delim == '{' {
			depth := len(stack) - 1
			if stack[depth] < -1 || (stack[depth] > 1 && stack[depth]%2 == 1) {
				_, _ = dst.WriteString(", ")
			}
		}
		if isDelim {
			switch delim {
			case '[':
				stack = append(stack, -1)
			case '{':
				stack = append(stack, 1)
			case '}', ']':
				stack = stack[:len(stack)-1]
				completeItem()
			}
			_, _ = dst.WriteRune(rune(delim))
			continue
		}

		bs, err := marshalToken(tok)
		if err != nil {
			return nil, err
		}
		_, _ = dst.Write(bs)
		completeItem()
	}
}

func marshalToken(tok json.Token) ([]byte, error) {
	if num, ok := tok.(json.Number); ok {
		return []byte(num), nil
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(tok); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
