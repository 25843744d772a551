package archmap

import (
	"strings"

	"github.com/spf13/pflag"
)

type mappingsValue struct {
	dst     *Mappings
	changed bool
}

// NewFlag returns a pflag.Value that collects repeated FRAGMENT=ARCH arguments.  The first use
// of the flag replaces whatever defaults dst held.  An empty argument clears the list, and the
// next use starts over.
func NewFlag(dst *Mappings) pflag.Value {
	return &mappingsValue{dst: dst}
}

func (v *mappingsValue) Set(str string) error {
	if str == "" {
		*v.dst = nil
		v.changed = false
		return nil
	}
	var parsed Mappings
	for _, part := range strings.Split(str, ",") {
		m, err := ParseMapping(strings.TrimSpace(part))
		if err != nil {
			return err
		}
		parsed = append(parsed, m)
	}
	if !v.changed {
		*v.dst = nil
		v.changed = true
	}
	*v.dst = append(*v.dst, parsed...)
	return nil
}

func (v *mappingsValue) String() string {
	if v.dst == nil {
		return ""
	}
	return v.dst.String()
}

func (v *mappingsValue) Type() string {
	return "FRAGMENT=ARCH"
}
