package asm

import (
	"strconv"
	"strings"
)

// Section is the region a source line belongs to.
type Section int

const (
	SectionNone Section = iota
	SectionData
	SectionCode
)

func (s Section) String() string {
	switch s {
	case SectionData:
		return ".DATA"
	case SectionCode:
		return ".CODE"
	default:
		return "none"
	}
}

type lineKind int

const (
	lineBlank lineKind = iota
	lineSection
	lineLabel
	lineOrg
	lineData
	lineInstruction
	lineIgnored
)

type parsedLine struct {
	lineNo int
	kind   lineKind

	section Section // lineSection

	label    string // lineLabel
	trailing string // text after the label colon

	org    int // lineOrg
	orgErr string

	name      string // lineData
	value     byte
	undefined bool
	valueErr  string

	mnemonic string // lineInstruction
	operand  string
}

// parseLine classifies one source line given the section it appears in.
// Labels are only recognised inside .CODE; anywhere else a colon has no
// special meaning.
func parseLine(raw string, lineNo int, section Section) parsedLine {
	p := parsedLine{lineNo: lineNo}
	line := strings.TrimSpace(stripComments(raw))
	if line == "" {
		return p
	}

	if section == SectionCode {
		if colon := strings.Index(line, ":"); colon >= 0 {
			if label := strings.TrimSpace(line[:colon]); label != "" {
				p.kind = lineLabel
				p.label = label
				p.trailing = strings.TrimSpace(line[colon+1:])
				return p
			}
		}
	}

	upper := strings.ToUpper(line)
	switch {
	case strings.HasPrefix(upper, ".DATA"):
		p.kind = lineSection
		p.section = SectionData
		return p
	case strings.HasPrefix(upper, ".CODE"):
		p.kind = lineSection
		p.section = SectionCode
		return p
	}

	fields := strings.Fields(line)
	switch section {
	case SectionData:
		if len(fields) < 2 || !strings.EqualFold(fields[1], "DB") {
			p.kind = lineIgnored
			return p
		}
		p.kind = lineData
		p.name = fields[0]
		if len(fields) < 3 || fields[2] == "?" {
			p.undefined = true
			return p
		}
		v, ok := parseValue(fields[2])
		if !ok {
			p.valueErr = fields[2]
		}
		p.value = byte(v)
		return p

	case SectionCode:
		if strings.HasPrefix(upper, ".ORG") {
			p.kind = lineOrg
			if len(fields) < 2 {
				p.orgErr = "missing origin"
				return p
			}
			n, ok := parseValue(fields[1])
			if !ok || n < 0 {
				p.orgErr = fields[1]
				return p
			}
			p.org = n
			return p
		}
		p.kind = lineInstruction
		p.mnemonic = fields[0]
		if len(fields) > 1 {
			p.operand = fields[1]
		}
		return p
	}

	p.kind = lineIgnored
	return p
}

func stripComments(line string) string {
	semicolon := strings.Index(line, ";")
	doubleSlash := strings.Index(line, "//")

	cut := -1
	if semicolon >= 0 {
		cut = semicolon
	}
	if doubleSlash >= 0 && (cut == -1 || doubleSlash < cut) {
		cut = doubleSlash
	}
	if cut >= 0 {
		return line[:cut]
	}
	return line
}

// parseValue reads a 0x-prefixed hexadecimal or a decimal number. Decimal
// parsing is lenient: it takes the longest leading signed integer and
// reports ok=false when there is none, yielding 0.
func parseValue(s string) (int, bool) {
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		n, err := strconv.ParseInt(s[2:], 16, 32)
		if err != nil {
			return 0, false
		}
		return int(n), true
	}

	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
