// Package compiler lowers the PROGRAMA/INICIO/RES/FIM teaching language to
// accumulator-machine assembly.
//
// Pipeline: source → Lex → Parse → Generate → assembly text
package compiler
