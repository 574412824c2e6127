package compiler

import "testing"

const benchSource = `PROGRAMA BENCH:
INICIO
  A = 12
  B = A / 3
  C = B * 5
  D = (C - A) / (B + 1)
  RES = A + B - C + D * 2
FIM
`

func BenchmarkCompile(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Compile(benchSource); err != nil {
			b.Fatalf("Compile: %v", err)
		}
	}
}

func BenchmarkLex(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Lex(benchSource)
	}
}
