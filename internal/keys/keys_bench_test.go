package keys

import "testing"

var sink string

func BenchmarkKeys_Result(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		sink = Result("0f8fad5b-d9cb-469f-a165-70867728950e")
	}
}

func BenchmarkKeys_For(b *testing.B) {
	b.ReportAllocs()
	var q Queue
	for i := 0; i < b.N; i++ {
		q = For("default")
	}
	sink = q.Pending
}
